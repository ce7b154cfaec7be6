package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	halsning "github.com/halsning/halsning-go/sdk"
)

func runInstructions(ctx context.Context, logger *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("instructions", flag.ExitOnError)
	prompt := fs.String("prompt", "", "question to answer (required)")
	search := fs.Bool("search", true, "ground with web search")
	maps := fs.Bool("maps", false, "ground with maps")
	thinking := fs.Bool("thinking", false, "use extended reasoning")
	lat := fs.Float64("lat", 0, "latitude for maps grounding")
	lng := fs.Float64("lng", 0, "longitude for maps grounding")
	_ = fs.Parse(args)

	if *prompt == "" {
		fmt.Fprintln(os.Stderr, "-prompt is required")
		return 2
	}

	client, err := halsning.NewClient(ctx, halsning.WithLogger(logger))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	var loc *halsning.Location
	if *lat != 0 || *lng != 0 {
		loc = &halsning.Location{Latitude: *lat, Longitude: *lng}
	}

	result, err := client.Instructions.GenerateGrounded(ctx, *prompt, halsning.GroundingOptions{
		Search:   *search,
		Maps:     *maps,
		Thinking: *thinking,
	}, loc)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	fmt.Println(result.Text)
	if len(result.Chunks) > 0 {
		fmt.Println("\nKällor:")
		for _, chunk := range result.Chunks {
			fmt.Printf("  [%s] %s <%s>\n", chunk.Source, chunk.Title, chunk.URI)
		}
	}
	return 0
}
