package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	halsning "github.com/halsning/halsning-go/sdk"
)

func runMemories(ctx context.Context, logger *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("memories", flag.ExitOnError)
	file := fs.String("file", "", "memory file to analyze (required)")
	question := fs.String("question", "", "optional question about the file")
	_ = fs.Parse(args)

	if *file == "" {
		fmt.Fprintln(os.Stderr, "-file is required")
		return 2
	}
	data, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	client, err := halsning.NewClient(ctx, halsning.WithLogger(logger))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	result, err := client.Memories.Analyze(ctx, halsning.AnalyzeRequest{
		Data:     data,
		MIMEType: mimeTypeOf(*file),
		Filename: filepath.Base(*file),
		Question: *question,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(result)
	return 0
}
