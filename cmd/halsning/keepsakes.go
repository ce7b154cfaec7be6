package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	halsning "github.com/halsning/halsning-go/sdk"
)

func runKeepsakes(ctx context.Context, logger *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("keepsakes", flag.ExitOnError)
	kind := fs.String("kind", "image", "what to generate: image, edit or video")
	prompt := fs.String("prompt", "", "generation prompt (required)")
	aspect := fs.String("aspect", "16:9", "aspect ratio (16:9 or 9:16)")
	seed := fs.String("seed", "", "input image file (edit input or video seed)")
	out := fs.String("out", "", "output file (required)")
	_ = fs.Parse(args)

	if *prompt == "" || *out == "" {
		fmt.Fprintln(os.Stderr, "-prompt and -out are required")
		return 2
	}

	client, err := halsning.NewClient(ctx, halsning.WithLogger(logger))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	var data []byte
	switch *kind {
	case "image":
		data, err = client.Media.GenerateImage(ctx, *prompt, *aspect)
	case "edit":
		if *seed == "" {
			fmt.Fprintln(os.Stderr, "-seed is required for edit")
			return 2
		}
		var input []byte
		input, err = os.ReadFile(*seed)
		if err != nil {
			break
		}
		data, _, err = client.Media.EditImage(ctx, input, mimeTypeOf(*seed), *prompt)
	case "video":
		req := halsning.VideoRequest{
			Prompt:      *prompt,
			AspectRatio: *aspect,
			OnStatus:    func(status string) { fmt.Fprintln(os.Stderr, status) },
		}
		if *seed != "" {
			req.Image, err = os.ReadFile(*seed)
			if err != nil {
				break
			}
			req.ImageMIMEType = mimeTypeOf(*seed)
		}
		var uri string
		uri, err = client.Media.GenerateVideo(ctx, req)
		if err != nil {
			break
		}
		fmt.Fprintln(os.Stderr, "Hämtar video...")
		data, err = client.Media.DownloadVideo(ctx, uri)
	default:
		fmt.Fprintf(os.Stderr, "unknown kind %q\n", *kind)
		return 2
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := os.WriteFile(*out, data, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("wrote", *out)
	return 0
}

func mimeTypeOf(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/octet-stream"
}
