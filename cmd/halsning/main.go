// Command halsning is a terminal front end for the Hälsning SDK: a guide
// conversation, keepsake generation, memory analysis, grounded instruction
// lookup, and a live voice conversation.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	os.Exit(runMain())
}

func runMain() int {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		return 2
	}

	level := slog.LevelInfo
	if os.Getenv("HALSNING_DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx := context.Background()
	switch os.Args[1] {
	case "guide":
		return runGuide(ctx, logger, os.Args[2:])
	case "keepsakes":
		return runKeepsakes(ctx, logger, os.Args[2:])
	case "memories":
		return runMemories(ctx, logger, os.Args[2:])
	case "instructions":
		return runInstructions(ctx, logger, os.Args[2:])
	case "live":
		return runLive(ctx, logger, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		return 2
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: halsning <command> [flags]

commands:
  guide         chat with the guide
  keepsakes     generate a keepsake image or video
  memories      analyze an uploaded memory file
  instructions  grounded answers for practical questions
  live          realtime voice conversation

Set GEMINI_API_KEY (or GOOGLE_API_KEY), optionally via a .env file.`)
}
