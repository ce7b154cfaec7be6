package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/halsning/halsning-go/pkg/core/live"
	halsning "github.com/halsning/halsning-go/sdk"
)

func runLive(ctx context.Context, logger *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("live", flag.ExitOnError)
	voice := fs.String("voice", "", "prebuilt voice override")
	system := fs.String("system", "", "system instruction override")
	_ = fs.Parse(args)

	client, err := halsning.NewClient(ctx, halsning.WithLogger(logger))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	session, err := client.Live.Start(ctx, halsning.LiveOptions{
		Voice:             *voice,
		SystemInstruction: *system,
		Callbacks: live.Callbacks{
			OnOpen: func() {
				fmt.Fprintln(os.Stderr, "Ansluten. Prata i mikrofonen; Ctrl-C avslutar.")
			},
			OnTranscript: func(entries []live.Entry) {
				printTranscript(entries)
			},
			OnError: func(err error) {
				fmt.Fprintln(os.Stderr, "connection error:", err)
			},
			OnClose: func(e live.ClosedEvent) {
				fmt.Fprintf(os.Stderr, "connection closed (%d %s)\n", e.Code, e.Reason)
			},
		},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigCh:
		session.Close()
		<-session.Done()
	case <-session.Done():
	}

	fmt.Println("\nSamtal avslutat.")
	for _, entry := range session.Transcript().Entries() {
		fmt.Printf("%s: %s\n", roleLabel(entry.Role), entry.Text)
	}
	return 0
}

// printTranscript redraws the current turn's last entry on one line.
func printTranscript(entries []live.Entry) {
	if len(entries) == 0 {
		return
	}
	last := entries[len(entries)-1]
	fmt.Printf("\r\033[K%s: %s", roleLabel(last.Role), last.Text)
	if last.IsFinal {
		fmt.Println()
	}
}

func roleLabel(role live.Role) string {
	if role == live.RoleUser {
		return "Du"
	}
	return "Assistenten"
}
