package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	halsning "github.com/halsning/halsning-go/sdk"
)

const guideSystemInstruction = "Du är en empatisk och hjälpsam guide för appen 'Min Sista Hälsning'. Ditt syfte är att vägleda användare genom den känsliga processen att dokumentera sina sista önskningar, minnen och meddelanden. Var lugn, stöttande och proaktiv. Fråga vägledande frågor som 'Vill du skriva ett brev till dina barn?' eller 'Behöver du hjälp att strukturera dina tankar kring ekonomiska instruktioner?'."

func runGuide(ctx context.Context, logger *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("guide", flag.ExitOnError)
	model := fs.String("model", "", "chat model override")
	_ = fs.Parse(args)

	client, err := halsning.NewClient(ctx, halsning.WithLogger(logger))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	chat, err := client.Chat.Start(ctx, *model, guideSystemInstruction)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	fmt.Println("Skriv ditt meddelande (tom rad avslutar).")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}

		stream, err := chat.SendStream(ctx, line)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		for {
			fragment, err := stream.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			fmt.Print(fragment)
		}
		fmt.Println()
	}
	return 0
}
