package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sidekick/pkg/model"
	"github.com/m-mizutani/sidekick/pkg/usecase/chat"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

func transcriptCommand() *cli.Command {
	var (
		cfg     config
		verbose bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "verbose",
			Aliases:     []string{"v"},
			Usage:       "Also print tool calls and tool results",
			Destination: &verbose,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, storageFlags(&cfg)...)

	return &cli.Command{
		Name:      "transcript",
		Usage:     "Show an archived agent turn",
		ArgsUsage: "<transcript-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.setupLogger(); err != nil {
				return err
			}

			id := c.Args().First()
			if id == "" {
				return goerr.New("transcript ID is required")
			}

			storage, err := cfg.newStorage(ctx)
			if err != nil {
				return err
			}
			if storage == nil {
				return goerr.New("--transcript-bucket is required")
			}

			transcript, err := chat.LoadTranscript(ctx, storage, model.TranscriptID(id))
			if err != nil {
				return err
			}

			printTranscript(os.Stdout, transcript, verbose)
			return nil
		},
	}
}

func printTranscript(w io.Writer, t *model.Transcript, verbose bool) {
	fmt.Fprintf(w, "ID:         %s\n", t.ID)
	fmt.Fprintf(w, "Sales:      %d\n", t.SalesID)
	fmt.Fprintf(w, "Created:    %s\n", t.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Iterations: %d\n\n", t.Iterations)
	fmt.Fprintf(w, "> %s\n\n%s\n", t.Message, t.Reply)

	if len(t.Actions) > 0 {
		fmt.Fprintln(w)
		printActions(w, t.Actions)
	}

	if !verbose {
		return
	}

	fmt.Fprintln(w, "\n--- contents ---")
	for _, content := range t.Contents {
		for _, part := range content.Parts {
			printPart(w, content.Role, part)
		}
	}
}

func printPart(w io.Writer, role string, part *genai.Part) {
	switch {
	case part.FunctionCall != nil:
		fmt.Fprintf(w, "[%s] call %s %v\n", role, part.FunctionCall.Name, part.FunctionCall.Args)
	case part.FunctionResponse != nil:
		fmt.Fprintf(w, "[%s] result %s %v\n", role, part.FunctionResponse.Name, part.FunctionResponse.Response)
	case part.Text != "" && !part.Thought:
		fmt.Fprintf(w, "[%s] %s\n", role, part.Text)
	}
}
