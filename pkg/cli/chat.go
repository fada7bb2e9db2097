package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sidekick/pkg/model"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	var (
		cfg     config
		salesID int64
		boardID int64
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "sales-id",
			Usage:       "Sales user the records are created for",
			Sources:     cli.EnvVars("SIDEKICK_SALES_ID"),
			Destination: &salesID,
			Required:    true,
		},
		&cli.IntFlag{
			Name:        "board-id",
			Usage:       "Pipeline to create deals in (default pipeline if omitted)",
			Sources:     cli.EnvVars("SIDEKICK_BOARD_ID"),
			Destination: &boardID,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, repositoryFlags(&cfg)...)
	flags = append(flags, policyFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, agentFlags(&cfg)...)
	flags = append(flags, storageFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive CRM data entry session",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.setupLogger(); err != nil {
				return err
			}

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			registry, err := cfg.newRegistry(ctx, repo)
			if err != nil {
				return err
			}

			agent, err := cfg.newAgent(ctx, registry)
			if err != nil {
				return err
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "> ",
				HistoryFile:     historyFile(),
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return goerr.Wrap(err, "failed to initialize readline")
			}
			defer rl.Close()

			w := c.Root().Writer
			fmt.Fprintf(w, "Chat session started. Type 'exit' to quit.\n")

			var history []model.Message
			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					if line == "" {
						break
					}
					continue
				}
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				message := strings.TrimSpace(line)
				if message == "exit" {
					break
				}
				if message == "" {
					continue
				}

				// session memory lasts for one turn, the same as an HTTP request
				actx := model.NewAgentContext(model.SalesID(salesID), model.PipelineID(boardID))

				sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
				sp.Suffix = " thinking..."
				sp.Start()
				result, err := agent.Run(ctx, actx, history, message)
				sp.Stop()
				if err != nil {
					fmt.Fprintf(w, "error: %v\n", err)
					continue
				}

				printActions(w, result.Actions)
				fmt.Fprintf(w, "\n%s\n\n", result.Message)

				history = append(history,
					model.Message{Role: model.RoleUser, Content: message},
					model.Message{Role: model.RoleAssistant, Content: result.Message},
				)
			}

			fmt.Fprintf(w, "\nChat session completed\n")
			return nil
		},
	}
}

func printActions(w io.Writer, actions []*model.ExecutedAction) {
	for _, a := range actions {
		if a.Success {
			fmt.Fprintf(w, "  ✔ %s\n", a.Description)
		} else {
			fmt.Fprintf(w, "  ✘ %s: %s\n", a.Description, a.Error)
		}
	}
}

func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	if err := os.MkdirAll(filepath.Join(dir, "sidekick"), 0o700); err != nil {
		return ""
	}
	return filepath.Join(dir, "sidekick", "chat_history")
}
