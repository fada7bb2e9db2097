package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sidekick/pkg/server"
	"github.com/m-mizutani/sidekick/pkg/tool/crm"
	"github.com/m-mizutani/sidekick/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cli.Command {
	var (
		cfg         config
		addr        string
		jwtSecret   string
		allowOrigin string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Listen address",
			Value:       "127.0.0.1:8080",
			Sources:     cli.EnvVars("SIDEKICK_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "jwt-secret",
			Usage:       "HS256 secret used to verify bearer tokens",
			Sources:     cli.EnvVars("SIDEKICK_JWT_SECRET"),
			Destination: &jwtSecret,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "allow-origin",
			Usage:       "Access-Control-Allow-Origin value",
			Value:       "*",
			Sources:     cli.EnvVars("SIDEKICK_ALLOW_ORIGIN"),
			Destination: &allowOrigin,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, repositoryFlags(&cfg)...)
	flags = append(flags, policyFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, agentFlags(&cfg)...)
	flags = append(flags, storageFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the chat endpoint over HTTP",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.setupLogger(); err != nil {
				return err
			}
			logger := logging.Default()

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

			srv := &http.Server{
				Addr: addr,
				Handler: server.New(agent, repo, server.NewJWTAuthenticator(jwtSecret),
					server.WithAllowOrigin(allowOrigin),
					server.WithCatalogVersion(crm.CatalogVersion),
				),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("starting server", "addr", addr, "backend", cfg.backend, "llm", cfg.provider)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return goerr.Wrap(err, "server stopped", goerr.V("addr", addr))
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shut down server")
			}
			return nil
		},
	}
}
