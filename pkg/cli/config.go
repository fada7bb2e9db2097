package cli

import (
	"context"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sidekick/pkg/adapter"
	"github.com/m-mizutani/sidekick/pkg/policy"
	"github.com/m-mizutani/sidekick/pkg/repository"
	"github.com/m-mizutani/sidekick/pkg/tool"
	"github.com/m-mizutani/sidekick/pkg/tool/crm"
	"github.com/m-mizutani/sidekick/pkg/usecase/chat"
	usecase "github.com/m-mizutani/sidekick/pkg/usecase/crm"
	"github.com/m-mizutani/sidekick/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const (
	backendFirestore = "firestore"
	backendSQLite    = "sqlite"

	providerGemini = "gemini"
	providerClaude = "claude"
)

// config holds configuration values
type config struct {
	logLevel  string
	logFormat string

	// Repository
	backend    string
	project    string
	database   string
	sqlitePath string

	// LLM
	provider        string
	geminiProject   string
	geminiLocation  string
	geminiModel     string
	anthropicAPIKey string
	anthropicModel  string

	// Agent
	businessName  string
	maxIterations int64
	historyLimit  int64

	// Transcript archive
	bucket string
	prefix string

	policyDir string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("SIDEKICK_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json)",
			Value:       "console",
			Sources:     cli.EnvVars("SIDEKICK_LOG_FORMAT"),
			Destination: &cfg.logFormat,
		},
	}
}

// repositoryFlags returns flags for the CRM datastore
func repositoryFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "backend",
			Usage:       "Datastore backend (firestore, sqlite)",
			Value:       backendFirestore,
			Sources:     cli.EnvVars("SIDEKICK_BACKEND"),
			Destination: &cfg.backend,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "sqlite-path",
			Usage:       "SQLite database file for the sqlite backend",
			Value:       "sidekick.db",
			Sources:     cli.EnvVars("SIDEKICK_SQLITE_PATH"),
			Destination: &cfg.sqlitePath,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm",
			Usage:       "Language model provider (gemini, claude)",
			Value:       providerGemini,
			Sources:     cli.EnvVars("SIDEKICK_LLM"),
			Destination: &cfg.provider,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model name",
			Value:       adapter.DefaultGeminiModel,
			Sources:     cli.EnvVars("GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
		&cli.StringFlag{
			Name:        "anthropic-api-key",
			Usage:       "Anthropic API key",
			Sources:     cli.EnvVars("ANTHROPIC_API_KEY"),
			Destination: &cfg.anthropicAPIKey,
		},
		&cli.StringFlag{
			Name:        "anthropic-model",
			Usage:       "Claude model name",
			Value:       string(adapter.DefaultClaudeModel),
			Sources:     cli.EnvVars("ANTHROPIC_MODEL"),
			Destination: &cfg.anthropicModel,
		},
	}
}

// agentFlags returns flags tuning the agent loop
func agentFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "business-name",
			Usage:       "Business name used in the system prompt",
			Value:       chat.DefaultBusinessName,
			Sources:     cli.EnvVars("SIDEKICK_BUSINESS_NAME"),
			Destination: &cfg.businessName,
		},
		&cli.IntFlag{
			Name:        "max-iterations",
			Usage:       "Maximum model calls per chat turn",
			Value:       chat.DefaultMaxIterations,
			Sources:     cli.EnvVars("SIDEKICK_MAX_ITERATIONS"),
			Destination: &cfg.maxIterations,
		},
		&cli.IntFlag{
			Name:        "history-limit",
			Usage:       "History size in bytes above which older turns are summarized (0 disables)",
			Value:       chat.DefaultHistoryLimit,
			Sources:     cli.EnvVars("SIDEKICK_HISTORY_LIMIT"),
			Destination: &cfg.historyLimit,
		},
	}
}

// storageFlags returns flags for the transcript archive
func storageFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "transcript-bucket",
			Usage:       "Cloud Storage bucket for chat transcripts (disabled if empty)",
			Sources:     cli.EnvVars("SIDEKICK_TRANSCRIPT_BUCKET"),
			Destination: &cfg.bucket,
		},
		&cli.StringFlag{
			Name:        "transcript-prefix",
			Usage:       "Object prefix for chat transcripts",
			Sources:     cli.EnvVars("SIDEKICK_TRANSCRIPT_PREFIX"),
			Destination: &cfg.prefix,
		},
	}
}

// policyFlags returns flags for the tool call policy
func policyFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "policy-dir",
			Usage:       "Directory of Rego files with data.dispatch.deny rules (disabled if empty)",
			Sources:     cli.EnvVars("SIDEKICK_POLICY_DIR"),
			Destination: &cfg.policyDir,
		},
	}
}

// setupLogger replaces the default logger according to --log-level and
// --log-format
func (cfg *config) setupLogger() error {
	level, err := logging.ParseLevel(cfg.logLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(cfg.logFormat)
	if err != nil {
		return err
	}

	logging.SetDefault(logging.New(os.Stderr, level, format))
	return nil
}

// newRepository creates a new repository instance
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	switch cfg.backend {
	case backendFirestore:
		if cfg.project == "" {
			return nil, goerr.New("project is required")
		}
		if cfg.database == "" {
			return nil, goerr.New("database is required")
		}
		repo, err := repository.NewFirestore(ctx, cfg.project, cfg.database)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create repository")
		}
		return repo, nil

	case backendSQLite:
		if cfg.sqlitePath == "" {
			return nil, goerr.New("sqlite-path is required")
		}
		repo, err := repository.NewSQLite(ctx, cfg.sqlitePath)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create repository")
		}
		return repo, nil

	default:
		return nil, goerr.New("unknown backend", goerr.V("backend", cfg.backend))
	}
}

// newLLM creates the language model adapter of the selected provider
func (cfg *config) newLLM(ctx context.Context) (adapter.LLM, error) {
	switch cfg.provider {
	case providerGemini:
		if cfg.geminiProject == "" {
			return nil, goerr.New("gemini-project is required")
		}
		if cfg.geminiLocation == "" {
			return nil, goerr.New("gemini-location is required")
		}
		gemini, err := adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation,
			adapter.WithGenerativeModel(cfg.geminiModel))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create gemini client")
		}
		return gemini, nil

	case providerClaude:
		if cfg.anthropicAPIKey == "" {
			return nil, goerr.New("anthropic-api-key is required")
		}
		return adapter.NewClaude(cfg.anthropicAPIKey, adapter.WithClaudeModel(cfg.anthropicModel)), nil

	default:
		return nil, goerr.New("unknown llm provider", goerr.V("llm", cfg.provider))
	}
}

// newStorage creates the transcript archive. It returns nil when no bucket
// is configured.
func (cfg *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if cfg.bucket == "" {
		return nil, nil
	}

	storage, err := adapter.NewStorage(ctx, cfg.bucket, cfg.prefix)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage")
	}
	return storage, nil
}

// newRegistry builds the CRM tool catalog over repo, guarded by the Rego
// policy when one is configured
func (cfg *config) newRegistry(ctx context.Context, repo repository.Repository) (*tool.Registry, error) {
	registry, err := crm.NewRegistry(usecase.New(repo, usecase.WithClock(time.Now)))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build tool catalog")
	}

	if cfg.policyDir != "" {
		p, err := policy.Load(ctx, cfg.policyDir)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load policy", goerr.V("dir", cfg.policyDir))
		}
		if p == nil {
			logging.From(ctx).Warn("no policy files found", "dir", cfg.policyDir)
		} else {
			registry.SetGuard(p)
		}
	}

	return registry, nil
}

// validateAgent checks the agent loop flags before any client is created
func (cfg *config) validateAgent() error {
	if cfg.maxIterations < 1 {
		return goerr.New("max-iterations must be at least 1", goerr.V("max_iterations", cfg.maxIterations))
	}
	if cfg.historyLimit < 0 {
		return goerr.New("history-limit must not be negative", goerr.V("history_limit", cfg.historyLimit))
	}
	return nil
}

// newAgent wires the agent loop with the configured model and archive
func (cfg *config) newAgent(ctx context.Context, registry *tool.Registry) (*chat.Agent, error) {
	if err := cfg.validateAgent(); err != nil {
		return nil, err
	}

	llm, err := cfg.newLLM(ctx)
	if err != nil {
		return nil, err
	}

	storage, err := cfg.newStorage(ctx)
	if err != nil {
		return nil, err
	}

	opts := []chat.Option{
		chat.WithBusinessName(cfg.businessName),
		chat.WithMaxIterations(int(cfg.maxIterations)),
		chat.WithHistoryLimit(int(cfg.historyLimit)),
	}
	if storage != nil {
		opts = append(opts, chat.WithStorage(storage))
	}

	return chat.New(llm, registry, opts...), nil
}
