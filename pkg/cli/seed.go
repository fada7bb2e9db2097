package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sidekick/pkg/model"
	"github.com/m-mizutani/sidekick/pkg/repository"
	"github.com/m-mizutani/sidekick/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// seedData is the YAML document accepted by the seed command
type seedData struct {
	Pipelines []*model.Pipeline `yaml:"pipelines"`
	Sales     []*model.Sales    `yaml:"sales"`
}

func loadSeed(r io.Reader) (*seedData, error) {
	var data seedData
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&data); err != nil && err != io.EOF {
		return nil, goerr.Wrap(err, "failed to decode seed file")
	}

	defaults := 0
	for _, p := range data.Pipelines {
		if p.ID <= 0 {
			return nil, goerr.New("pipeline id must be positive", goerr.V("name", p.Name))
		}
		if p.Name == "" {
			return nil, goerr.New("pipeline name is required", goerr.V("id", p.ID))
		}
		if len(p.Stages) == 0 {
			return nil, goerr.New("pipeline has no stages", goerr.V("id", p.ID))
		}
		for _, s := range p.Stages {
			if s.Value == "" {
				return nil, goerr.New("stage value is required", goerr.V("pipeline", p.ID))
			}
			if s.Label == "" {
				s.Label = s.Value
			}
		}
		if p.IsDefault {
			defaults++
		}
	}
	if defaults > 1 {
		return nil, goerr.New("only one pipeline can be the default", goerr.V("count", defaults))
	}

	for _, s := range data.Sales {
		if s.ID <= 0 || s.UserID == "" {
			return nil, goerr.New("sales entry requires id and user_id", goerr.V("id", s.ID))
		}
	}

	return &data, nil
}

func applySeed(ctx context.Context, repo repository.Repository, data *seedData) error {
	for _, p := range data.Pipelines {
		if err := repo.PutPipeline(ctx, p); err != nil {
			return goerr.Wrap(err, "failed to put pipeline", goerr.V("id", p.ID))
		}
	}
	for _, s := range data.Sales {
		if err := repo.PutSales(ctx, s); err != nil {
			return goerr.Wrap(err, "failed to put sales", goerr.V("id", s.ID))
		}
	}
	return nil
}

func seedCommand() *cli.Command {
	var (
		cfg  config
		file string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "file",
			Aliases:     []string{"f"},
			Usage:       "YAML file with pipelines and sales users",
			Destination: &file,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, repositoryFlags(&cfg)...)

	return &cli.Command{
		Name:  "seed",
		Usage: "Register pipelines and sales users",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.setupLogger(); err != nil {
				return err
			}

			f, err := os.Open(file)
			if err != nil {
				return goerr.Wrap(err, "failed to open seed file", goerr.V("file", file))
			}
			defer f.Close()

			data, err := loadSeed(f)
			if err != nil {
				return goerr.Wrap(err, "invalid seed file", goerr.V("file", file))
			}

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := applySeed(ctx, repo, data); err != nil {
				return err
			}

			logging.From(ctx).Info("seeded", "pipelines", len(data.Pipelines), "sales", len(data.Sales))
			fmt.Fprintf(c.Root().Writer, "Seeded %d pipelines and %d sales users\n", len(data.Pipelines), len(data.Sales))
			return nil
		},
	}
}
