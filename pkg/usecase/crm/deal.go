package crm

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sidekick/pkg/model"
	"github.com/m-mizutani/sidekick/pkg/repository"
)

// CreateDeal inserts a deal at the end of its stage. The pipeline is the
// request's board, else the default pipeline, else the first one.
func (uc *UseCase) CreateDeal(ctx context.Context, actx *model.AgentContext, input *DealInput) (*DealResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	pipeline, err := uc.targetPipeline(ctx, actx)
	if err != nil {
		return nil, err
	}

	stage := input.Stage
	if stage == "" {
		stage = firstStage(pipeline)
	}

	contactIDs := input.ContactIDs
	if contactIDs == nil {
		contactIDs = []model.ContactID{}
	}

	now := uc.now()
	deal := &model.Deal{
		Name:                input.Name,
		CompanyID:           input.CompanyID,
		ContactIDs:          contactIDs,
		Amount:              input.Amount,
		Stage:               stage,
		Description:         input.Description,
		Category:            input.Category,
		ExpectedClosingDate: input.ExpectedClosingDate,
		SalesID:             actx.SalesID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if pipeline != nil {
		deal.PipelineID = pipeline.ID
	}

	created, err := uc.repo.InsertDeal(ctx, deal)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create deal", goerr.V("name", input.Name))
	}

	return &DealResult{
		ID:     created.ID,
		Name:   created.Name,
		Amount: created.Amount,
		Stage:  created.Stage,
	}, nil
}

// targetPipeline returns nil when no pipeline is configured at all
func (uc *UseCase) targetPipeline(ctx context.Context, actx *model.AgentContext) (*model.Pipeline, error) {
	if actx.PipelineID != 0 {
		pipeline, err := uc.repo.GetPipeline(ctx, actx.PipelineID)
		if errors.Is(err, repository.ErrNotFound) {
			return &model.Pipeline{ID: actx.PipelineID}, nil
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get pipeline", goerr.V("pipeline_id", actx.PipelineID))
		}
		return pipeline, nil
	}

	pipeline, err := uc.repo.GetDefaultPipeline(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get default pipeline")
	}
	if pipeline != nil {
		return pipeline, nil
	}

	pipeline, err = uc.repo.GetFirstPipeline(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get first pipeline")
	}
	return pipeline, nil
}

func firstStage(pipeline *model.Pipeline) string {
	if pipeline == nil || len(pipeline.Stages) == 0 {
		return model.DefaultStage
	}

	first := pipeline.Stages[0]
	for _, s := range pipeline.Stages[1:] {
		if s.Position < first.Position {
			first = s
		}
	}
	return first.Value
}
