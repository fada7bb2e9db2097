package crm

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sidekick/pkg/model"
)

// CreateTask inserts an open task and marks the contact as seen now
func (uc *UseCase) CreateTask(ctx context.Context, actx *model.AgentContext, input *TaskInput) (*TaskResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	created, err := uc.repo.InsertTask(ctx, &model.Task{
		ContactID: input.ContactID,
		Type:      input.Type,
		Text:      input.Text,
		DueDate:   input.DueDate,
		DoneDate:  nil,
		SalesID:   actx.SalesID,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create task", goerr.V("contact_id", input.ContactID))
	}

	if err := uc.repo.TouchContact(ctx, input.ContactID, uc.now()); err != nil {
		return nil, goerr.Wrap(err, "failed to update contact last seen", goerr.V("contact_id", input.ContactID))
	}

	return &TaskResult{
		ID:      created.ID,
		Text:    created.Text,
		DueDate: created.DueDate,
	}, nil
}
