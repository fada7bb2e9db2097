package crm

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sidekick/pkg/model"
)

// CreateNote attaches a note to either a contact or a deal. Contact notes
// also mark the contact as seen now.
func (uc *UseCase) CreateNote(ctx context.Context, actx *model.AgentContext, input *NoteInput) (*NoteResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := uc.now()

	if input.ContactID != 0 {
		note, err := uc.repo.InsertContactNote(ctx, &model.ContactNote{
			ContactID: input.ContactID,
			Text:      input.Text,
			Date:      now,
			Status:    input.Status,
			SalesID:   actx.SalesID,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create contact note", goerr.V("contact_id", input.ContactID))
		}

		if err := uc.repo.TouchContact(ctx, input.ContactID, now); err != nil {
			return nil, goerr.Wrap(err, "failed to update contact last seen", goerr.V("contact_id", input.ContactID))
		}

		return &NoteResult{ID: note.ID, Text: note.Text, ContactID: note.ContactID}, nil
	}

	note, err := uc.repo.InsertDealNote(ctx, &model.DealNote{
		DealID:  input.DealID,
		Text:    input.Text,
		Date:    now,
		SalesID: actx.SalesID,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create deal note", goerr.V("deal_id", input.DealID))
	}

	return &NoteResult{ID: note.ID, Text: note.Text, DealID: note.DealID}, nil
}
