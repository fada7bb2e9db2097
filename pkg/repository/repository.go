package repository

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sidekick/pkg/model"
)

var ErrNotFound = goerr.New("record not found")

// Repository is the datastore used by the CRM operations. Name searches are
// case-insensitive. Implementations must be safe for concurrent use.
type Repository interface {
	// SearchCompanies returns companies whose name contains name
	SearchCompanies(ctx context.Context, name string, limit int) ([]*model.Company, error)
	InsertCompany(ctx context.Context, company *model.Company) (*model.Company, error)
	GetCompany(ctx context.Context, id model.CompanyID) (*model.Company, error)

	// FindContactByEmail returns nil without error when no contact has the address
	FindContactByEmail(ctx context.Context, email string) (*model.Contact, error)
	// SearchContactsByName matches first and last name exactly, ignoring case
	SearchContactsByName(ctx context.Context, firstName, lastName string, limit int) ([]*model.Contact, error)
	InsertContact(ctx context.Context, contact *model.Contact) (*model.Contact, error)
	GetContact(ctx context.Context, id model.ContactID) (*model.Contact, error)
	TouchContact(ctx context.Context, id model.ContactID, at time.Time) error

	// GetDefaultPipeline and GetFirstPipeline return nil when nothing matches
	GetDefaultPipeline(ctx context.Context) (*model.Pipeline, error)
	GetFirstPipeline(ctx context.Context) (*model.Pipeline, error)
	GetPipeline(ctx context.Context, id model.PipelineID) (*model.Pipeline, error)
	PutPipeline(ctx context.Context, pipeline *model.Pipeline) error

	// InsertDeal assigns Position as one past the largest position in the
	// deal's (pipeline, stage) within the same write.
	InsertDeal(ctx context.Context, deal *model.Deal) (*model.Deal, error)
	GetDeal(ctx context.Context, id model.DealID) (*model.Deal, error)

	InsertTask(ctx context.Context, task *model.Task) (*model.Task, error)
	InsertContactNote(ctx context.Context, note *model.ContactNote) (*model.ContactNote, error)
	InsertDealNote(ctx context.Context, note *model.DealNote) (*model.DealNote, error)

	GetSalesByUserID(ctx context.Context, userID string) (*model.Sales, error)
	PutSales(ctx context.Context, sales *model.Sales) error

	Close() error
}
