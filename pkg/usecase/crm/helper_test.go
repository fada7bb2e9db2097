package crm_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sidekick/pkg/model"
	"github.com/m-mizutani/sidekick/pkg/repository"
)

var fixedNow = time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time {
	return fixedNow
}

func newSQLite(t *testing.T) *repository.SQLite {
	t.Helper()
	repo, err := repository.NewSQLite(context.Background(), filepath.Join(t.TempDir(), "crm.db"))
	gt.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

// mockRepository fails the test on any call that is not overridden
type mockRepository struct {
	repository.Repository
	t *testing.T

	searchCompaniesFunc      func(ctx context.Context, name string, limit int) ([]*model.Company, error)
	insertCompanyFunc        func(ctx context.Context, company *model.Company) (*model.Company, error)
	findContactByEmailFunc   func(ctx context.Context, email string) (*model.Contact, error)
	searchContactsByNameFunc func(ctx context.Context, firstName, lastName string, limit int) ([]*model.Contact, error)
	insertContactFunc        func(ctx context.Context, contact *model.Contact) (*model.Contact, error)
	touchContactFunc         func(ctx context.Context, id model.ContactID, at time.Time) error
	insertTaskFunc           func(ctx context.Context, task *model.Task) (*model.Task, error)
	insertContactNoteFunc    func(ctx context.Context, note *model.ContactNote) (*model.ContactNote, error)
	insertDealNoteFunc       func(ctx context.Context, note *model.DealNote) (*model.DealNote, error)
}

func (m *mockRepository) unexpected(name string) {
	m.t.Helper()
	m.t.Fatalf("unexpected repository call: %s", name)
}

func (m *mockRepository) SearchCompanies(ctx context.Context, name string, limit int) ([]*model.Company, error) {
	if m.searchCompaniesFunc == nil {
		m.unexpected("SearchCompanies")
	}
	return m.searchCompaniesFunc(ctx, name, limit)
}

func (m *mockRepository) InsertCompany(ctx context.Context, company *model.Company) (*model.Company, error) {
	if m.insertCompanyFunc == nil {
		m.unexpected("InsertCompany")
	}
	return m.insertCompanyFunc(ctx, company)
}

func (m *mockRepository) FindContactByEmail(ctx context.Context, email string) (*model.Contact, error) {
	if m.findContactByEmailFunc == nil {
		m.unexpected("FindContactByEmail")
	}
	return m.findContactByEmailFunc(ctx, email)
}

func (m *mockRepository) SearchContactsByName(ctx context.Context, firstName, lastName string, limit int) ([]*model.Contact, error) {
	if m.searchContactsByNameFunc == nil {
		m.unexpected("SearchContactsByName")
	}
	return m.searchContactsByNameFunc(ctx, firstName, lastName, limit)
}

func (m *mockRepository) InsertContact(ctx context.Context, contact *model.Contact) (*model.Contact, error) {
	if m.insertContactFunc == nil {
		m.unexpected("InsertContact")
	}
	return m.insertContactFunc(ctx, contact)
}

func (m *mockRepository) TouchContact(ctx context.Context, id model.ContactID, at time.Time) error {
	if m.touchContactFunc == nil {
		m.unexpected("TouchContact")
	}
	return m.touchContactFunc(ctx, id, at)
}

func (m *mockRepository) InsertTask(ctx context.Context, task *model.Task) (*model.Task, error) {
	if m.insertTaskFunc == nil {
		m.unexpected("InsertTask")
	}
	return m.insertTaskFunc(ctx, task)
}

func (m *mockRepository) InsertContactNote(ctx context.Context, note *model.ContactNote) (*model.ContactNote, error) {
	if m.insertContactNoteFunc == nil {
		m.unexpected("InsertContactNote")
	}
	return m.insertContactNoteFunc(ctx, note)
}

func (m *mockRepository) InsertDealNote(ctx context.Context, note *model.DealNote) (*model.DealNote, error) {
	if m.insertDealNoteFunc == nil {
		m.unexpected("InsertDealNote")
	}
	return m.insertDealNoteFunc(ctx, note)
}
