package crm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sidekick/pkg/model"
	"github.com/m-mizutani/sidekick/pkg/usecase/crm"
)

func TestSearchOrCreateCompanyIsIdempotentWithinTurn(t *testing.T) {
	ctx := context.Background()
	var searches, inserts int
	repo := &mockRepository{
		t: t,
		searchCompaniesFunc: func(ctx context.Context, name string, limit int) ([]*model.Company, error) {
			searches++
			gt.Equal(t, limit, 5)
			return nil, nil
		},
		insertCompanyFunc: func(ctx context.Context, company *model.Company) (*model.Company, error) {
			inserts++
			gt.Equal(t, company.SalesID, model.SalesID(3))
			gt.True(t, company.CreatedAt.Equal(fixedNow))
			created := *company
			created.ID = 42
			return &created, nil
		},
	}
	uc := crm.New(repo, crm.WithClock(fixedClock))
	actx := model.NewAgentContext(3, 0)

	first, err := uc.SearchOrCreateCompany(ctx, actx, &crm.CompanyInput{Name: "Acme"})
	gt.NoError(t, err)
	gt.Equal(t, first.ID, model.CompanyID(42))
	gt.True(t, first.Created)

	second, err := uc.SearchOrCreateCompany(ctx, actx, &crm.CompanyInput{Name: "ACME"})
	gt.NoError(t, err)
	gt.Equal(t, second.ID, model.CompanyID(42))
	gt.False(t, second.Created)

	gt.Equal(t, searches, 1)
	gt.Equal(t, inserts, 1)
}

func TestSearchOrCreateCompanyPrefersExactMatch(t *testing.T) {
	ctx := context.Background()
	repo := &mockRepository{
		t: t,
		searchCompaniesFunc: func(ctx context.Context, name string, limit int) ([]*model.Company, error) {
			return []*model.Company{
				{ID: 1, Name: "Acme Corp Holdings"},
				{ID: 2, Name: "Acme Corp"},
			}, nil
		},
	}
	uc := crm.New(repo)
	actx := model.NewAgentContext(1, 0)

	got, err := uc.SearchOrCreateCompany(ctx, actx, &crm.CompanyInput{Name: "acme corp"})
	gt.NoError(t, err)
	gt.Equal(t, got.ID, model.CompanyID(2))
	gt.Equal(t, got.Name, "Acme Corp")
	gt.False(t, got.Created)

	id, ok := actx.LookupCompany("Acme Corp")
	gt.True(t, ok)
	gt.Equal(t, id, model.CompanyID(2))
}

func TestSearchOrCreateCompanyCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	repo := newSQLite(t)
	uc := crm.New(repo, crm.WithClock(fixedClock))

	stored, err := uc.SearchOrCreateCompany(ctx, model.NewAgentContext(1, 0), &crm.CompanyInput{
		Name:         "Acme Corp",
		BusinessType: model.BusinessTypeSupplier,
	})
	gt.NoError(t, err)
	gt.True(t, stored.Created)

	t.Run("exact match ignoring case", func(t *testing.T) {
		got, err := uc.SearchOrCreateCompany(ctx, model.NewAgentContext(1, 0), &crm.CompanyInput{Name: "acme corp"})
		gt.NoError(t, err)
		gt.Equal(t, got.ID, stored.ID)
		gt.Equal(t, got.Name, "Acme Corp")
		gt.False(t, got.Created)
	})

	t.Run("substring fallback", func(t *testing.T) {
		got, err := uc.SearchOrCreateCompany(ctx, model.NewAgentContext(1, 0), &crm.CompanyInput{Name: "acme"})
		gt.NoError(t, err)
		gt.Equal(t, got.ID, stored.ID)
		gt.False(t, got.Created)
	})

	t.Run("stored attributes", func(t *testing.T) {
		c, err := repo.GetCompany(ctx, stored.ID)
		gt.NoError(t, err)
		gt.Equal(t, c.BusinessType, model.BusinessTypeSupplier)
		gt.Equal(t, c.SalesID, model.SalesID(1))
	})
}

func TestSearchOrCreateCompanyErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("datastore error is returned", func(t *testing.T) {
		boom := errors.New("connection reset")
		repo := &mockRepository{
			t: t,
			searchCompaniesFunc: func(ctx context.Context, name string, limit int) ([]*model.Company, error) {
				return nil, boom
			},
		}
		_, err := crm.New(repo).SearchOrCreateCompany(ctx, model.NewAgentContext(1, 0), &crm.CompanyInput{Name: "Acme"})
		gt.Error(t, err)
		gt.True(t, errors.Is(err, boom))
		gt.S(t, err.Error()).Contains("connection reset")
	})

	t.Run("invalid business type is rejected before search", func(t *testing.T) {
		repo := &mockRepository{t: t}
		_, err := crm.New(repo).SearchOrCreateCompany(ctx, model.NewAgentContext(1, 0), &crm.CompanyInput{
			Name:         "Acme",
			BusinessType: "competitor",
		})
		gt.True(t, errors.Is(err, model.ErrInvalidBusinessType))
	})

	t.Run("missing name", func(t *testing.T) {
		repo := &mockRepository{t: t}
		_, err := crm.New(repo).SearchOrCreateCompany(ctx, model.NewAgentContext(1, 0), &crm.CompanyInput{})
		gt.True(t, errors.Is(err, crm.ErrInvalidInput))
	})
}
