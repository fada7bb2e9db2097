package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sidekick/pkg/model"
	"github.com/m-mizutani/sidekick/pkg/repository"
)

func setupSQLite(t *testing.T) *repository.SQLite {
	t.Helper()
	repo, err := repository.NewSQLite(context.Background(), filepath.Join(t.TempDir(), "crm.db"))
	gt.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLite(t *testing.T) {
	testRepository(t, setupSQLite(t))
}

func TestSQLiteSearchCompaniesEscapesWildcards(t *testing.T) {
	repo := setupSQLite(t)
	ctx := context.Background()

	_, err := repo.InsertCompany(ctx, &model.Company{Name: "100% Orthotics", SalesID: 1, CreatedAt: time.Now()})
	gt.NoError(t, err)
	_, err = repo.InsertCompany(ctx, &model.Company{Name: "1000 Prosthetics", SalesID: 1, CreatedAt: time.Now()})
	gt.NoError(t, err)

	companies, err := repo.SearchCompanies(ctx, "100%", 5)
	gt.NoError(t, err)
	gt.A(t, companies).Length(1)
	gt.Equal(t, companies[0].Name, "100% Orthotics")
}

func TestSQLiteConcurrentDealPositions(t *testing.T) {
	repo := setupSQLite(t)
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	positions := make([]int64, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			deal, err := repo.InsertDeal(ctx, &model.Deal{
				Name:       "deal",
				Amount:     1,
				Stage:      "opportunity",
				PipelineID: 1,
				SalesID:    1,
				CreatedAt:  time.Now(),
				UpdatedAt:  time.Now(),
			})
			errs[i] = err
			if err == nil {
				positions[i] = deal.Position
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool)
	for i := 0; i < n; i++ {
		gt.NoError(t, errs[i])
		gt.False(t, seen[positions[i]])
		seen[positions[i]] = true
	}
	for p := int64(0); p < n; p++ {
		gt.True(t, seen[p])
	}
}

// testRepository runs the behavior shared by all Repository implementations
func testRepository(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	t.Run("company search is case-insensitive substring", func(t *testing.T) {
		suffix := time.Now().Format("150405.000000")
		created, err := repo.InsertCompany(ctx, &model.Company{
			Name:         "Acme Corp " + suffix,
			BusinessType: model.BusinessTypeSupplier,
			SalesID:      7,
			CreatedAt:    now,
		})
		gt.NoError(t, err)
		gt.NotEqual(t, created.ID, model.CompanyID(0))

		found, err := repo.SearchCompanies(ctx, "acme corp "+suffix, 5)
		gt.NoError(t, err)
		gt.A(t, found).Length(1)
		gt.Equal(t, found[0].ID, created.ID)
		gt.Equal(t, found[0].BusinessType, model.BusinessTypeSupplier)

		found, err = repo.SearchCompanies(ctx, "CORP "+suffix, 5)
		gt.NoError(t, err)
		gt.A(t, found).Length(1)

		got, err := repo.GetCompany(ctx, created.ID)
		gt.NoError(t, err)
		gt.Equal(t, got.Name, created.Name)
		gt.True(t, got.CreatedAt.Equal(now))
	})

	t.Run("search folds non-ASCII case", func(t *testing.T) {
		suffix := time.Now().Format("150405.000000")
		company, err := repo.InsertCompany(ctx, &model.Company{
			Name:      "Ölmann Orthopädie " + suffix,
			SalesID:   7,
			CreatedAt: now,
		})
		gt.NoError(t, err)

		found, err := repo.SearchCompanies(ctx, "ölmann ORTHOPÄDIE "+suffix, 5)
		gt.NoError(t, err)
		gt.A(t, found).Length(1)
		gt.Equal(t, found[0].ID, company.ID)

		contact, err := repo.InsertContact(ctx, &model.Contact{
			FirstName: "José",
			LastName:  "Müller" + suffix,
			SalesID:   7,
			FirstSeen: now,
			LastSeen:  now,
		})
		gt.NoError(t, err)

		contacts, err := repo.SearchContactsByName(ctx, "JOSÉ", "MÜLLER"+suffix, 5)
		gt.NoError(t, err)
		gt.A(t, contacts).Length(1)
		gt.Equal(t, contacts[0].ID, contact.ID)
	})

	t.Run("missing company is ErrNotFound", func(t *testing.T) {
		_, err := repo.GetCompany(ctx, model.CompanyID(999999999))
		gt.True(t, errors.Is(err, repository.ErrNotFound))
	})

	t.Run("contact lookup by email and by name", func(t *testing.T) {
		email := "sarah-" + time.Now().Format("150405.000000") + "@midwestortho.com"
		contact, err := repo.InsertContact(ctx, &model.Contact{
			FirstName: "Sarah",
			LastName:  "Chen",
			CompanyID: 3,
			Emails:    []model.EmailEntry{{Email: email, Type: model.ContactInfoTypeWork}},
			Phones:    []model.PhoneEntry{{Number: "555-0100", Type: model.ContactInfoTypeWork}},
			SalesID:   7,
			FirstSeen: now,
			LastSeen:  now,
		})
		gt.NoError(t, err)

		byEmail, err := repo.FindContactByEmail(ctx, email)
		gt.NoError(t, err)
		gt.V(t, byEmail).NotNil()
		gt.Equal(t, byEmail.ID, contact.ID)
		gt.A(t, byEmail.Emails).Length(1)
		gt.Equal(t, byEmail.Emails[0].Type, "Work")

		none, err := repo.FindContactByEmail(ctx, "nobody-"+email)
		gt.NoError(t, err)
		gt.Nil(t, none)

		byName, err := repo.SearchContactsByName(ctx, "sarah", "CHEN", 5)
		gt.NoError(t, err)
		gt.A(t, byName).Longer(0)

		later := now.Add(time.Hour)
		gt.NoError(t, repo.TouchContact(ctx, contact.ID, later))
		got, err := repo.GetContact(ctx, contact.ID)
		gt.NoError(t, err)
		gt.True(t, got.LastSeen.Equal(later))
		gt.True(t, got.FirstSeen.Equal(now))
		gt.Equal(t, got.CompanyID, model.CompanyID(3))
	})

	t.Run("touching missing contact fails", func(t *testing.T) {
		err := repo.TouchContact(ctx, model.ContactID(999999999), now)
		gt.True(t, errors.Is(err, repository.ErrNotFound))
	})

	t.Run("pipelines", func(t *testing.T) {
		gt.NoError(t, repo.PutPipeline(ctx, &model.Pipeline{
			ID:       901,
			Name:     "Referrals",
			Position: 2,
			Stages: []*model.Stage{
				{Value: "won", Label: "Won", Position: 2},
				{Value: "lead", Label: "Lead", Position: 0},
			},
		}))
		gt.NoError(t, repo.PutPipeline(ctx, &model.Pipeline{
			ID:        902,
			Name:      "Franchise",
			IsDefault: true,
			Position:  1,
		}))

		def, err := repo.GetDefaultPipeline(ctx)
		gt.NoError(t, err)
		gt.V(t, def).NotNil()
		gt.Equal(t, def.ID, model.PipelineID(902))

		p, err := repo.GetPipeline(ctx, 901)
		gt.NoError(t, err)
		gt.A(t, p.Stages).Length(2)
		gt.Equal(t, p.Stages[0].Value, "lead")
	})

	t.Run("deal positions increase within a stage", func(t *testing.T) {
		stage := "stage-" + time.Now().Format("150405.000000")
		var positions []int64
		for i := 0; i < 3; i++ {
			deal, err := repo.InsertDeal(ctx, &model.Deal{
				Name:       "Franchise Opportunity",
				Amount:     75000,
				ContactIDs: []model.ContactID{1, 2},
				Stage:      stage,
				PipelineID: 77,
				SalesID:    7,
				CreatedAt:  now,
				UpdatedAt:  now,
			})
			gt.NoError(t, err)
			positions = append(positions, deal.Position)
		}
		gt.Equal(t, positions, []int64{0, 1, 2})

		other, err := repo.InsertDeal(ctx, &model.Deal{
			Name:       "Other",
			Amount:     1,
			Stage:      stage + "-other",
			PipelineID: 77,
			SalesID:    7,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		gt.NoError(t, err)
		gt.Equal(t, other.Position, int64(0))

		got, err := repo.GetDeal(ctx, other.ID)
		gt.NoError(t, err)
		gt.Equal(t, got.Stage, stage+"-other")
	})

	t.Run("tasks and notes", func(t *testing.T) {
		task, err := repo.InsertTask(ctx, &model.Task{
			ContactID: 1,
			Type:      "Follow-up call",
			Text:      "Discuss pricing",
			DueDate:   "2024-01-15",
			SalesID:   7,
		})
		gt.NoError(t, err)
		gt.NotEqual(t, task.ID, model.TaskID(0))
		gt.Nil(t, task.DoneDate)

		cn, err := repo.InsertContactNote(ctx, &model.ContactNote{ContactID: 1, Text: "met", Status: "warm", Date: now, SalesID: 7})
		gt.NoError(t, err)
		gt.NotEqual(t, cn.ID, model.NoteID(0))

		dn, err := repo.InsertDealNote(ctx, &model.DealNote{DealID: 1, Text: "met", Date: now, SalesID: 7})
		gt.NoError(t, err)
		gt.NotEqual(t, dn.ID, model.NoteID(0))
	})

	t.Run("sales by user id", func(t *testing.T) {
		userID := "user-" + time.Now().Format("150405.000000")
		gt.NoError(t, repo.PutSales(ctx, &model.Sales{ID: 4242, UserID: userID, FirstName: "Jane"}))

		s, err := repo.GetSalesByUserID(ctx, userID)
		gt.NoError(t, err)
		gt.V(t, s).NotNil()
		gt.Equal(t, s.ID, model.SalesID(4242))

		missing, err := repo.GetSalesByUserID(ctx, "unknown-"+userID)
		gt.NoError(t, err)
		gt.Nil(t, missing)
	})
}
