package crm

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sidekick/pkg/model"
)

// SearchOrCreateCompany returns the company matching input.Name, creating it
// when neither session memory nor the datastore knows it.
func (uc *UseCase) SearchOrCreateCompany(ctx context.Context, actx *model.AgentContext, input *CompanyInput) (*CompanyResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	if id, ok := actx.LookupCompany(input.Name); ok {
		return &CompanyResult{ID: id, Name: input.Name, Created: false}, nil
	}

	companies, err := uc.repo.SearchCompanies(ctx, input.Name, companySearchLimit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search companies", goerr.V("name", input.Name))
	}

	if len(companies) > 0 {
		match := companies[0]
		for _, c := range companies {
			if strings.EqualFold(c.Name, input.Name) {
				match = c
				break
			}
		}

		actx.RememberCompany(input.Name, match.ID)
		return &CompanyResult{ID: match.ID, Name: match.Name, Created: false}, nil
	}

	created, err := uc.repo.InsertCompany(ctx, &model.Company{
		Name:         input.Name,
		Website:      input.Website,
		PhoneNumber:  input.Phone,
		Address:      input.Address,
		Sector:       input.Sector,
		BusinessType: input.BusinessType,
		SalesID:      actx.SalesID,
		CreatedAt:    uc.now(),
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create company", goerr.V("name", input.Name))
	}

	actx.RememberCompany(input.Name, created.ID)
	return &CompanyResult{ID: created.ID, Name: created.Name, Created: true}, nil
}
