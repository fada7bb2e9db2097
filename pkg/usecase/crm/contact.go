package crm

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sidekick/pkg/model"
)

// SearchOrCreateContact resolves a contact by session memory, email and
// then name before creating a new one.
func (uc *UseCase) SearchOrCreateContact(ctx context.Context, actx *model.AgentContext, input *ContactInput) (*ContactResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	if id, ok := actx.LookupContact(input.FirstName, input.LastName); ok {
		return &ContactResult{
			ID:        id,
			FirstName: input.FirstName,
			LastName:  input.LastName,
			CompanyID: input.CompanyID,
			Created:   false,
		}, nil
	}

	companyID := input.CompanyID
	if companyID == 0 && input.CompanyName != "" {
		resolved, err := uc.lookupCompanyID(ctx, actx, input.CompanyName)
		if err != nil {
			return nil, err
		}
		companyID = resolved
	}

	found, err := uc.findContact(ctx, input, companyID)
	if err != nil {
		return nil, err
	}
	if found != nil {
		actx.RememberContact(input.FirstName, input.LastName, found.ID)
		return &ContactResult{
			ID:        found.ID,
			FirstName: found.FirstName,
			LastName:  found.LastName,
			CompanyID: found.CompanyID,
			Created:   false,
		}, nil
	}

	now := uc.now()
	contact := &model.Contact{
		FirstName:       input.FirstName,
		LastName:        input.LastName,
		CompanyID:       companyID,
		Title:           input.Title,
		Emails:          []model.EmailEntry{},
		Phones:          []model.PhoneEntry{},
		Tags:            []string{},
		PatientType:     input.PatientType,
		ReferringDoctor: input.ReferringDoctor,
		SalesID:         actx.SalesID,
		FirstSeen:       now,
		LastSeen:        now,
	}
	if input.Email != "" {
		contact.Emails = append(contact.Emails, model.EmailEntry{Email: input.Email, Type: model.ContactInfoTypeWork})
	}
	if input.Phone != "" {
		contact.Phones = append(contact.Phones, model.PhoneEntry{Number: input.Phone, Type: model.ContactInfoTypeWork})
	}

	created, err := uc.repo.InsertContact(ctx, contact)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create contact",
			goerr.V("first_name", input.FirstName), goerr.V("last_name", input.LastName))
	}

	actx.RememberContact(input.FirstName, input.LastName, created.ID)
	return &ContactResult{
		ID:        created.ID,
		FirstName: created.FirstName,
		LastName:  created.LastName,
		CompanyID: created.CompanyID,
		Created:   true,
	}, nil
}

// lookupCompanyID returns zero when the company cannot be resolved
func (uc *UseCase) lookupCompanyID(ctx context.Context, actx *model.AgentContext, name string) (model.CompanyID, error) {
	if id, ok := actx.LookupCompany(name); ok {
		return id, nil
	}

	companies, err := uc.repo.SearchCompanies(ctx, name, companyNameLookupLimit)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to look up company", goerr.V("company_name", name))
	}
	if len(companies) == 0 {
		return 0, nil
	}
	return companies[0].ID, nil
}

func (uc *UseCase) findContact(ctx context.Context, input *ContactInput, companyID model.CompanyID) (*model.Contact, error) {
	if input.Email != "" {
		contact, err := uc.repo.FindContactByEmail(ctx, input.Email)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to find contact by email", goerr.V("email", input.Email))
		}
		if contact != nil {
			return contact, nil
		}
	}

	contacts, err := uc.repo.SearchContactsByName(ctx, input.FirstName, input.LastName, contactSearchLimit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search contacts",
			goerr.V("first_name", input.FirstName), goerr.V("last_name", input.LastName))
	}
	if len(contacts) == 0 {
		return nil, nil
	}

	if companyID != 0 {
		for _, c := range contacts {
			if c.CompanyID == companyID {
				return c, nil
			}
		}
	}
	return contacts[0], nil
}
