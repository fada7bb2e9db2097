package crm

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sidekick/pkg/model"
)

var (
	ErrInvalidInput        = goerr.New("invalid input")
	ErrNoteTargetRequired  = goerr.New("Either contact_id or deal_id must be provided")
	ErrNoteTargetAmbiguous = goerr.New("Only one of contact_id or deal_id may be provided")
)

func required(field, value string) error {
	if value == "" {
		return goerr.Wrap(ErrInvalidInput, field+" is required", goerr.V("field", field))
	}
	return nil
}

type CompanyInput struct {
	Name         string             `json:"name" jsonschema:"Company name (e.g., 'Midwest Orthotics', 'Acme Corp')"`
	Website      string             `json:"website,omitempty" jsonschema:"Company website URL (optional)"`
	Phone        string             `json:"phone,omitempty" jsonschema:"Company phone number (optional)"`
	Address      string             `json:"address,omitempty" jsonschema:"Company address (optional)"`
	Sector       string             `json:"sector,omitempty" jsonschema:"Industry sector (optional)"`
	BusinessType model.BusinessType `json:"business_type,omitempty" jsonschema:"Type of business relationship (optional)"`
}

func (x *CompanyInput) Validate() error {
	if err := required("name", x.Name); err != nil {
		return err
	}
	return x.BusinessType.Validate()
}

type CompanyResult struct {
	ID      model.CompanyID `json:"id"`
	Name    string          `json:"name"`
	Created bool            `json:"created"`
}

type ContactInput struct {
	FirstName       string            `json:"first_name" jsonschema:"Contact's first name"`
	LastName        string            `json:"last_name" jsonschema:"Contact's last name"`
	CompanyID       model.CompanyID   `json:"company_id,omitempty" jsonschema:"Company ID to associate with (use result from search_or_create_company)"`
	CompanyName     string            `json:"company_name,omitempty" jsonschema:"Company name (alternative to company_id - will look up the company)"`
	Email           string            `json:"email,omitempty" jsonschema:"Contact's email address (optional)"`
	Phone           string            `json:"phone,omitempty" jsonschema:"Contact's phone number (optional)"`
	Title           string            `json:"title,omitempty" jsonschema:"Contact's job title (optional, e.g., 'Clinic Director', 'CEO')"`
	PatientType     model.PatientType `json:"patient_type,omitempty" jsonschema:"For patient contacts, their care type (optional)"`
	ReferringDoctor string            `json:"referring_doctor,omitempty" jsonschema:"Referring doctor name for patient contacts (optional)"`
}

func (x *ContactInput) Validate() error {
	if err := required("first_name", x.FirstName); err != nil {
		return err
	}
	if err := required("last_name", x.LastName); err != nil {
		return err
	}
	return x.PatientType.Validate()
}

type ContactResult struct {
	ID        model.ContactID `json:"id"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	CompanyID model.CompanyID `json:"company_id,omitempty"`
	Created   bool            `json:"created"`
}

func (x *ContactResult) FullName() string {
	return x.FirstName + " " + x.LastName
}

type DealInput struct {
	Name                string            `json:"name" jsonschema:"Deal name/title (e.g., 'Midwest Orthotics - Franchise Opportunity')"`
	CompanyID           model.CompanyID   `json:"company_id,omitempty" jsonschema:"Company ID for this deal (use result from search_or_create_company)"`
	ContactIDs          []model.ContactID `json:"contact_ids,omitempty" jsonschema:"Array of contact IDs associated with this deal"`
	Amount              float64           `json:"amount" jsonschema:"Deal value in dollars (e.g., 75000 for $75k)"`
	Stage               string            `json:"stage,omitempty" jsonschema:"Pipeline stage (optional - defaults to first stage)"`
	Description         string            `json:"description,omitempty" jsonschema:"Deal description or notes (optional)"`
	Category            string            `json:"category,omitempty" jsonschema:"Deal category (optional)"`
	ExpectedClosingDate string            `json:"expected_closing_date,omitempty" jsonschema:"Expected close date in ISO format (optional)"`
}

func (x *DealInput) Validate() error {
	if err := required("name", x.Name); err != nil {
		return err
	}
	if x.Amount < 0 {
		return goerr.Wrap(ErrInvalidInput, "amount must not be negative", goerr.V("amount", x.Amount))
	}
	return nil
}

type DealResult struct {
	ID     model.DealID `json:"id"`
	Name   string       `json:"name"`
	Amount float64      `json:"amount"`
	Stage  string       `json:"stage"`
}

type TaskInput struct {
	ContactID model.ContactID `json:"contact_id" jsonschema:"Contact ID this task is for (use result from search_or_create_contact)"`
	Type      string          `json:"type" jsonschema:"Task type (e.g., 'Follow-up call', 'Send email', 'Schedule meeting')"`
	Text      string          `json:"text" jsonschema:"Task description/details"`
	DueDate   string          `json:"due_date" jsonschema:"Due date in ISO format (e.g., '2024-01-15'). Parse relative dates like 'next week' or 'tomorrow' to actual dates."`
}

func (x *TaskInput) Validate() error {
	if x.ContactID == 0 {
		return goerr.Wrap(ErrInvalidInput, "contact_id is required", goerr.V("field", "contact_id"))
	}
	if err := required("type", x.Type); err != nil {
		return err
	}
	if err := required("text", x.Text); err != nil {
		return err
	}
	return required("due_date", x.DueDate)
}

type TaskResult struct {
	ID      model.TaskID `json:"id"`
	Text    string       `json:"text"`
	DueDate string       `json:"due_date"`
}

type NoteInput struct {
	ContactID model.ContactID `json:"contact_id,omitempty" jsonschema:"Contact ID to attach note to (optional if deal_id provided)"`
	DealID    model.DealID    `json:"deal_id,omitempty" jsonschema:"Deal ID to attach note to (optional if contact_id provided)"`
	Text      string          `json:"text" jsonschema:"Note content - can include meeting summaries, key points discussed, etc."`
	Status    string          `json:"status,omitempty" jsonschema:"Note status/type (optional, e.g., 'cold', 'warm', 'hot' for lead status)"`
}

// Validate requires exactly one attachment target
func (x *NoteInput) Validate() error {
	if err := required("text", x.Text); err != nil {
		return err
	}
	switch {
	case x.ContactID == 0 && x.DealID == 0:
		return ErrNoteTargetRequired
	case x.ContactID != 0 && x.DealID != 0:
		return goerr.Wrap(ErrNoteTargetAmbiguous, "note target is ambiguous",
			goerr.V("contact_id", x.ContactID), goerr.V("deal_id", x.DealID))
	}
	return nil
}

type NoteResult struct {
	ID        model.NoteID    `json:"id"`
	Text      string          `json:"text"`
	ContactID model.ContactID `json:"contact_id,omitempty"`
	DealID    model.DealID    `json:"deal_id,omitempty"`
}
