package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrInvalidBusinessType = goerr.New("invalid business type")
	ErrInvalidPatientType  = goerr.New("invalid patient type")
)

type (
	SalesID    int64
	CompanyID  int64
	ContactID  int64
	DealID     int64
	TaskID     int64
	NoteID     int64
	PipelineID int64
)

type BusinessType string

const (
	BusinessTypeFranchisee BusinessType = "franchisee"
	BusinessTypePatient    BusinessType = "patient"
	BusinessTypeDoctor     BusinessType = "doctor"
	BusinessTypeSupplier   BusinessType = "supplier"
	BusinessTypeOther      BusinessType = "other"
)

// BusinessTypes lists accepted values in the order they are offered to the model
func BusinessTypes() []BusinessType {
	return []BusinessType{
		BusinessTypeFranchisee,
		BusinessTypePatient,
		BusinessTypeDoctor,
		BusinessTypeSupplier,
		BusinessTypeOther,
	}
}

// Validate accepts an empty value as "not classified"
func (b BusinessType) Validate() error {
	switch b {
	case "", BusinessTypeFranchisee, BusinessTypePatient, BusinessTypeDoctor, BusinessTypeSupplier, BusinessTypeOther:
		return nil
	default:
		return goerr.Wrap(ErrInvalidBusinessType, "unknown business type", goerr.V("business_type", string(b)))
	}
}

type PatientType string

const (
	PatientTypeProsthetics PatientType = "prosthetics"
	PatientTypeOrthotics   PatientType = "orthotics"
	PatientTypeBoth        PatientType = "both"
)

func PatientTypes() []PatientType {
	return []PatientType{PatientTypeProsthetics, PatientTypeOrthotics, PatientTypeBoth}
}

func (p PatientType) Validate() error {
	switch p {
	case "", PatientTypeProsthetics, PatientTypeOrthotics, PatientTypeBoth:
		return nil
	default:
		return goerr.Wrap(ErrInvalidPatientType, "unknown patient type", goerr.V("patient_type", string(p)))
	}
}

type Company struct {
	ID           CompanyID
	Name         string
	Website      string
	PhoneNumber  string
	Address      string
	Sector       string
	BusinessType BusinessType
	SalesID      SalesID
	CreatedAt    time.Time
}

// EmailEntry and PhoneEntry follow the structured collections of contact records
type EmailEntry struct {
	Email string `json:"email" firestore:"email"`
	Type  string `json:"type" firestore:"type"`
}

type PhoneEntry struct {
	Number string `json:"number" firestore:"number"`
	Type   string `json:"type" firestore:"type"`
}

const ContactInfoTypeWork = "Work"

type Contact struct {
	ID              ContactID
	FirstName       string
	LastName        string
	CompanyID       CompanyID // zero when the contact is not linked
	Title           string
	Emails          []EmailEntry
	Phones          []PhoneEntry
	Tags            []string
	PatientType     PatientType
	ReferringDoctor string
	SalesID         SalesID
	FirstSeen       time.Time
	LastSeen        time.Time
}

// FullName returns "first last"
func (c *Contact) FullName() string {
	return c.FirstName + " " + c.LastName
}

type Deal struct {
	ID                  DealID
	Name                string
	CompanyID           CompanyID
	ContactIDs          []ContactID
	Amount              float64
	Stage               string
	PipelineID          PipelineID
	Position            int64
	Description         string
	Category            string
	ExpectedClosingDate string
	SalesID             SalesID
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type Task struct {
	ID        TaskID
	ContactID ContactID
	Type      string
	Text      string
	DueDate   string
	DoneDate  *time.Time
	SalesID   SalesID
}

type ContactNote struct {
	ID        NoteID
	ContactID ContactID
	Text      string
	Date      time.Time
	Status    string
	SalesID   SalesID
}

type DealNote struct {
	ID      NoteID
	DealID  DealID
	Text    string
	Date    time.Time
	SalesID SalesID
}

// Pipeline is a deal board. Stages are ordered by Position.
type Pipeline struct {
	ID        PipelineID `yaml:"id"`
	Name      string     `yaml:"name"`
	IsDefault bool       `yaml:"is_default"`
	Position  int64      `yaml:"position"`
	Stages    []*Stage   `yaml:"stages"`
}

type Stage struct {
	Value    string `yaml:"value"`
	Label    string `yaml:"label"`
	Position int64  `yaml:"position"`
}

// DefaultStage is used when a pipeline has no stages configured
const DefaultStage = "opportunity"

// Sales is the internal identity of a CRM user. UserID is the subject of the
// caller's access token.
type Sales struct {
	ID        SalesID `yaml:"id"`
	UserID    string  `yaml:"user_id"`
	FirstName string  `yaml:"first_name"`
	LastName  string  `yaml:"last_name"`
	Email     string  `yaml:"email"`
}
