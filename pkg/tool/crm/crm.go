// Package crm provides the tool catalog the assistant uses to write CRM records.
package crm

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sidekick/pkg/model"
	"github.com/m-mizutani/sidekick/pkg/tool"
	usecase "github.com/m-mizutani/sidekick/pkg/usecase/crm"
)

// CatalogVersion changes whenever a tool name, description or argument changes
const CatalogVersion = "2024-06-01"

const (
	NameSearchOrCreateCompany = "search_or_create_company"
	NameSearchOrCreateContact = "search_or_create_contact"
	NameCreateDeal            = "create_deal"
	NameCreateTask            = "create_task"
	NameCreateNote            = "create_note"
)

const noteNameLength = 50

// New returns the tools in the order they are offered to the model
func New(uc *usecase.UseCase) ([]tool.Tool, error) {
	company, err := tool.NewTyped(NameSearchOrCreateCompany, descSearchOrCreateCompany, model.ActionCreateCompany,
		uc.SearchOrCreateCompany, reportCompany)
	if err != nil {
		return nil, err
	}
	company.WithEnum("business_type", enumValues(model.BusinessTypes())...)

	contact, err := tool.NewTyped(NameSearchOrCreateContact, descSearchOrCreateContact, model.ActionCreateContact,
		uc.SearchOrCreateContact, reportContact)
	if err != nil {
		return nil, err
	}
	contact.WithEnum("patient_type", enumValues(model.PatientTypes())...)

	deal, err := tool.NewTyped(NameCreateDeal, descCreateDeal, model.ActionCreateDeal,
		uc.CreateDeal, reportDeal)
	if err != nil {
		return nil, err
	}

	task, err := tool.NewTyped(NameCreateTask, descCreateTask, model.ActionCreateTask,
		uc.CreateTask, reportTask)
	if err != nil {
		return nil, err
	}

	note, err := tool.NewTyped(NameCreateNote, descCreateNote, model.ActionCreateNote,
		uc.CreateNote, reportNote)
	if err != nil {
		return nil, err
	}

	return []tool.Tool{company, contact, deal, task, note}, nil
}

// NewRegistry builds the registry for the full catalog
func NewRegistry(uc *usecase.UseCase) (*tool.Registry, error) {
	tools, err := New(uc)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build CRM tools")
	}
	return tool.New(tools...)
}

func enumValues[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func reportCompany(out *usecase.CompanyResult) *model.ExecutedAction {
	action := &model.ExecutedAction{
		Type:        model.ActionUpdateCompany,
		Description: fmt.Sprintf("Found existing company \"%s\"", out.Name),
		Result: &model.ActionResult{
			RecordID:   int64(out.ID),
			RecordType: model.RecordCompany,
			Name:       out.Name,
		},
	}
	if out.Created {
		action.Type = model.ActionCreateCompany
		action.Description = fmt.Sprintf("Created company \"%s\"", out.Name)
	}
	return action
}

func reportContact(out *usecase.ContactResult) *model.ExecutedAction {
	name := out.FullName()
	action := &model.ExecutedAction{
		Type:        model.ActionUpdateContact,
		Description: fmt.Sprintf("Found existing contact \"%s\"", name),
		Result: &model.ActionResult{
			RecordID:   int64(out.ID),
			RecordType: model.RecordContact,
			Name:       name,
		},
	}
	if out.Created {
		action.Type = model.ActionCreateContact
		action.Description = fmt.Sprintf("Created contact \"%s\"", name)
	}
	return action
}

func reportDeal(out *usecase.DealResult) *model.ExecutedAction {
	return &model.ExecutedAction{
		Type:        model.ActionCreateDeal,
		Description: fmt.Sprintf("Created deal \"%s\" for $%s", out.Name, formatAmount(out.Amount)),
		Result: &model.ActionResult{
			RecordID:   int64(out.ID),
			RecordType: model.RecordDeal,
			Name:       out.Name,
		},
	}
}

func reportTask(out *usecase.TaskResult) *model.ExecutedAction {
	return &model.ExecutedAction{
		Type:        model.ActionCreateTask,
		Description: fmt.Sprintf("Created task \"%s\" due %s", out.Text, out.DueDate),
		Result: &model.ActionResult{
			RecordID:   int64(out.ID),
			RecordType: model.RecordTask,
			Name:       out.Text,
		},
	}
}

func reportNote(out *usecase.NoteResult) *model.ExecutedAction {
	short := truncate(out.Text, noteNameLength)
	preview := short
	if short != out.Text {
		preview += "..."
	}
	return &model.ExecutedAction{
		Type:        model.ActionCreateNote,
		Description: fmt.Sprintf("Created note: \"%s\"", preview),
		Result: &model.ActionResult{
			RecordID:   int64(out.ID),
			RecordType: model.RecordNote,
			Name:       short,
		},
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// formatAmount renders 75000 as "75,000" and 1234.5 as "1,234.5"
func formatAmount(v float64) string {
	s := strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if hasFrac {
		b.WriteString("." + frac)
	}
	return sign + b.String()
}
