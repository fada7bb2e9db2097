package model

import (
	"github.com/google/uuid"
)

type ActionType string

const (
	ActionCreateCompany        ActionType = "create_company"
	ActionUpdateCompany        ActionType = "update_company"
	ActionCreateContact        ActionType = "create_contact"
	ActionUpdateContact        ActionType = "update_contact"
	ActionCreateDeal           ActionType = "create_deal"
	ActionCreateTask           ActionType = "create_task"
	ActionCreateNote           ActionType = "create_note"
	ActionLinkContactToCompany ActionType = "link_contact_to_company"

	// ActionUnknownTool tags a call to a tool name that is not in the catalog
	ActionUnknownTool ActionType = "unknown_tool"
)

type RecordType string

const (
	RecordCompany RecordType = "company"
	RecordContact RecordType = "contact"
	RecordDeal    RecordType = "deal"
	RecordTask    RecordType = "task"
	RecordNote    RecordType = "note"
)

type ActionID string

func NewActionID() ActionID {
	return ActionID(uuid.New().String())
}

type ActionResult struct {
	RecordID   int64      `json:"recordId"`
	RecordType RecordType `json:"recordType"`
	Name       string     `json:"name,omitempty"`
}

// ExecutedAction is the outcome of one tool call within a turn
type ExecutedAction struct {
	ID          ActionID      `json:"id"`
	Type        ActionType    `json:"type"`
	Description string        `json:"description"`
	Success     bool          `json:"success"`
	Result      *ActionResult `json:"result,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// FailedAction builds the log entry for a tool call that returned an error
func FailedAction(actionType ActionType, toolName string, err error) *ExecutedAction {
	return &ExecutedAction{
		ID:          NewActionID(),
		Type:        actionType,
		Description: "Failed to execute " + toolName,
		Success:     false,
		Error:       err.Error(),
	}
}
