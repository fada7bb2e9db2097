package model

import "strings"

// AgentContext holds the state of a single agent turn. It is created per
// request and must not be shared between goroutines.
type AgentContext struct {
	SalesID    SalesID
	PipelineID PipelineID // zero means no board scope

	companies map[string]CompanyID
	contacts  map[string]ContactID
}

func NewAgentContext(salesID SalesID, pipelineID PipelineID) *AgentContext {
	return &AgentContext{
		SalesID:    salesID,
		PipelineID: pipelineID,
		companies:  make(map[string]CompanyID),
		contacts:   make(map[string]ContactID),
	}
}

func companyKey(name string) string {
	return strings.ToLower(name)
}

func contactKey(firstName, lastName string) string {
	return strings.ToLower(firstName + " " + lastName)
}

func (x *AgentContext) LookupCompany(name string) (CompanyID, bool) {
	id, ok := x.companies[companyKey(name)]
	return id, ok
}

func (x *AgentContext) RememberCompany(name string, id CompanyID) {
	if x.companies == nil {
		x.companies = make(map[string]CompanyID)
	}
	x.companies[companyKey(name)] = id
}

func (x *AgentContext) LookupContact(firstName, lastName string) (ContactID, bool) {
	id, ok := x.contacts[contactKey(firstName, lastName)]
	return id, ok
}

func (x *AgentContext) RememberContact(firstName, lastName string, id ContactID) {
	if x.contacts == nil {
		x.contacts = make(map[string]ContactID)
	}
	x.contacts[contactKey(firstName, lastName)] = id
}
