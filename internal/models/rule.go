package models

import "time"

// BlockRule is a tenant-defined (matcher -> substitution) content policy.
// Rules are company-scoped and read-only within a turn.
type BlockRule struct {
	ID           string    `json:"id" yaml:"id"`
	CompanyID    string    `json:"company_id" yaml:"company_id"`
	Matcher      string    `json:"matcher" yaml:"matcher"`
	Substitution string    `json:"substitution" yaml:"substitution"`
	CreatedAt    time.Time `json:"created,omitempty" yaml:"-"`
}

// TriggeredRule records that a block rule matched a message. The order of
// triggered rules is the order in which rules were evaluated, and the
// message id links the trigger to the persisted inbound message for audit.
type TriggeredRule struct {
	RuleID       string `json:"rule_id"`
	Original     string `json:"original"`
	Substitution string `json:"substitution"`
	MessageID    string `json:"message_id"`
}
