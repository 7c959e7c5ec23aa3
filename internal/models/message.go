// Package models defines the domain types for turn processing.
package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Role identifies the author of a message. The set is closed.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message is a single conversational message. Values are immutable once
// constructed: rewriting produces new Messages, never mutates in place.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Turn is the unit of work: one inbound message and zero-or-one outbound
// reply, scoped to a company, user, and chat block.
type Turn struct {
	CompanyID   string   `json:"company_id"`
	UserID      string   `json:"user_id"`
	ChatBlockID string   `json:"chat_block_id"`
	Inbound     Message  `json:"inbound"`
	Outbound    *Message `json:"outbound,omitempty"`
}

// StoredMessage is the persisted form of a message, as stored in the
// message table. The persisted content is the original text; rule
// substitution only ever touches the model-facing copy.
type StoredMessage struct {
	ID          surrealmodels.RecordID `json:"id"`
	ChatBlockID string                 `json:"chat_block_id"`
	CompanyID   string                 `json:"company_id"`
	UserID      string                 `json:"user_id"`
	Role        Role                   `json:"role"`
	Content     string                 `json:"content"`
	Category    string                 `json:"category"`
	Complexity  string                 `json:"complexity"`
	Topics      []string               `json:"topics"`
	CreatedAt   time.Time              `json:"created"`
}
