package pipeline

import (
	"errors"
	"fmt"
)

// Stage names the pipeline state transition that failed, for logging and
// error context. Transitions are linear; there is no backward movement.
type Stage string

const (
	StageClassify        Stage = "classify"
	StagePersona         Stage = "persona"
	StageFetchHistory    Stage = "fetch_history"
	StagePersistInbound  Stage = "persist_inbound"
	StageFetchRules      Stage = "fetch_rules"
	StageComplete        Stage = "complete"
	StagePersistOutbound Stage = "persist_outbound"
)

// ConfigurationError is a fatal, client-visible failure caused by bad input
// or tenant configuration: a missing or invalid persona, a rule set that
// violates the rule schema, or a malformed request. It always aborts the
// turn before any model call.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration: %s: %v", e.Reason, e.Err)
	}
	return "configuration: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// DependencyError is a fatal failure of an external collaborator: the
// classifier, the store, or the completion engine. The turn produces no
// reply and the error carries the turn context for logging.
type DependencyError struct {
	Stage       Stage
	CompanyID   string
	UserID      string
	ChatBlockID string
	Err         error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("dependency failure at %s (company=%s user=%s chat_block=%s): %v",
		e.Stage, e.CompanyID, e.UserID, e.ChatBlockID, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

// IsConfiguration reports whether err is (or wraps) a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsDependency reports whether err is (or wraps) a DependencyError.
func IsDependency(err error) bool {
	var de *DependencyError
	return errors.As(err, &de)
}
