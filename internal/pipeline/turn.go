// Package pipeline implements the turn-processing pipeline: classification,
// rule evaluation, content substitution, prompt assembly, completion, and
// persistence of both sides of the exchange.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/moderatehq/turnstile/internal/audit"
	"github.com/moderatehq/turnstile/internal/config"
	"github.com/moderatehq/turnstile/internal/metrics"
	"github.com/moderatehq/turnstile/internal/models"
	"github.com/moderatehq/turnstile/internal/rules"
)

// TurnStore persists turns and supplies tenant configuration.
type TurnStore interface {
	PersistInbound(ctx context.Context, turn models.Turn, cat models.Categorization) (string, error)
	PersistOutbound(ctx context.Context, turn models.Turn, reply string, cat models.Categorization) error
	FetchRules(ctx context.Context, companyID string) ([]models.BlockRule, error)
	FetchPersona(ctx context.Context, chatBlockID string) ([]models.PersonaAttribute, error)
	FetchHistory(ctx context.Context, chatBlockID string, limit int) ([]models.Message, error)
}

// Classifier maps message text to a categorization.
type Classifier interface {
	Classify(ctx context.Context, text string) (models.Categorization, error)
}

// CompletionInvoker produces the reply text for a turn.
type CompletionInvoker interface {
	Complete(ctx context.Context, systemPrompt string, history []models.Message, input string) (string, error)
}

// Options tune pipeline behavior.
type Options struct {
	// RewriteScope controls whether substitutions apply to the whole
	// model-facing history or only the current inbound message.
	RewriteScope config.RewriteScope
	// HistoryLimit caps the number of stored messages loaded when the
	// request does not carry its own history.
	HistoryLimit int
}

// TurnRequest is one inbound turn. Messages is the ordered conversation;
// the final message is the inbound user message. When Messages holds only
// the inbound message, history is loaded from the store.
type TurnRequest struct {
	CompanyID   string           `json:"company_id"`
	UserID      string           `json:"user_id"`
	ChatBlockID string           `json:"chat_block_id"`
	Messages    []models.Message `json:"messages"`
}

// TurnResult is the outcome of a processed turn.
type TurnResult struct {
	Reply          string                 `json:"reply"`
	MessageID      string                 `json:"message_id"`
	Category       models.Categorization  `json:"category"`
	TriggeredRules []models.TriggeredRule `json:"triggered_rules"`

	// PersistenceWarning is set when the reply was generated but could not
	// be persisted. The reply is still valid.
	PersistenceWarning string `json:"persistence_warning,omitempty"`
}

// Pipeline orchestrates one request/response cycle. It holds no mutable
// state between turns; rules and history are fetched fresh per turn.
type Pipeline struct {
	store      TurnStore
	classifier Classifier
	completer  CompletionInvoker
	engine     *RuleEngine
	audit      *audit.Emitter
	metrics    *metrics.Collector
	logger     *slog.Logger
	opts       Options
}

// New creates a pipeline. Audit and metrics may be nil.
func New(store TurnStore, classifier Classifier, completer CompletionInvoker, emitter *audit.Emitter, collector *metrics.Collector, logger *slog.Logger, opts Options) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:      store,
		classifier: classifier,
		completer:  completer,
		engine:     NewRuleEngine(logger),
		audit:      emitter,
		metrics:    collector,
		logger:     logger,
		opts:       opts,
	}
}

// ProcessTurn runs one turn through the pipeline. Any failure before the
// completion call aborts the turn with no reply. A failure persisting the
// outbound message after a successful completion still yields the reply;
// the result carries the warning.
func (p *Pipeline) ProcessTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	inbound := req.Messages[len(req.Messages)-1]
	history := req.Messages[:len(req.Messages)-1]

	// A request carrying only the inbound message relies on stored history.
	if len(history) == 0 {
		stored, err := p.store.FetchHistory(ctx, req.ChatBlockID, p.opts.HistoryLimit)
		if err != nil {
			return nil, p.depErr(StageFetchHistory, req, err)
		}
		history = stored
	}

	turn := models.Turn{
		CompanyID:   req.CompanyID,
		UserID:      req.UserID,
		ChatBlockID: req.ChatBlockID,
		Inbound:     inbound,
	}

	// Classification and persona prompt construction have no data
	// dependency on each other; run them concurrently. Both must finish
	// before the inbound message is persisted with its category.
	var cat models.Categorization
	var systemPrompt string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		c, err := p.classifier.Classify(gctx, inbound.Content)
		p.record(metrics.OpClassify, start)
		if err != nil {
			return p.depErr(StageClassify, req, err)
		}
		if err := c.Validate(); err != nil {
			return &ConfigurationError{Reason: "classifier result outside schema", Err: err}
		}
		cat = c
		return nil
	})
	g.Go(func() error {
		attrs, err := p.store.FetchPersona(gctx, req.ChatBlockID)
		if err != nil {
			return p.depErr(StagePersona, req, err)
		}
		prompt, err := BuildPersonaPrompt(attrs)
		if err != nil {
			return err
		}
		systemPrompt = prompt
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Persist the inbound message first: triggered rules reference its id,
	// and no completion should ever be generated for an unpersisted message.
	start := time.Now()
	messageID, err := p.store.PersistInbound(ctx, turn, cat)
	p.record(metrics.OpPersistInbound, start)
	if err != nil {
		return nil, p.depErr(StagePersistInbound, req, err)
	}

	p.emit(audit.Event{
		Type:      audit.TypeMessageReceived,
		Severity:  audit.SeverityInfo,
		CompanyID: req.CompanyID,
		UserID:    req.UserID,
		Data: map[string]any{
			"message_id": messageID,
			"category":   cat.Category,
			"complexity": cat.Complexity,
		},
	})

	// Snapshot the tenant's rules. Rule writes from here on do not affect
	// this turn.
	start = time.Now()
	blockRules, err := p.store.FetchRules(ctx, req.CompanyID)
	p.record(metrics.OpFetchRules, start)
	if err != nil {
		return nil, p.depErr(StageFetchRules, req, err)
	}
	if err := rules.ValidateRules(blockRules); err != nil {
		return nil, &ConfigurationError{Reason: "rule set failed schema validation", Err: err}
	}

	start = time.Now()
	triggered := p.engine.Evaluate(inbound, req.CompanyID, req.UserID, messageID, blockRules)
	p.record(metrics.OpRuleEval, start)

	for _, tr := range triggered {
		p.emit(audit.Event{
			Type:      audit.TypeRuleTriggered,
			Severity:  audit.SeverityInfo,
			CompanyID: req.CompanyID,
			UserID:    req.UserID,
			Data: map[string]any{
				"rule_id":    tr.RuleID,
				"message_id": tr.MessageID,
			},
		})
	}

	// Rewrite only the model-facing copy. The persisted inbound content
	// stays as received; audit and model input are allowed to diverge.
	modelHistory := history
	if p.opts.RewriteScope != config.RewriteScopeCurrent {
		modelHistory = RewriteHistory(history, triggered)
	}
	modelInput := RewriteMessage(inbound, triggered)

	start = time.Now()
	reply, err := p.completer.Complete(ctx, systemPrompt, modelHistory, modelInput.Content)
	p.record(metrics.OpCompletion, start)
	if err != nil {
		return nil, p.depErr(StageComplete, req, err)
	}

	result := &TurnResult{
		Reply:          reply,
		MessageID:      messageID,
		Category:       cat,
		TriggeredRules: triggered,
	}

	// The reply exists; an outbound persistence failure is reported, not
	// allowed to discard a successful generation.
	start = time.Now()
	if err := p.store.PersistOutbound(ctx, turn, reply, cat); err != nil {
		p.record(metrics.OpPersistOutbound, start)
		p.logger.Warn("outbound persistence failed, returning reply anyway",
			"error", err,
			"company_id", req.CompanyID,
			"user_id", req.UserID,
			"chat_block_id", req.ChatBlockID,
			"message_id", messageID,
		)
		p.emit(audit.Event{
			Type:      audit.TypePersistenceWarning,
			Severity:  audit.SeverityWarn,
			CompanyID: req.CompanyID,
			UserID:    req.UserID,
			Data: map[string]any{
				"message_id": messageID,
				"error":      err.Error(),
			},
		})
		result.PersistenceWarning = err.Error()
		return result, nil
	}
	p.record(metrics.OpPersistOutbound, start)

	return result, nil
}

func validateRequest(req TurnRequest) error {
	switch {
	case req.CompanyID == "":
		return &ConfigurationError{Reason: "request missing company_id"}
	case req.UserID == "":
		return &ConfigurationError{Reason: "request missing user_id"}
	case req.ChatBlockID == "":
		return &ConfigurationError{Reason: "request missing chat_block_id"}
	case len(req.Messages) == 0:
		return &ConfigurationError{Reason: "request has no messages"}
	}

	for i, msg := range req.Messages {
		if !msg.Role.Valid() {
			return &ConfigurationError{Reason: fmt.Sprintf("message %d has unknown role %q", i, msg.Role)}
		}
	}

	if last := req.Messages[len(req.Messages)-1]; last.Role != models.RoleUser {
		return &ConfigurationError{Reason: "final message must have role user"}
	}
	return nil
}

func (p *Pipeline) depErr(stage Stage, req TurnRequest, err error) error {
	return &DependencyError{
		Stage:       stage,
		CompanyID:   req.CompanyID,
		UserID:      req.UserID,
		ChatBlockID: req.ChatBlockID,
		Err:         err,
	}
}

func (p *Pipeline) emit(ev audit.Event) {
	if p.audit != nil {
		p.audit.Emit(ev)
	}
}

func (p *Pipeline) record(op string, start time.Time) {
	if p.metrics != nil {
		p.metrics.RecordTiming(op, time.Since(start))
	}
}

