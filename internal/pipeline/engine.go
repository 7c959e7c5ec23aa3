package pipeline

import (
	"log/slog"
	"strings"

	"github.com/moderatehq/turnstile/internal/models"
)

// RuleEngine evaluates a tenant's block rule snapshot against a message.
type RuleEngine struct {
	logger *slog.Logger
}

// NewRuleEngine creates a rule engine. The logger is only used to warn
// about skipped rules.
func NewRuleEngine(logger *slog.Logger) *RuleEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &RuleEngine{logger: logger}
}

// Evaluate tests every rule against the message content and returns the
// triggered rules in rule input order. Matching always runs against the
// original content: a substitution made by an earlier rule never hides or
// creates a match for a later one. There is no short-circuit; all rules are
// evaluated.
//
// A rule with an empty matcher is skipped with a warning so one malformed
// rule cannot block every conversation for the tenant.
func (e *RuleEngine) Evaluate(msg models.Message, companyID, userID, messageID string, blockRules []models.BlockRule) []models.TriggeredRule {
	triggered := make([]models.TriggeredRule, 0)

	for _, rule := range blockRules {
		if rule.Matcher == "" {
			e.logger.Warn("skipping rule with empty matcher",
				"rule_id", rule.ID, "company_id", companyID, "user_id", userID)
			continue
		}
		if !strings.Contains(msg.Content, rule.Matcher) {
			continue
		}
		triggered = append(triggered, models.TriggeredRule{
			RuleID:       rule.ID,
			Original:     rule.Matcher,
			Substitution: rule.Substitution,
			MessageID:    messageID,
		})
	}

	return triggered
}
