package pipeline

import (
	"strings"

	"github.com/moderatehq/turnstile/internal/models"
)

// RewriteHistory applies triggered substitutions to the model-facing copy
// of the conversation. For every message, each triggered rule is applied in
// evaluation order, replacing all occurrences; a later substitution may act
// on text already rewritten by an earlier one. The input is never mutated.
//
// The rewrite is idempotent: running it again on output that no longer
// contains any original substring is a no-op.
func RewriteHistory(msgs []models.Message, triggered []models.TriggeredRule) []models.Message {
	out := make([]models.Message, len(msgs))
	copy(out, msgs)

	if len(triggered) == 0 {
		return out
	}

	for i := range out {
		out[i].Content = applySubstitutions(out[i].Content, triggered)
	}
	return out
}

// RewriteMessage applies the triggered substitutions to a single message,
// used when rewriting is scoped to the current message only.
func RewriteMessage(msg models.Message, triggered []models.TriggeredRule) models.Message {
	msg.Content = applySubstitutions(msg.Content, triggered)
	return msg
}

func applySubstitutions(content string, triggered []models.TriggeredRule) string {
	for _, rule := range triggered {
		content = strings.ReplaceAll(content, rule.Original, rule.Substitution)
	}
	return content
}
