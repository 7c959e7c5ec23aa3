package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moderatehq/turnstile/internal/models"
)

func userMsg(content string) models.Message {
	return models.Message{Role: models.RoleUser, Content: content}
}

func TestEvaluatePreservesRuleOrder(t *testing.T) {
	engine := NewRuleEngine(nil)

	blockRules := []models.BlockRule{
		{ID: "r-3", Matcher: "gamma", Substitution: "g"},
		{ID: "r-1", Matcher: "alpha", Substitution: "a"},
		{ID: "r-2", Matcher: "beta", Substitution: "b"},
	}

	triggered := engine.Evaluate(userMsg("alpha beta gamma"), "acme", "u-1", "m-1", blockRules)

	require.Len(t, triggered, 3)
	assert.Equal(t, "r-3", triggered[0].RuleID)
	assert.Equal(t, "r-1", triggered[1].RuleID)
	assert.Equal(t, "r-2", triggered[2].RuleID)
}

func TestEvaluateSubstringOnly(t *testing.T) {
	engine := NewRuleEngine(nil)

	blockRules := []models.BlockRule{
		{ID: "r-1", Matcher: "secret123", Substitution: "[REDACTED]"},
		{ID: "r-2", Matcher: "password", Substitution: "[HIDDEN]"},
	}

	triggered := engine.Evaluate(userMsg("my secret123 is safe"), "acme", "u-1", "m-1", blockRules)

	require.Len(t, triggered, 1)
	assert.Equal(t, "r-1", triggered[0].RuleID)
	assert.Equal(t, "m-1", triggered[0].MessageID)
}

func TestEvaluateMatchesAgainstOriginalContent(t *testing.T) {
	// The first rule would substitute "foo" with "bar", but matching never
	// sees prior substitutions: the second rule only triggers if "bar"
	// occurs in the original content.
	engine := NewRuleEngine(nil)

	blockRules := []models.BlockRule{
		{ID: "r-1", Matcher: "foo", Substitution: "bar"},
		{ID: "r-2", Matcher: "bar", Substitution: "baz"},
	}

	triggered := engine.Evaluate(userMsg("just foo here"), "acme", "u-1", "m-1", blockRules)
	require.Len(t, triggered, 1)
	assert.Equal(t, "r-1", triggered[0].RuleID)

	triggered = engine.Evaluate(userMsg("foo and bar"), "acme", "u-1", "m-1", blockRules)
	require.Len(t, triggered, 2)
}

func TestEvaluateSkipsEmptyMatcher(t *testing.T) {
	engine := NewRuleEngine(nil)

	blockRules := []models.BlockRule{
		{ID: "r-bad", Matcher: "", Substitution: "x"},
		{ID: "r-ok", Matcher: "hello", Substitution: "hi"},
	}

	triggered := engine.Evaluate(userMsg("hello world"), "acme", "u-1", "m-1", blockRules)

	require.Len(t, triggered, 1)
	assert.Equal(t, "r-ok", triggered[0].RuleID)
}

func TestEvaluateEmptyRuleSet(t *testing.T) {
	engine := NewRuleEngine(nil)

	triggered := engine.Evaluate(userMsg("anything"), "acme", "u-1", "m-1", nil)
	assert.Empty(t, triggered)
}
