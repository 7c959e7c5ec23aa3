package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moderatehq/turnstile/internal/models"
)

func TestParseCategorization(t *testing.T) {
	t.Run("plain JSON", func(t *testing.T) {
		cat, err := parseCategorization(`{"category":"billing","complexity":"medium","topics":["invoices","refunds"]}`)
		require.NoError(t, err)
		assert.Equal(t, "billing", cat.Category)
		assert.Equal(t, models.ComplexityMedium, cat.Complexity)
		assert.Equal(t, []string{"invoices", "refunds"}, cat.Topics)
	})

	t.Run("fenced JSON", func(t *testing.T) {
		raw := "```json\n{\"category\":\"support\",\"complexity\":\"low\",\"topics\":[]}\n```"
		cat, err := parseCategorization(raw)
		require.NoError(t, err)
		assert.Equal(t, "support", cat.Category)
	})

	t.Run("prose around JSON", func(t *testing.T) {
		raw := `Sure! Here is the classification: {"category":"sales","complexity":"high","topics":["pricing"]} Hope that helps.`
		cat, err := parseCategorization(raw)
		require.NoError(t, err)
		assert.Equal(t, "sales", cat.Category)
	})

	t.Run("no JSON object", func(t *testing.T) {
		_, err := parseCategorization("I cannot classify this.")
		assert.Error(t, err)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := parseCategorization(`{"category": }`)
		assert.Error(t, err)
	})
}

func TestChatMessageTypeMapping(t *testing.T) {
	assert.Equal(t, "ai", string(chatMessageType(models.RoleAssistant)))
	assert.Equal(t, "system", string(chatMessageType(models.RoleSystem)))
	assert.Equal(t, "human", string(chatMessageType(models.RoleUser)))
}
