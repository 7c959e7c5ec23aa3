package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/moderatehq/turnstile/internal/models"
)

// ruleRow is the stored form of a block rule.
type ruleRow struct {
	ID           surrealmodels.RecordID `json:"id"`
	CompanyID    string                 `json:"company_id"`
	Matcher      string                 `json:"matcher"`
	Substitution string                 `json:"substitution"`
	CreatedAt    time.Time              `json:"created"`
}

// personaRow is the stored form of a persona attribute.
type personaRow struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// historyRow carries the message fields needed to rebuild chat history.
type historyRow struct {
	Role    models.Role `json:"role"`
	Content string      `json:"content"`
}

// PersistInbound stores the inbound message of a turn together with its
// categorization and returns the generated message id. Must be called
// before rule evaluation so triggered rules can reference the stored id.
func (c *Client) PersistInbound(ctx context.Context, turn models.Turn, cat models.Categorization) (string, error) {
	id := uuid.NewString()
	if err := c.createMessage(ctx, id, turn, turn.Inbound, cat); err != nil {
		return "", fmt.Errorf("persist inbound: %w", err)
	}
	return id, nil
}

// PersistOutbound stores the generated reply as an assistant message in the
// same chat block, carrying the inbound categorization for audit.
func (c *Client) PersistOutbound(ctx context.Context, turn models.Turn, reply string, cat models.Categorization) error {
	msg := models.Message{Role: models.RoleAssistant, Content: reply}
	if err := c.createMessage(ctx, uuid.NewString(), turn, msg, cat); err != nil {
		return fmt.Errorf("persist outbound: %w", err)
	}
	return nil
}

func (c *Client) createMessage(ctx context.Context, id string, turn models.Turn, msg models.Message, cat models.Categorization) error {
	topics := cat.Topics
	if topics == nil {
		topics = []string{}
	}
	_, err := surrealdb.Query[any](ctx, c.db, `
		CREATE type::record("message", $id) CONTENT {
			chat_block_id: $chat_block_id,
			company_id: $company_id,
			user_id: $user_id,
			role: $role,
			content: $content,
			category: $category,
			complexity: $complexity,
			topics: $topics
		}
	`, map[string]any{
		"id":            id,
		"chat_block_id": turn.ChatBlockID,
		"company_id":    turn.CompanyID,
		"user_id":       turn.UserID,
		"role":          string(msg.Role),
		"content":       msg.Content,
		"category":      cat.Category,
		"complexity":    cat.Complexity,
		"topics":        topics,
	})
	return wrapQueryError(err)
}

// FetchRules returns the block rules for a company in stable evaluation
// order (creation time, then id). The result is the per-turn snapshot: rule
// writes after this call do not affect the current turn.
func (c *Client) FetchRules(ctx context.Context, companyID string) ([]models.BlockRule, error) {
	results, err := surrealdb.Query[[]ruleRow](ctx, c.db, `
		SELECT * FROM block_rule WHERE company_id = $company ORDER BY created ASC, id ASC
	`, map[string]any{"company": companyID})
	if err != nil {
		return nil, fmt.Errorf("fetch rules: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.BlockRule{}, nil
	}

	rows := (*results)[0].Result
	rules := make([]models.BlockRule, 0, len(rows))
	for _, row := range rows {
		id, err := models.RecordIDString(row.ID)
		if err != nil {
			return nil, fmt.Errorf("fetch rules: %w", err)
		}
		rules = append(rules, models.BlockRule{
			ID:           id,
			CompanyID:    row.CompanyID,
			Matcher:      row.Matcher,
			Substitution: row.Substitution,
			CreatedAt:    row.CreatedAt,
		})
	}
	return rules, nil
}

// SaveRule stores a block rule. A missing id gets a generated one; the
// stored id is returned.
func (c *Client) SaveRule(ctx context.Context, rule models.BlockRule) (string, error) {
	id := rule.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := surrealdb.Query[any](ctx, c.db, `
		CREATE type::record("block_rule", $id) CONTENT {
			company_id: $company_id,
			matcher: $matcher,
			substitution: $substitution
		}
	`, map[string]any{
		"id":           id,
		"company_id":   rule.CompanyID,
		"matcher":      rule.Matcher,
		"substitution": rule.Substitution,
	})
	if err != nil {
		return "", fmt.Errorf("save rule: %w", wrapQueryError(err))
	}
	return id, nil
}

// FetchPersona returns the persona attributes for a chat block, ordered by
// attribute name for deterministic prompt construction.
func (c *Client) FetchPersona(ctx context.Context, chatBlockID string) ([]models.PersonaAttribute, error) {
	results, err := surrealdb.Query[[]personaRow](ctx, c.db, `
		SELECT name, level FROM persona_attribute WHERE chat_block_id = $chat_block ORDER BY name ASC
	`, map[string]any{"chat_block": chatBlockID})
	if err != nil {
		return nil, fmt.Errorf("fetch persona: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.PersonaAttribute{}, nil
	}

	rows := (*results)[0].Result
	attrs := make([]models.PersonaAttribute, 0, len(rows))
	for _, row := range rows {
		attrs = append(attrs, models.PersonaAttribute{Name: row.Name, Level: row.Level})
	}
	return attrs, nil
}

// SavePersonaAttribute stores one persona attribute for a chat block.
func (c *Client) SavePersonaAttribute(ctx context.Context, chatBlockID string, attr models.PersonaAttribute) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		CREATE persona_attribute CONTENT {
			chat_block_id: $chat_block,
			name: $name,
			level: $level
		}
	`, map[string]any{
		"chat_block": chatBlockID,
		"name":       attr.Name,
		"level":      attr.Level,
	})
	if err != nil {
		return fmt.Errorf("save persona attribute: %w", wrapQueryError(err))
	}
	return nil
}

// FetchHistory returns the most recent messages of a chat block in
// chronological order. limit <= 0 means no limit.
func (c *Client) FetchHistory(ctx context.Context, chatBlockID string, limit int) ([]models.Message, error) {
	sql := `SELECT role, content FROM message WHERE chat_block_id = $chat_block ORDER BY created ASC`
	vars := map[string]any{"chat_block": chatBlockID}
	if limit > 0 {
		sql += " LIMIT $limit"
		vars["limit"] = limit
	}

	results, err := surrealdb.Query[[]historyRow](ctx, c.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.Message{}, nil
	}

	rows := (*results)[0].Result
	msgs := make([]models.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, models.Message{Role: row.Role, Content: row.Content})
	}
	return msgs, nil
}

// GetMessage retrieves a stored message by id. Returns ErrNotFound if it
// does not exist.
func (c *Client) GetMessage(ctx context.Context, id string) (*models.StoredMessage, error) {
	results, err := surrealdb.Query[[]models.StoredMessage](ctx, c.db, `
		SELECT * FROM type::record("message", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get message: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, ErrNotFound
	}
	return &(*results)[0].Result[0], nil
}
