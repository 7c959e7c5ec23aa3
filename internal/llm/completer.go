package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/moderatehq/turnstile/internal/config"
	"github.com/moderatehq/turnstile/internal/models"
)

// Completer drives chat completions. It owns no retry policy: a failed call
// is a failed call, and the caller decides what that means for the turn.
type Completer struct {
	llm       llms.Model
	modelName string
}

// NewCompleter creates a completion invoker for the configured provider.
func NewCompleter(ctx context.Context, cfg config.Config) (*Completer, error) {
	model, err := newModel(ctx, cfg, cfg.LLMModel)
	if err != nil {
		return nil, err
	}
	return &Completer{llm: model, modelName: cfg.LLMModel}, nil
}

// Complete generates a reply from a system prompt, the (already rewritten)
// chat history, and the current input.
func (c *Completer) Complete(ctx context.Context, systemPrompt string, history []models.Message, input string) (string, error) {
	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	for _, msg := range history {
		messages = append(messages, llms.TextParts(chatMessageType(msg.Role), msg.Content))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, input))

	response, err := c.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("complete: no response choices")
	}

	return response.Choices[0].Content, nil
}

// Model returns the completion model name.
func (c *Completer) Model() string {
	return c.modelName
}
