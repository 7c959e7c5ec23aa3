package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/moderatehq/turnstile/internal/config"
	"github.com/moderatehq/turnstile/internal/models"
)

// classifierSystemPrompt constrains the model to the closed categorization
// schema. The caller validates the parsed result at the trust boundary.
const classifierSystemPrompt = `You are a message classifier for a chat product.
Classify the user message and respond with ONLY a JSON object, no prose:
{"category": "<short category label>", "complexity": "low" | "medium" | "high", "topics": ["<topic>", ...]}`

// Classifier maps message text to a categorization using an LLM. It is a
// single blocking call with no retry policy.
type Classifier struct {
	llm       llms.Model
	modelName string
}

// NewClassifier creates a classifier for the configured provider.
func NewClassifier(ctx context.Context, cfg config.Config) (*Classifier, error) {
	model, err := newModel(ctx, cfg, cfg.ClassifierModel)
	if err != nil {
		return nil, err
	}
	return &Classifier{llm: model, modelName: cfg.ClassifierModel}, nil
}

// Classify returns the categorization for a message text. The result is
// parsed but not validated; callers own schema validation.
func (c *Classifier) Classify(ctx context.Context, text string) (models.Categorization, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, classifierSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, text),
	}

	response, err := c.llm.GenerateContent(ctx, messages, llms.WithJSONMode())
	if err != nil {
		return models.Categorization{}, fmt.Errorf("classify: %w", err)
	}
	if len(response.Choices) == 0 {
		return models.Categorization{}, fmt.Errorf("classify: no response choices")
	}

	cat, err := parseCategorization(response.Choices[0].Content)
	if err != nil {
		return models.Categorization{}, fmt.Errorf("classify: %w", err)
	}
	return cat, nil
}

// Model returns the classifier model name.
func (c *Classifier) Model() string {
	return c.modelName
}

// parseCategorization extracts the JSON object from the model output.
// Models occasionally wrap JSON in code fences or prose despite the prompt.
func parseCategorization(raw string) (models.Categorization, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return models.Categorization{}, fmt.Errorf("no JSON object in classifier output: %q", truncateForError(raw))
	}

	var cat models.Categorization
	if err := json.Unmarshal([]byte(raw[start:end+1]), &cat); err != nil {
		return models.Categorization{}, fmt.Errorf("decode classifier output: %w", err)
	}
	return cat, nil
}

func truncateForError(s string) string {
	const max = 120
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
