// Package rules validates block rule documents and loads YAML rule packs.
package rules

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/moderatehq/turnstile/internal/models"
)

// ruleSchemaJSON is the fixed schema every block rule must satisfy before
// use, whether it arrives from the store or from an imported pack. It guards
// structural violations only: an empty matcher is schema-valid and is skipped
// with a warning at evaluation instead of aborting the turn.
const ruleSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["company_id", "matcher", "substitution"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"company_id": {"type": "string", "minLength": 1},
		"matcher": {"type": "string"},
		"substitution": {"type": "string"}
	},
	"additionalProperties": false
}`

var ruleSchema = gojsonschema.NewStringLoader(ruleSchemaJSON)

// ValidateRule checks a block rule against the fixed schema. A violation is
// a configuration error: the rule must not be evaluated.
func ValidateRule(rule models.BlockRule) error {
	doc := map[string]any{
		"company_id":   rule.CompanyID,
		"matcher":      rule.Matcher,
		"substitution": rule.Substitution,
	}
	if rule.ID != "" {
		doc["id"] = rule.ID
	}

	result, err := gojsonschema.Validate(ruleSchema, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validate rule: %w", err)
	}
	if !result.Valid() {
		reasons := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			reasons = append(reasons, desc.String())
		}
		return fmt.Errorf("rule %q invalid: %s", rule.ID, strings.Join(reasons, "; "))
	}
	return nil
}

// ValidateRules checks every rule in a fetched set and returns the first
// structural violation. Matcher-level malformation is not structural; the
// engine skips those rules so one bad matcher cannot block a tenant's
// conversations.
func ValidateRules(rules []models.BlockRule) error {
	for _, rule := range rules {
		if err := ValidateRule(rule); err != nil {
			return err
		}
	}
	return nil
}
