package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/moderatehq/turnstile/internal/models"
)

// Pack is a YAML document of block rules for one company, in evaluation
// order. Example:
//
//	company_id: acme
//	rules:
//	  - matcher: secret123
//	    substitution: "[REDACTED]"
type Pack struct {
	CompanyID string     `yaml:"company_id"`
	Rules     []PackRule `yaml:"rules"`
}

// PackRule is one rule entry in a pack. ID is optional; the store generates
// one on import when absent.
type PackRule struct {
	ID           string `yaml:"id"`
	Matcher      string `yaml:"matcher"`
	Substitution string `yaml:"substitution"`
}

// LoadPack reads and validates a rule pack file.
func LoadPack(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pack: %w", err)
	}
	return ParsePack(data)
}

// ParsePack parses pack bytes and validates every rule against the fixed
// rule schema.
func ParsePack(data []byte) (*Pack, error) {
	var pack Pack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("parse pack: %w", err)
	}

	if pack.CompanyID == "" {
		return nil, fmt.Errorf("pack missing company_id")
	}
	if len(pack.Rules) == 0 {
		return nil, fmt.Errorf("pack %q has no rules", pack.CompanyID)
	}

	// Import is stricter than evaluation: an empty matcher would only ever
	// be skipped at runtime, so reject it here where the author can fix it.
	for i, rule := range pack.Rules {
		if rule.Matcher == "" {
			return nil, fmt.Errorf("pack %q rule %d: matcher is empty", pack.CompanyID, i)
		}
		if err := ValidateRule(pack.blockRule(rule)); err != nil {
			return nil, fmt.Errorf("pack %q rule %d: %w", pack.CompanyID, i, err)
		}
	}
	return &pack, nil
}

// BlockRules converts the pack entries to domain rules, preserving order.
func (p *Pack) BlockRules() []models.BlockRule {
	rules := make([]models.BlockRule, 0, len(p.Rules))
	for _, rule := range p.Rules {
		rules = append(rules, p.blockRule(rule))
	}
	return rules
}

func (p *Pack) blockRule(rule PackRule) models.BlockRule {
	return models.BlockRule{
		ID:           rule.ID,
		CompanyID:    p.CompanyID,
		Matcher:      rule.Matcher,
		Substitution: rule.Substitution,
	}
}
