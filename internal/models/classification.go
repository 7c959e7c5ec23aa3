package models

import "fmt"

// Complexity values accepted from the classifier.
const (
	ComplexityLow    = "low"
	ComplexityMedium = "medium"
	ComplexityHigh   = "high"
)

// Categorization is the classifier's result for a message: a category
// label, a complexity estimate, and a set of topics. It is attached to the
// persisted message for audit and does not feed back into rule matching.
type Categorization struct {
	Category   string   `json:"category"`
	Complexity string   `json:"complexity"`
	Topics     []string `json:"topics"`
}

// Validate checks the categorization against the closed schema expected at
// the classifier trust boundary.
func (c Categorization) Validate() error {
	if c.Category == "" {
		return fmt.Errorf("categorization missing category")
	}
	switch c.Complexity {
	case ComplexityLow, ComplexityMedium, ComplexityHigh:
	default:
		return fmt.Errorf("categorization has unknown complexity %q", c.Complexity)
	}
	for i, t := range c.Topics {
		if t == "" {
			return fmt.Errorf("categorization topic %d is empty", i)
		}
	}
	return nil
}
