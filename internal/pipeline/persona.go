package pipeline

import (
	"fmt"
	"strings"

	"github.com/moderatehq/turnstile/internal/models"
)

// basePersonaPrompt opens every system prompt; attribute lines follow it.
const basePersonaPrompt = "You are the assistant in this conversation. Stay in character."

// levelPhrase maps an attribute level to its prompt wording.
var levelPhrase = [3]string{
	"Keep %q out of your responses.",
	"Let a moderate amount of %q come through in your responses.",
	"Let %q strongly shape every response.",
}

// BuildPersonaPrompt renders a set of persona attribute levels into the
// system-prompt fragment. It is a pure function: the same attributes in the
// same order always produce a byte-identical fragment.
func BuildPersonaPrompt(attrs []models.PersonaAttribute) (string, error) {
	if len(attrs) == 0 {
		return "", &ConfigurationError{Reason: "persona has no attributes"}
	}

	seen := make(map[string]struct{}, len(attrs))
	var sb strings.Builder
	sb.WriteString(basePersonaPrompt)

	for _, attr := range attrs {
		if attr.Name == "" {
			return "", &ConfigurationError{Reason: "persona attribute has empty name"}
		}
		if attr.Level < models.LevelOff || attr.Level > models.LevelStrong {
			return "", &ConfigurationError{
				Reason: fmt.Sprintf("persona attribute %q has level %d outside {0,1,2}", attr.Name, attr.Level),
			}
		}
		if _, dup := seen[attr.Name]; dup {
			return "", &ConfigurationError{
				Reason: fmt.Sprintf("persona attribute %q appears more than once", attr.Name),
			}
		}
		seen[attr.Name] = struct{}{}

		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf(levelPhrase[attr.Level], attr.Name))
	}

	return sb.String(), nil
}
