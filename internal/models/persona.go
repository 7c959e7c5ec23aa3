package models

// Persona attribute levels. A level tunes how strongly a named trait
// shapes the system prompt.
const (
	LevelOff      = 0
	LevelModerate = 1
	LevelStrong   = 2
)

// PersonaAttribute maps a single attribute name to an integer level in
// {0,1,2}. A persona is an ordered set of attributes with unique names.
type PersonaAttribute struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}
