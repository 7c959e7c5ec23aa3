// Package config loads service configuration from environment variables.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider identifies an LLM backend.
type Provider string

// Supported LLM providers.
const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderBedrock   Provider = "bedrock"
)

// RewriteScope controls which part of the history rule substitutions apply to.
type RewriteScope string

const (
	// RewriteScopeHistory applies triggered substitutions to every message
	// sent to the model, including earlier turns.
	RewriteScopeHistory RewriteScope = "history"
	// RewriteScopeCurrent restricts substitution to the inbound message only.
	RewriteScopeCurrent RewriteScope = "current"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	DBURL       string
	DBNamespace string
	DBDatabase  string
	DBUser      string
	DBPass      string
	DBAuthLevel string

	// Completion model
	LLMProvider Provider
	LLMModel    string

	// Classifier model (same provider as completion)
	ClassifierModel string

	// Provider credentials/endpoints
	OllamaHost      string
	OpenAIAPIKey    string
	AnthropicAPIKey string

	// Turn processing
	RewriteScope RewriteScope
	TurnTimeout  time.Duration
	HistoryLimit int
	AuditBuffer  int

	// HTTP server
	ServerPort string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		DBURL:       getEnv("TURNSTILE_DB_URL", "ws://localhost:8000/rpc"),
		DBNamespace: getEnv("TURNSTILE_DB_NAMESPACE", "turnstile"),
		DBDatabase:  getEnv("TURNSTILE_DB_DATABASE", "turns"),
		DBUser:      getEnv("TURNSTILE_DB_USER", "root"),
		DBPass:      getEnv("TURNSTILE_DB_PASS", "root"),
		DBAuthLevel: getEnv("TURNSTILE_DB_AUTH_LEVEL", "root"),

		LLMProvider:     Provider(getEnv("TURNSTILE_LLM_PROVIDER", string(ProviderOllama))),
		LLMModel:        getEnv("TURNSTILE_LLM_MODEL", "llama3.1"),
		ClassifierModel: getEnv("TURNSTILE_CLASSIFIER_MODEL", "llama3.1"),

		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),

		RewriteScope: parseRewriteScope(getEnv("TURNSTILE_REWRITE_SCOPE", string(RewriteScopeHistory))),
		TurnTimeout:  parseDuration(getEnv("TURNSTILE_TURN_TIMEOUT", "2m"), 2*time.Minute),
		HistoryLimit: parseInt(getEnv("TURNSTILE_HISTORY_LIMIT", "50"), 50),
		AuditBuffer:  parseInt(getEnv("TURNSTILE_AUDIT_BUFFER", "256"), 256),

		ServerPort: getEnv("TURNSTILE_SERVER_PORT", "8486"),

		LogFile:  getEnv("TURNSTILE_LOG_FILE", "/tmp/turnstile.log"),
		LogLevel: parseLogLevel(getEnv("TURNSTILE_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseRewriteScope(s string) RewriteScope {
	if RewriteScope(strings.ToLower(s)) == RewriteScopeCurrent {
		return RewriteScopeCurrent
	}
	return RewriteScopeHistory
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
