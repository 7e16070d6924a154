package model

import "time"

// ================ Config ================
type ConversationConfig struct {
	// Store selects the repository backend: "memory" or "redis".
	Store string `envconfig:"CONVERSATION_STORE" default:"memory"`
	TTL   string `envconfig:"CONVERSATION_TTL" default:"24h"`
}

// ModelConfig selects and tunes the chat model used by the reasoning step.
type ModelConfig struct {
	Provider    string  `envconfig:"MODEL_PROVIDER" default:"gemini"`
	Model       string  `envconfig:"MODEL_NAME" default:"gemini-2.5-flash"`
	APIKey      string  `envconfig:"MODEL_API_KEY"`
	BaseURL     string  `envconfig:"MODEL_BASE_URL"`
	Temperature float32 `envconfig:"MODEL_TEMPERATURE" default:"0"`
	MaxTokens   int     `envconfig:"MODEL_MAX_TOKENS" default:"2000"`
}

// AgentConfig bounds the reason/dispatch loop and sets prompt context.
type AgentConfig struct {
	MaxIterations int           `envconfig:"AGENT_MAX_ITERATIONS" default:"10"`
	ModelTimeout  time.Duration `envconfig:"AGENT_MODEL_TIMEOUT" default:"60s"`
	ToolTimeout   time.Duration `envconfig:"AGENT_TOOL_TIMEOUT" default:"30s"`
	TimeZone      string        `envconfig:"AGENT_TIMEZONE" default:"Asia/Kolkata"`
	CalendarID    string        `envconfig:"AGENT_CALENDAR_ID" default:"primary"`
}
