package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/gg/gptr"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	einoOllama "github.com/cloudwego/eino-ext/components/model/ollama"
	einoOpenAI "github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/calendar-agent-poc/server/internal/agent/model"
	logx "github.com/calendar-agent-poc/server/pkg/logger"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	defaultOllamaBaseURL = "http://localhost:11434"
)

// NewChatModel creates the tool-calling chat model selected by cfg.Provider.
// "openai" covers every OpenAI-compatible endpoint, e.g. Groq with
// MODEL_BASE_URL=https://api.groq.com/openai/v1.
func NewChatModel(ctx context.Context, cfg model.ModelConfig) (einomodel.ToolCallingChatModel, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Model == "" {
		return nil, fmt.Errorf("model name is required for provider %q", provider)
	}

	var (
		cm  einomodel.ToolCallingChatModel
		err error
	)
	switch provider {
	case ProviderGemini, "":
		cm, err = newGeminiChatModel(ctx, cfg)
	case ProviderOpenAI, "groq":
		cm, err = newOpenAIChatModel(ctx, cfg)
	case ProviderOllama:
		cm, err = newOllamaChatModel(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported model provider %q", cfg.Provider)
	}
	if err != nil {
		logx.Error().Err(err).Str("provider", provider).Str("model", cfg.Model).Msg("Error creating chat model")
		return nil, err
	}

	logx.Debug().Str("provider", provider).Str("model", cfg.Model).Msg("Chat model ready")
	return cm, nil
}

func newGeminiChatModel(ctx context.Context, cfg model.ModelConfig) (einomodel.ToolCallingChatModel, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	conf := &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: gptr.Of(cfg.Temperature),
	}
	if cfg.MaxTokens > 0 {
		conf.MaxTokens = gptr.Of(cfg.MaxTokens)
	}

	cm, err := gemini.NewChatModel(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("error creating Gemini model: %w", err)
	}
	return cm, nil
}

func newOpenAIChatModel(ctx context.Context, cfg model.ModelConfig) (einomodel.ToolCallingChatModel, error) {
	conf := &einoOpenAI.ChatModelConfig{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: gptr.Of(cfg.Temperature),
	}
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}
	if cfg.MaxTokens > 0 {
		conf.MaxTokens = gptr.Of(cfg.MaxTokens)
	}

	cm, err := einoOpenAI.NewChatModel(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("error creating OpenAI-compatible model: %w", err)
	}
	return cm, nil
}

func newOllamaChatModel(ctx context.Context, cfg model.ModelConfig) (einomodel.ToolCallingChatModel, error) {
	conf := &einoOllama.ChatModelConfig{
		BaseURL: defaultOllamaBaseURL,
		Model:   cfg.Model,
		Options: &einoOllama.Options{Temperature: cfg.Temperature},
	}
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}

	cm, err := einoOllama.NewChatModel(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("error creating Ollama model: %w", err)
	}
	return cm, nil
}
