package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/calendar-agent-poc/server/internal/agent/graph"
	"github.com/calendar-agent-poc/server/internal/agent/graph/nodes"
	"github.com/calendar-agent-poc/server/internal/agent/graph/observers"
	"github.com/calendar-agent-poc/server/internal/agent/graph/tools"
	"github.com/calendar-agent-poc/server/internal/agent/model"
	"github.com/calendar-agent-poc/server/internal/agent/repo"
	"github.com/calendar-agent-poc/server/internal/calendar"
	"github.com/calendar-agent-poc/server/internal/core"
	"github.com/calendar-agent-poc/server/internal/google"
	"github.com/calendar-agent-poc/server/internal/server"
	logx "github.com/calendar-agent-poc/server/pkg/logger"
	pkgredis "github.com/calendar-agent-poc/server/pkg/redis"
)

// AppConfig defines all configurable parameters, sourced from environment
// variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Redis  pkgredis.Config
	Server server.Config
	Google google.Config

	// Agent configs
	Model        model.ModelConfig
	Agent        model.AgentConfig
	Conversation model.ConversationConfig
}

// loadConfig reads path (when present) and then the process environment.
func loadConfig(path string) (*AppConfig, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	return &cfg, nil
}

func initLogger(cfg *AppConfig) {
	logx.Init(logx.LoggerOpts{
		Environment: core.ParseEnvironment(cfg.Environment),
		Writer:      os.Stderr,
		Level:       cfg.LogLevel,
	})
}

// newConversationRepo picks the history backend. The returned close func is
// never nil.
func newConversationRepo(ctx context.Context, cfg *AppConfig) (model.ConversationRepository, func() error, error) {
	switch strings.ToLower(cfg.Conversation.Store) {
	case "", "memory":
		return repo.NewMemoryConversationRepository(), func() error { return nil }, nil
	case "redis":
		ttl, err := time.ParseDuration(cfg.Conversation.TTL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid CONVERSATION_TTL %q: %w", cfg.Conversation.TTL, err)
		}
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialise Redis client: %w", err)
		}
		logx.Info().Dur("ttl", ttl).Msg("Connected to Redis successfully")
		return repo.NewRedisConversationRepository(rdb, ttl), rdb.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown CONVERSATION_STORE %q", cfg.Conversation.Store)
	}
}

// app holds what the commands share.
type app struct {
	cfg     *AppConfig
	creds   *google.Credentials
	runner  graph.Runner
	metrics *prometheus.Registry
	close   func() error
}

// newApp builds the agent from cfg.
func newApp(ctx context.Context, cfg *AppConfig) (*app, error) {
	creds, err := google.NewCredentials(cfg.Google)
	if err != nil {
		return nil, err
	}

	cal, err := calendar.NewClient(ctx, creds.HTTPClient(ctx), cfg.Agent.CalendarID)
	if err != nil {
		return nil, err
	}
	registry, err := tools.NewCalendarRegistry(cal)
	if err != nil {
		return nil, err
	}

	cm, err := nodes.NewChatModel(ctx, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	metrics := prometheus.NewRegistry()
	metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder, err := observers.NewRecorder(metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	convRepo, closeRepo, err := newConversationRepo(ctx, cfg)
	if err != nil {
		return nil, err
	}

	runner, err := graph.BuildCalendarAgent(ctx, graph.Config{
		ChatModel:        cm,
		ModelName:        cfg.Model.Model,
		Registry:         registry,
		ConversationRepo: convRepo,
		Agent:            cfg.Agent,
		Callbacks:        []callbacks.Handler{observers.NewAllCallbacks()},
		Metrics:          recorder,
	})
	if err != nil {
		_ = closeRepo()
		return nil, fmt.Errorf("failed to build agent: %w", err)
	}

	return &app{
		cfg:     cfg,
		creds:   creds,
		runner:  runner,
		metrics: metrics,
		close:   closeRepo,
	}, nil
}
