package graph

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/calendar-agent-poc/server/internal/agent/graph/conversations"
	"github.com/calendar-agent-poc/server/internal/agent/graph/nodes"
	"github.com/calendar-agent-poc/server/internal/agent/graph/observers"
	"github.com/calendar-agent-poc/server/internal/agent/graph/prompts"
	"github.com/calendar-agent-poc/server/internal/agent/graph/tools"
	"github.com/calendar-agent-poc/server/internal/agent/model"
	errx "github.com/calendar-agent-poc/server/internal/core/error"
	logx "github.com/calendar-agent-poc/server/pkg/logger"
)

// Runner executes one user turn and returns the final assistant text.
type Runner interface {
	Invoke(ctx context.Context, in model.QueryInput) (string, error)
	// Reset forgets a thread's history.
	Reset(ctx context.Context, conversationID string) error
}

// Metrics receives per-turn measurements.
type Metrics interface {
	ObserveTurn(outcome string, elapsed time.Duration)
	ObserveReasonStep(costUSD float64)
}

// Config holds everything needed to assemble the calendar agent.
type Config struct {
	ChatModel        einomodel.ToolCallingChatModel
	ModelName        string
	Registry         *tools.Registry
	ConversationRepo model.ConversationRepository
	Agent            model.AgentConfig

	// Location is used for the date shown in the system prompt. Defaults to
	// Agent.TimeZone, then UTC.
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time

	Callbacks []callbacks.Handler
	Metrics   Metrics
}

type calendarAgent struct {
	mm       *conversations.MessagesManager
	reason   *nodes.ReasonNode
	executor *tools.Executor
	loc      *time.Location
	now      func() time.Time
	handlers []callbacks.Handler
	metrics  Metrics
	locks    *threadLocks
}

// BuildCalendarAgent binds the registry's tools to the chat model and returns
// a Runner over the conversation repository.
func BuildCalendarAgent(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.ChatModel == nil {
		return nil, fmt.Errorf("chat model is nil")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("tool registry is nil")
	}
	if cfg.ConversationRepo == nil {
		return nil, fmt.Errorf("conversation repo is nil")
	}

	loc := cfg.Location
	if loc == nil && cfg.Agent.TimeZone != "" {
		l, err := time.LoadLocation(cfg.Agent.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("invalid time zone %q: %w", cfg.Agent.TimeZone, err)
		}
		loc = l
	}
	if loc == nil {
		loc = time.UTC
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	reason, err := nodes.NewReasonNode(cfg.ChatModel, cfg.Registry.Infos(), nodes.ReasonConfig{
		ModelName:     cfg.ModelName,
		Timeout:       cfg.Agent.ModelTimeout,
		MaxIterations: cfg.Agent.MaxIterations,
		Callbacks:     cfg.Callbacks,
	})
	if err != nil {
		return nil, err
	}

	execOpts := []tools.ExecutorOption{tools.WithCallbacks(cfg.Callbacks...)}
	if obs, ok := cfg.Metrics.(tools.Observer); ok {
		execOpts = append(execOpts, tools.WithObserver(obs))
	}

	logx.Debug().Strs("tools", cfg.Registry.Names()).Int("max_iterations", reason.MaxIterations()).Msg("Calendar agent built successfully")
	return &calendarAgent{
		mm:       conversations.NewMessagesManager(cfg.ConversationRepo),
		reason:   reason,
		executor: tools.NewExecutor(cfg.Registry, cfg.Agent.ToolTimeout, execOpts...),
		loc:      loc,
		now:      now,
		handlers: cfg.Callbacks,
		metrics:  cfg.Metrics,
		locks:    newThreadLocks(),
	}, nil
}

func (a *calendarAgent) Reset(ctx context.Context, conversationID string) error {
	unlock, err := a.locks.lock(ctx, conversationID)
	if err != nil {
		return err
	}
	defer unlock()
	return a.mm.Clear(ctx, conversationID)
}

// Invoke runs REASON -> (DISPATCH -> REASON)* -> DONE for one user message.
// A tool-requesting assistant message is committed in one batch with its tool
// results, a final answer on its own; a failed step commits nothing.
func (a *calendarAgent) Invoke(ctx context.Context, in model.QueryInput) (reply string, err error) {
	if strings.TrimSpace(in.ConversationID) == "" {
		return "", fmt.Errorf("conversation id is required")
	}

	start := time.Now()
	defer func() {
		if a.metrics != nil {
			a.metrics.ObserveTurn(outcomeOf(err), time.Since(start))
		}
	}()

	unlock, err := a.locks.lock(ctx, in.ConversationID)
	if err != nil {
		return "", err
	}
	defer unlock()

	state, err := a.newTurn(ctx, in)
	if err != nil {
		return "", err
	}

	history, err := a.mm.GetOrCreate(ctx, in.ConversationID)
	if err != nil {
		return "", err
	}
	msgs := history.Messages

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		switch state.State {
		case model.StateReason:
			out, err := a.reason.Generate(ctx, state, slices.Concat(msgs, state.Pending))
			if a.metrics != nil && err == nil {
				a.metrics.ObserveReasonStep(stepCost(out))
			}
			if err != nil {
				return "", err
			}

			next := nodes.Route(out)
			if next == model.StateDispatch && state.ToolCallLimitReached {
				logx.Error().
					Str("conversation_id", state.ConversationID).
					Int("iteration", state.Iteration).
					Int("tool_calls", len(out.ToolCalls)).
					Msg("Model kept requesting tools after wrap-up notice")
				return "", errx.IterationLimit(a.reason.MaxIterations())
			}

			staged := append(slices.Clip(state.Pending), out)
			if next == model.StateDispatch {
				// a tool request is only stored together with its results
				if err := conversations.ValidateAppend(msgs, staged); err != nil {
					return "", err
				}
				state.Pending = staged
				state.State = next
				continue
			}
			if err := a.commit(ctx, state.ConversationID, staged); err != nil {
				return "", err
			}
			msgs = append(msgs, staged...)
			state.Pending = nil
			state.State = next

		case model.StateDispatch:
			request := state.Pending[len(state.Pending)-1]
			results, err := a.executor.ExecuteAll(ctx, request.ToolCalls)
			if err != nil {
				return "", err
			}

			batch := make([]*schema.Message, 0, len(state.Pending)+len(results))
			batch = append(batch, state.Pending...)
			for _, r := range results {
				batch = append(batch, r.Message())
			}
			if err := a.commit(ctx, state.ConversationID, batch); err != nil {
				return "", err
			}
			msgs = append(msgs, batch...)
			state.Pending = nil
			nodes.CompleteDispatch(state, len(results))
			logx.Debug().
				Str("conversation_id", state.ConversationID).
				Int("iteration", state.Iteration).
				Int("tool_call_count", state.ToolCallCount).
				Msg("Tool round committed")
			state.State = model.StateReason

		case model.StateDone:
			final := msgs[len(msgs)-1]
			logx.Info().
				Str("conversation_id", state.ConversationID).
				Int("iterations", state.Iteration).
				Int("tool_calls", state.ToolCallCount).
				Float64("total_cost_usd", state.TotalCostUSD).
				Msg("Turn completed")
			return final.Content, nil

		default:
			return "", errx.Structural("unknown router state %q", state.State)
		}
	}
}

// newTurn renders the system prompt and stages the user message.
func (a *calendarAgent) newTurn(ctx context.Context, in model.QueryInput) (*model.TurnState, error) {
	promptCtx := ctx
	if len(a.handlers) > 0 {
		promptCtx = callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
			Name:      nodes.NodeSystemPrompt,
			Component: components.ComponentOfPrompt,
		}, a.handlers...)
	}
	systemPrompt, err := prompts.RenderSystem(promptCtx, a.now(), a.loc)
	if err != nil {
		return nil, err
	}

	return &model.TurnState{
		ConversationID: in.ConversationID,
		State:          model.StateReason,
		SystemPrompt:   systemPrompt,
		Pending:        []*schema.Message{schema.UserMessage(in.Query)},
	}, nil
}

func (a *calendarAgent) commit(ctx context.Context, conversationID string, batch []*schema.Message) error {
	// a cancelled turn must not leave a partial step behind
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.mm.Append(ctx, conversationID, batch...)
}

func stepCost(out *schema.Message) float64 {
	if out == nil || out.Extra == nil {
		return 0
	}
	cost, _ := out.Extra["usage_cost"].(map[string]any)
	total, _ := cost["total_cost"].(float64)
	return total
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return observers.OutcomeOK
	case errors.Is(err, errx.ErrTransient):
		return observers.OutcomeTransient
	case errors.Is(err, errx.ErrStructural):
		return observers.OutcomeStructural
	case errors.Is(err, errx.ErrIterationLimit):
		return observers.OutcomeIterationLimit
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return observers.OutcomeCanceled
	}
	return observers.OutcomeError
}
