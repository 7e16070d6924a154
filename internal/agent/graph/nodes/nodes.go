package nodes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/calendar-agent-poc/server/internal/agent/model"
	errx "github.com/calendar-agent-poc/server/internal/core/error"
	logx "github.com/calendar-agent-poc/server/pkg/logger"
)

const (
	NodeSystemPrompt = "SystemPrompt"
	NodeReason       = "Reason"
	NodeToolExecutor = "ToolExecutor"
)

// ReasonConfig tunes a ReasonNode.
type ReasonConfig struct {
	ModelName     string
	Timeout       time.Duration
	MaxIterations int
	Callbacks     []callbacks.Handler
}

// ReasonNode produces the next assistant message from the conversation so far.
type ReasonNode struct {
	bound   einomodel.ToolCallingChatModel
	unbound einomodel.ToolCallingChatModel
	cfg     ReasonConfig
}

// NewReasonNode binds toolInfos to cm once. cm itself stays tool-free and is
// used for the wrap-up call once the loop bound is hit.
func NewReasonNode(cm einomodel.ToolCallingChatModel, toolInfos []*schema.ToolInfo, cfg ReasonConfig) (*ReasonNode, error) {
	if cm == nil {
		return nil, fmt.Errorf("chat model is nil")
	}
	bound, err := cm.WithTools(toolInfos)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools")
		return nil, fmt.Errorf("failed to bind tools: %w", err)
	}
	cfg.MaxIterations = normalizeMaxIterations(cfg.MaxIterations)
	logx.Debug().Int("tools", len(toolInfos)).Str("model", cfg.ModelName).Msg("Successfully bound tools to chat model")
	return &ReasonNode{bound: bound, unbound: cm, cfg: cfg}, nil
}

func (n *ReasonNode) MaxIterations() int { return n.cfg.MaxIterations }

// Generate runs one reasoning call over systemPrompt + history. Backend
// failures come back as errx.ErrTransient; a cancelled ctx returns ctx.Err().
func (n *ReasonNode) Generate(ctx context.Context, state *model.TurnState, history []*schema.Message) (*schema.Message, error) {
	in := make([]*schema.Message, 0, len(history)+2)
	in = append(in, schema.SystemMessage(state.SystemPrompt))
	in = append(in, history...)

	cm := n.bound
	if checkAndMarkIterationLimit(state, n.cfg.MaxIterations) {
		logx.Warn().
			Str("conversation_id", state.ConversationID).
			Int("iteration", state.Iteration).
			Int("max_iterations", n.cfg.MaxIterations).
			Msg("Tool loop limit reached - asking the model to wrap up")
	}
	if state.ToolCallLimitReached {
		cm = n.unbound
		in = append(in, wrapUpNotice(n.cfg.MaxIterations))
	}

	callCtx := ctx
	if n.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, n.cfg.Timeout)
		defer cancel()
	}
	if len(n.cfg.Callbacks) > 0 {
		callCtx = callbacks.InitCallbacks(callCtx, &callbacks.RunInfo{
			Name:      NodeReason,
			Type:      n.cfg.ModelName,
			Component: components.ComponentOfChatModel,
		}, n.cfg.Callbacks...)
	}

	logx.Debug().Str("conversation_id", state.ConversationID).Int("iteration", state.Iteration).Msg("AI thinking...")

	out, err := cm.Generate(callCtx, in)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logx.Error().Err(err).Str("conversation_id", state.ConversationID).Msg("Reasoning call failed")
		return nil, errx.WrapModel(fmt.Errorf("generate: %w", err))
	}
	if out == nil {
		return nil, errx.WrapModel(errors.New("model returned no message"))
	}

	if err := n.postProcess(state, out); err != nil {
		return nil, err
	}
	return out, nil
}

// postProcess normalises the role, fills missing tool call ids and records
// usage cost.
func (n *ReasonNode) postProcess(state *model.TurnState, out *schema.Message) error {
	if out.Role == "" {
		out.Role = schema.Assistant
	}
	if out.Role != schema.Assistant {
		return errx.WrapModel(fmt.Errorf("model returned a %q message", out.Role))
	}

	if model.CostEnabled() && out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		modelName := n.cfg.ModelName
		usage := out.ResponseMeta.Usage
		inC, outC, totalC := model.ComputeCost(usage, model.ResolvePricing(modelName))
		if out.Extra == nil {
			out.Extra = map[string]any{}
		}
		out.Extra["usage_cost"] = map[string]any{
			"currency":          "USD",
			"model":             modelName,
			"prompt_tokens":     usage.PromptTokens,
			"completion_tokens": usage.CompletionTokens,
			"total_tokens":      usage.TotalTokens,
			"input_cost":        inC,
			"output_cost":       outC,
			"total_cost":        totalC,
		}
		logx.Debug().
			Str("conversation_id", state.ConversationID).
			Str("node", NodeReason).
			Str("model", modelName).
			Int("prompt_tokens", usage.PromptTokens).
			Int("completion_tokens", usage.CompletionTokens).
			Int("total_tokens", usage.TotalTokens).
			Float64("input_cost_usd", inC).
			Float64("output_cost_usd", outC).
			Float64("total_cost_usd", totalC).
			Msg("LLM usage")

		state.TotalCostUSD += totalC
		out.Extra["usage_cost_total_usd"] = state.TotalCostUSD
	}

	// Some providers (Gemini OpenAI-compat, local models) omit tool call ids.
	if len(out.ToolCalls) > 0 {
		taken := make(map[string]struct{}, len(out.ToolCalls))
		for _, tc := range out.ToolCalls {
			if id := strings.TrimSpace(tc.ID); id != "" {
				taken[id] = struct{}{}
			}
		}
		for i := range out.ToolCalls {
			if out.ToolCalls[i].Type == "" {
				out.ToolCalls[i].Type = "function"
			}
			if strings.TrimSpace(out.ToolCalls[i].ID) != "" {
				continue
			}
			out.ToolCalls[i].ID = uniqueToolCallID(state, taken)
		}
		logx.Debug().Int("tool_count", len(out.ToolCalls)).Msg("Calling tools")
	} else {
		logx.Debug().Msg("AI response ready")
	}
	return nil
}

// Route picks the next router state for a committed assistant message.
func Route(out *schema.Message) model.RouterState {
	if out != nil && len(out.ToolCalls) > 0 {
		return model.StateDispatch
	}
	return model.StateDone
}

func wrapUpNotice(maxIterations int) *schema.Message {
	return schema.SystemMessage(fmt.Sprintf(
		"SYSTEM NOTICE: You have reached the maximum tool call limit (%d). "+
			"Please synthesize a helpful response using the information you've already gathered. "+
			"Acknowledge any limitations in your response if you couldn't complete all necessary tool calls.",
		maxIterations,
	))
}
