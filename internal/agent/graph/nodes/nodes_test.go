package nodes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calendar-agent-poc/server/internal/agent/graph/graphtest"
	"github.com/calendar-agent-poc/server/internal/agent/model"
	errx "github.com/calendar-agent-poc/server/internal/core/error"
)

var testTools = []*schema.ToolInfo{{Name: "list-events", Desc: "list"}}

func newNode(t *testing.T, cm *graphtest.ScriptedModel, cfg ReasonConfig) *ReasonNode {
	t.Helper()
	n, err := NewReasonNode(cm, testTools, cfg)
	require.NoError(t, err)
	return n
}

func TestGenerateSynthesizesMissingToolCallIDs(t *testing.T) {
	cm := graphtest.NewScriptedModel(graphtest.CallTools(
		graphtest.ToolCall("", "list-events", "{}"),
		graphtest.ToolCall("call_1", "list-events", "{}"),
		graphtest.ToolCall("", "list-events", "{}"),
	))
	n := newNode(t, cm, ReasonConfig{ModelName: "gemini-2.5-flash"})
	state := &model.TurnState{ConversationID: "t", SystemPrompt: "sys"}

	out, err := n.Generate(context.Background(), state, []*schema.Message{schema.UserMessage("hi")})
	require.NoError(t, err)
	require.Len(t, out.ToolCalls, 3)
	assert.Equal(t, "call_2", out.ToolCalls[0].ID)
	assert.Equal(t, "call_1", out.ToolCalls[1].ID)
	assert.Equal(t, "call_3", out.ToolCalls[2].ID)
	assert.Equal(t, model.StateDispatch, Route(out))

	calls := cm.Calls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].WithTools)
	assert.Equal(t, schema.System, calls[0].Messages[0].Role)
	assert.Equal(t, "sys", calls[0].Messages[0].Content)
}

func TestGenerateAccumulatesCost(t *testing.T) {
	cm := graphtest.NewScriptedModel(func(context.Context, []*schema.Message) (*schema.Message, error) {
		m := schema.AssistantMessage("ok", nil)
		m.ResponseMeta = &schema.ResponseMeta{Usage: &schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 0, TotalTokens: 1_000_000}}
		return m, nil
	})
	n := newNode(t, cm, ReasonConfig{ModelName: "gemini-2.5-flash"})
	state := &model.TurnState{TotalCostUSD: 0.5}

	out, err := n.Generate(context.Background(), state, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, state.TotalCostUSD, 1e-9)
	assert.InDelta(t, 0.8, out.Extra["usage_cost_total_usd"], 1e-9)
	assert.Equal(t, model.StateDone, Route(out))
}

func TestGenerateBackendErrorIsTransient(t *testing.T) {
	n := newNode(t, graphtest.NewScriptedModel(graphtest.Fail(errors.New("503 unavailable"))), ReasonConfig{})

	_, err := n.Generate(context.Background(), &model.TurnState{}, nil)
	assert.ErrorIs(t, err, errx.ErrTransient)
}

func TestGenerateNilMessageIsTransient(t *testing.T) {
	n := newNode(t, graphtest.NewScriptedModel(func(context.Context, []*schema.Message) (*schema.Message, error) {
		return nil, nil
	}), ReasonConfig{})

	_, err := n.Generate(context.Background(), &model.TurnState{}, nil)
	assert.ErrorIs(t, err, errx.ErrTransient)
}

func TestGenerateTimeout(t *testing.T) {
	n := newNode(t, graphtest.NewScriptedModel(graphtest.Block()), ReasonConfig{Timeout: 20 * time.Millisecond})

	_, err := n.Generate(context.Background(), &model.TurnState{}, nil)
	assert.ErrorIs(t, err, errx.ErrTransient)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGenerateParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n := newNode(t, graphtest.NewScriptedModel(graphtest.Block()), ReasonConfig{Timeout: time.Second})

	_, err := n.Generate(ctx, &model.TurnState{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, errx.ErrTransient)
}

func TestGenerateWrapUpAfterIterationLimit(t *testing.T) {
	cm := graphtest.NewScriptedModel(graphtest.Reply("summary"))
	n := newNode(t, cm, ReasonConfig{MaxIterations: 2})
	state := &model.TurnState{Iteration: 2}

	out, err := n.Generate(context.Background(), state, []*schema.Message{schema.UserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "summary", out.Content)
	assert.True(t, state.ToolCallLimitReached)

	calls := cm.Calls()
	require.Len(t, calls, 1)
	assert.False(t, calls[0].WithTools)
	last := calls[0].Messages[len(calls[0].Messages)-1]
	assert.Equal(t, schema.System, last.Role)
	assert.Contains(t, last.Content, "maximum tool call limit (2)")
}

func TestGenerateRejectsNonAssistantRole(t *testing.T) {
	n := newNode(t, graphtest.NewScriptedModel(func(context.Context, []*schema.Message) (*schema.Message, error) {
		return schema.UserMessage("?"), nil
	}), ReasonConfig{})

	_, err := n.Generate(context.Background(), &model.TurnState{}, nil)
	assert.ErrorIs(t, err, errx.ErrTransient)
}

func TestNormalizeMaxIterations(t *testing.T) {
	assert.Equal(t, DefaultMaxIterations, normalizeMaxIterations(0))
	assert.Equal(t, 3, normalizeMaxIterations(3))

	state := &model.TurnState{}
	CompleteDispatch(state, 2)
	assert.Equal(t, 1, state.Iteration)
	assert.Equal(t, 2, state.ToolCallCount)
	assert.False(t, checkAndMarkIterationLimit(state, 2))
	CompleteDispatch(state, 1)
	assert.True(t, checkAndMarkIterationLimit(state, 2))
	assert.False(t, checkAndMarkIterationLimit(state, 2))
}

func TestNewChatModelRejectsUnknownProvider(t *testing.T) {
	_, err := NewChatModel(context.Background(), model.ModelConfig{Provider: "carrier-pigeon", Model: "x"})
	assert.ErrorContains(t, err, "unsupported model provider")

	_, err = NewChatModel(context.Background(), model.ModelConfig{Provider: "openai"})
	assert.ErrorContains(t, err, "model name is required")
}
