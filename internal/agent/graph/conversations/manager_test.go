package conversations

import (
	"context"
	"testing"

	"github.com/calendar-agent-poc/server/internal/agent/repo"
	errx "github.com/calendar-agent-poc/server/internal/core/error"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func call(id, name string) schema.ToolCall {
	return schema.ToolCall{ID: id, Function: schema.FunctionCall{Name: name, Arguments: "{}"}}
}

func TestGetOrCreateNewThreadIsEmpty(t *testing.T) {
	m := NewMessagesManager(repo.NewMemoryConversationRepository())

	h, err := m.GetOrCreate(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Equal(t, "fresh", h.ConversationID)
	assert.NotNil(t, h.Messages)
	assert.Empty(t, h.Messages)
}

func TestAppendPairsToolMessages(t *testing.T) {
	ctx := context.Background()
	m := NewMessagesManager(repo.NewMemoryConversationRepository())

	require.NoError(t, m.Append(ctx, "t", schema.UserMessage("hi"), schema.AssistantMessage("", []schema.ToolCall{call("a", "getEvents"), call("b", "getEvents")})))
	require.NoError(t, m.Append(ctx, "t", schema.ToolMessage("[]", "a"), schema.ToolMessage("[]", "b")))
	require.NoError(t, m.Append(ctx, "t", schema.AssistantMessage("done", nil)))

	n, err := m.Count(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestAppendRejectsUnpairedToolMessage(t *testing.T) {
	ctx := context.Background()
	m := NewMessagesManager(repo.NewMemoryConversationRepository())
	require.NoError(t, m.Append(ctx, "t", schema.UserMessage("hi"), schema.AssistantMessage("", []schema.ToolCall{call("a", "x")})))

	err := m.Append(ctx, "t", schema.ToolMessage("ok", "a"), schema.ToolMessage("ok", "zzz"))
	assert.ErrorIs(t, err, errx.ErrStructural)

	// the valid half of the batch is not written either
	n, err := m.Count(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestValidateAppend(t *testing.T) {
	history := []*schema.Message{
		schema.UserMessage("hi"),
		schema.AssistantMessage("", []schema.ToolCall{call("a", "x")}),
	}

	cases := []struct {
		name  string
		batch []*schema.Message
		ok    bool
	}{
		{"answer open call", []*schema.Message{schema.ToolMessage("r", "a")}, true},
		{"answer twice", []*schema.Message{schema.ToolMessage("r", "a"), schema.ToolMessage("r", "a")}, false},
		{"duplicate ids in one message", []*schema.Message{schema.ToolMessage("r", "a"), schema.AssistantMessage("", []schema.ToolCall{call("b", "x"), call("b", "x")})}, false},
		{"reuse open id", []*schema.Message{schema.AssistantMessage("", []schema.ToolCall{call("a", "x")})}, false},
		{"reuse answered id", []*schema.Message{schema.ToolMessage("r", "a"), schema.AssistantMessage("", []schema.ToolCall{call("a", "x")})}, true},
		{"empty id", []*schema.Message{schema.ToolMessage("r", "a"), schema.AssistantMessage("", []schema.ToolCall{call("", "x")})}, false},
		{"system not stored", []*schema.Message{schema.SystemMessage("s")}, false},
		{"nil message", []*schema.Message{nil}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateAppend(history, tc.batch)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, errx.ErrStructural)
			}
		})
	}
}
