package repo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	errx "github.com/calendar-agent-poc/server/internal/core/error"
	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisRepo(t *testing.T, ttl time.Duration) (*RedisConversationRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisConversationRepository(rdb, ttl), mr
}

func TestRedisAppendAndLoadPreservesOrder(t *testing.T) {
	ctx := context.Background()
	r, mr := newRedisRepo(t, time.Hour)

	call := schema.ToolCall{ID: "call_1", Function: schema.FunctionCall{Name: "getEvents", Arguments: `{}`}}
	require.NoError(t, r.AppendMessages(ctx, "t1",
		schema.UserMessage("what's on today?"),
		schema.AssistantMessage("", []schema.ToolCall{call}),
	))
	require.NoError(t, r.AppendMessages(ctx, "t1", schema.ToolMessage("[]", "call_1", schema.WithToolName("getEvents"))))

	h, err := r.LoadHistory(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, h.Messages, 3)
	assert.Equal(t, schema.User, h.Messages[0].Role)
	assert.Equal(t, "call_1", h.Messages[1].ToolCalls[0].ID)
	assert.Equal(t, "call_1", h.Messages[2].ToolCallID)
	assert.Equal(t, "getEvents", h.Messages[2].ToolName)

	assert.True(t, mr.TTL("conversation:t1:messages") > 0)

	n, err := r.GetMessageCount(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRedisUnknownConversationIsEmpty(t *testing.T) {
	r, _ := newRedisRepo(t, 0)

	h, err := r.LoadHistory(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, h.Messages)

	n, err := r.GetMessageCount(context.Background(), "nope")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisClearHistory(t *testing.T) {
	ctx := context.Background()
	r, mr := newRedisRepo(t, 0)

	require.NoError(t, r.AppendMessages(ctx, "t1", schema.UserMessage("hi")))
	require.NoError(t, r.AppendMessages(ctx, "t2", schema.UserMessage("hello")))
	require.NoError(t, r.ClearHistory(ctx, "t1"))

	assert.False(t, mr.Exists("conversation:t1:messages"))
	n, err := r.GetMessageCount(ctx, "t2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRedisFailureIsTransient(t *testing.T) {
	r, mr := newRedisRepo(t, 0)
	mr.Close()

	err := r.AppendMessages(context.Background(), "t1", schema.UserMessage("hi"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errx.ErrTransient)
}

func TestRedisStoresOneJSONRowPerMessage(t *testing.T) {
	ctx := context.Background()
	r, mr := newRedisRepo(t, time.Hour)

	require.NoError(t, r.AppendMessages(ctx, "t1",
		schema.UserMessage("delete it"),
		schema.AssistantMessage("", []schema.ToolCall{{ID: "call_7", Type: "function", Function: schema.FunctionCall{Name: "delete-event", Arguments: `{"eventId":"e1"}`}}}),
		schema.ToolMessage("The event has been deleted", "call_7"),
	))

	rows, err := mr.List("conversation:t1:messages")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Contains(t, rows[1], `"name":"delete-event"`)
	assert.Contains(t, rows[2], `"tool_call_id":"call_7"`)

	h, err := r.LoadHistory(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, `{"eventId":"e1"}`, h.Messages[1].ToolCalls[0].Function.Arguments)
	assert.Equal(t, schema.Tool, h.Messages[2].Role)
}
