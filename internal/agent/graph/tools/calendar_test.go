package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/calendar-agent-poc/server/internal/agent/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const createArgs = `{"summary":"Design review","start":{"dateTime":"2025-12-10T15:00:00+05:30","timeZone":"Asia/Kolkata"},"end":{"dateTime":"2025-12-10T16:00:00+05:30","timeZone":"Asia/Kolkata"},"attendees":[{"email":"dev@example.com","displayName":"Dev"}]}`

func TestListEventsSerializesEvents(t *testing.T) {
	svc := &fakeCalendar{events: []model.CalendarEvent{{ID: "e1", Title: "Prodgain Interview", Status: "confirmed"}}}
	ex := NewExecutor(mustRegistry(t, svc), 0)

	res, err := ex.Execute(context.Background(), toolCall("c1", ListEventsName, `{"query":"interview","timeMin":"2025-12-10T00:00:00+05:30"}`))
	require.NoError(t, err)
	require.False(t, res.Failed())

	var events []model.CalendarEvent
	require.NoError(t, sonic.UnmarshalString(res.Content, &events))
	require.Len(t, events, 1)
	assert.Equal(t, "Prodgain Interview", events[0].Title)
	assert.Equal(t, []model.ListEventsQuery{{Query: "interview", TimeMin: "2025-12-10T00:00:00+05:30"}}, svc.queries)
}

func TestListEventsBackendFailure(t *testing.T) {
	svc := &fakeCalendar{listErr: errors.New("dial tcp: connection refused")}
	ex := NewExecutor(mustRegistry(t, svc), 0)

	res, err := ex.Execute(context.Background(), toolCall("c1", ListEventsName, `{}`))
	require.NoError(t, err)
	assert.Equal(t, ListEventsFailed, res.Content)
}

func TestCreateEventTwiceCreatesTwo(t *testing.T) {
	svc := &fakeCalendar{}
	ex := NewExecutor(mustRegistry(t, svc), 0)

	results, err := ex.ExecuteAll(context.Background(), []schema.ToolCall{
		toolCall("a", CreateEventName, createArgs),
		toolCall("b", CreateEventName, createArgs),
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, EventCreated, results[0].Content)
	assert.Equal(t, EventCreated, results[1].Content)
	require.Len(t, svc.created, 2)
	assert.Equal(t, "dev@example.com", svc.created[0].Attendees[0].Email)
	assert.Equal(t, "Asia/Kolkata", svc.created[1].Start.TimeZone)
}

func TestCreateEventNotConfirmed(t *testing.T) {
	svc := &fakeCalendar{status: "tentative"}
	res, err := NewExecutor(mustRegistry(t, svc), 0).Execute(context.Background(), toolCall("a", CreateEventName, createArgs))
	require.NoError(t, err)
	assert.Equal(t, EventCreateFailed, res.Content)

	svc = &fakeCalendar{createErr: errors.New("403")}
	res, err = NewExecutor(mustRegistry(t, svc), 0).Execute(context.Background(), toolCall("a", CreateEventName, createArgs))
	require.NoError(t, err)
	assert.Equal(t, EventCreateFailed, res.Content)
}

func TestDeleteEventWithUnseenIDStillRuns(t *testing.T) {
	svc := &fakeCalendar{}
	ex := NewExecutor(mustRegistry(t, svc), 0)

	res, err := ex.Execute(context.Background(), toolCall("a", DeleteEventName, `{"eventId":"never-listed"}`))
	require.NoError(t, err)
	assert.Equal(t, EventDeleted, res.Content)
	assert.Equal(t, []string{"never-listed"}, svc.deleted)

	res, err = ex.Execute(context.Background(), toolCall("b", DeleteEventName, `{"eventId":"missing"}`))
	require.NoError(t, err)
	assert.Equal(t, EventDeleteFailed, res.Content)
}

func mustRegistry(t *testing.T, svc CalendarService) *Registry {
	t.Helper()
	reg, err := NewCalendarRegistry(svc)
	require.NoError(t, err)
	return reg
}
