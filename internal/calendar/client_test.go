package calendar

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/calendar-agent-poc/server/internal/agent/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type fakeAPI struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
	status   int
	response string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, r)
	f.bodies = append(f.bodies, string(body))
	status, response := f.status, f.response
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(response))
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c, err := NewClientWithOptions(context.Background(), "primary",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return c
}

func TestListEventsMapsEvents(t *testing.T) {
	api := &fakeAPI{response: `{"items":[{
		"id":"e1","summary":"Prodgain Interview","status":"confirmed","eventType":"default",
		"organizer":{"email":"hr@prodgain.com"},
		"start":{"dateTime":"2025-12-10T14:00:00+05:30"},"end":{"dateTime":"2025-12-10T15:00:00+05:30"},
		"attendees":[{"email":"me@example.com","displayName":"Me","responseStatus":"accepted"}],
		"conferenceData":{"entryPoints":[{"entryPointType":"phone","uri":"tel:1"},{"entryPointType":"video","uri":"https://meet.google.com/abc"}]}
	}]}`}
	c := newTestClient(t, api)

	events, err := c.ListEvents(context.Background(), model.ListEventsQuery{Query: "interview", TimeMin: "2025-12-10T00:00:00+05:30"})
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "e1", ev.ID)
	assert.Equal(t, "Prodgain Interview", ev.Title)
	assert.Equal(t, "hr@prodgain.com", ev.Organizer)
	assert.Equal(t, "2025-12-10T14:00:00+05:30", ev.Start)
	assert.Equal(t, "https://meet.google.com/abc", ev.MeetingLink)
	assert.Equal(t, []model.Attendee{{Email: "me@example.com", DisplayName: "Me", ResponseStatus: "accepted"}}, ev.Attendees)

	require.Len(t, api.requests, 1)
	q := api.requests[0].URL.Query()
	assert.Equal(t, "interview", q.Get("q"))
	assert.Equal(t, "true", q.Get("singleEvents"))
	assert.Equal(t, "startTime", q.Get("orderBy"))
	assert.Equal(t, "2025-12-10T00:00:00+05:30", q.Get("timeMin"))
	assert.Empty(t, q.Get("timeMax"))
	assert.True(t, strings.HasSuffix(api.requests[0].URL.Path, "/calendars/primary/events"))
}

func TestListEventsFollowsPages(t *testing.T) {
	var (
		mu     sync.Mutex
		tokens []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("pageToken")
		mu.Lock()
		tokens = append(tokens, token)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if token == "" {
			_, _ = w.Write([]byte(`{"items":[{"id":"e1","summary":"Standup"}],"nextPageToken":"p2"}`))
			return
		}
		_, _ = w.Write([]byte(`{"items":[{"id":"e2","summary":"Prodgain Interview"}]}`))
	}))
	t.Cleanup(srv.Close)

	c, err := NewClientWithOptions(context.Background(), "primary",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	events, err := c.ListEvents(context.Background(), model.ListEventsQuery{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "e1", events[0].ID)
	assert.Equal(t, "e2", events[1].ID)
	assert.Equal(t, []string{"", "p2"}, tokens)
}

func TestListEventsBackendError(t *testing.T) {
	c := newTestClient(t, &fakeAPI{status: http.StatusInternalServerError, response: `{"error":{"code":500,"message":"boom"}}`})

	_, err := c.ListEvents(context.Background(), model.ListEventsQuery{})
	assert.ErrorContains(t, err, "failed to list events")
}

func TestCreateEventRequestsConference(t *testing.T) {
	api := &fakeAPI{response: `{"id":"new","status":"confirmed","summary":"Sync","hangoutLink":"https://meet.google.com/xyz"}`}
	c := newTestClient(t, api)

	in := model.EventInput{
		Summary:   "Sync",
		Start:     model.EventDateTime{DateTime: "2025-12-10T14:00:00+05:30", TimeZone: "Asia/Kolkata"},
		End:       model.EventDateTime{DateTime: "2025-12-10T15:00:00+05:30", TimeZone: "Asia/Kolkata"},
		Attendees: []model.Attendee{{Email: "a@example.com", DisplayName: "A"}},
	}
	created, err := c.CreateEvent(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", created.Status)
	assert.Equal(t, "https://meet.google.com/xyz", created.MeetingLink)

	require.Len(t, api.requests, 1)
	assert.Equal(t, http.MethodPost, api.requests[0].Method)
	assert.Equal(t, "1", api.requests[0].URL.Query().Get("conferenceDataVersion"))

	var sent calendar.Event
	require.NoError(t, sonic.UnmarshalString(api.bodies[0], &sent))
	assert.Equal(t, "Sync", sent.Summary)
	assert.Equal(t, "Asia/Kolkata", sent.Start.TimeZone)
	assert.Equal(t, "a@example.com", sent.Attendees[0].Email)
	require.NotNil(t, sent.ConferenceData)
	assert.NotEmpty(t, sent.ConferenceData.CreateRequest.RequestId)

	// each insert gets its own conference request id
	_, err = c.CreateEvent(context.Background(), in)
	require.NoError(t, err)
	var second calendar.Event
	require.NoError(t, sonic.UnmarshalString(api.bodies[1], &second))
	assert.NotEqual(t, sent.ConferenceData.CreateRequest.RequestId, second.ConferenceData.CreateRequest.RequestId)
}

func TestDeleteEvent(t *testing.T) {
	api := &fakeAPI{status: http.StatusNoContent}
	c := newTestClient(t, api)

	require.NoError(t, c.DeleteEvent(context.Background(), "abc123"))
	require.Len(t, api.requests, 1)
	assert.Equal(t, http.MethodDelete, api.requests[0].Method)
	assert.True(t, strings.HasSuffix(api.requests[0].URL.Path, "/events/abc123"))

	api.status = http.StatusNotFound
	api.response = `{"error":{"code":404,"message":"Not Found"}}`
	assert.ErrorContains(t, c.DeleteEvent(context.Background(), "gone"), "failed to delete event")
}

func TestToCalendarEventNil(t *testing.T) {
	ev := toCalendarEvent(nil)
	assert.Empty(t, ev.ID)
	assert.NotNil(t, ev.Attendees)

	allDay := toCalendarEvent(&calendar.Event{Id: "d", Start: &calendar.EventDateTime{Date: "2025-12-10"}})
	assert.Equal(t, "2025-12-10", allDay.Start)
}
