package calendar

import (
	"context"
	"fmt"
	"net/http"

	"github.com/calendar-agent-poc/server/internal/agent/model"
	"github.com/google/uuid"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Client talks to one Google calendar.
type Client struct {
	svc        *calendar.Service
	calendarID string
}

// NewClient builds a client over an already authorized HTTP client.
func NewClient(ctx context.Context, httpClient *http.Client, calendarID string) (*Client, error) {
	return NewClientWithOptions(ctx, calendarID, option.WithHTTPClient(httpClient))
}

func NewClientWithOptions(ctx context.Context, calendarID string, opts ...option.ClientOption) (*Client, error) {
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Client{svc: svc, calendarID: calendarID}, nil
}

// ListEvents lists single (expanded) events ordered by start time.
func (c *Client) ListEvents(ctx context.Context, q model.ListEventsQuery) ([]model.CalendarEvent, error) {
	call := c.svc.Events.List(c.calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx)

	if q.Query != "" {
		call = call.Q(q.Query)
	}
	if q.TimeMin != "" {
		call = call.TimeMin(q.TimeMin)
	}
	if q.TimeMax != "" {
		call = call.TimeMax(q.TimeMax)
	}

	out := []model.CalendarEvent{}
	err := call.Pages(ctx, func(page *calendar.Events) error {
		for _, event := range page.Items {
			out = append(out, toCalendarEvent(event))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return out, nil
}

// CreateEvent inserts the event and asks for a Google Meet conference.
func (c *Client) CreateEvent(ctx context.Context, input model.EventInput) (*model.CalendarEvent, error) {
	event := &calendar.Event{
		Summary: input.Summary,
		Start:   &calendar.EventDateTime{DateTime: input.Start.DateTime, TimeZone: input.Start.TimeZone},
		End:     &calendar.EventDateTime{DateTime: input.End.DateTime, TimeZone: input.End.TimeZone},
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId:             uuid.NewString(),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		},
	}
	for _, a := range input.Attendees {
		event.Attendees = append(event.Attendees, &calendar.EventAttendee{
			Email:       a.Email,
			DisplayName: a.DisplayName,
		})
	}

	created, err := c.svc.Events.Insert(c.calendarID, event).
		ConferenceDataVersion(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	summary := toCalendarEvent(created)
	return &summary, nil
}

// DeleteEvent deletes a calendar event
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	if err := c.svc.Events.Delete(c.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}
