package tools

import (
	"context"

	"github.com/calendar-agent-poc/server/internal/agent/model"
)

const (
	ListEventsName  = "list-events"
	CreateEventName = "create-event"
	DeleteEventName = "delete-event"
)

// Fixed result texts the model sees.
const (
	ListEventsFailed  = "Failed to connect to the calendar"
	EventCreated      = "The meeting has been created"
	EventCreateFailed = "Couldn't create a meeting."
	EventDeleted      = "The event has been deleted"
	EventDeleteFailed = "Failed to delete the event"
)

const statusConfirmed = "confirmed"

// CalendarService is the calendar backend the tools drive.
type CalendarService interface {
	ListEvents(ctx context.Context, q model.ListEventsQuery) ([]model.CalendarEvent, error)
	CreateEvent(ctx context.Context, in model.EventInput) (*model.CalendarEvent, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// NewCalendarTools builds the three calendar tools over svc.
func NewCalendarTools(svc CalendarService) []*Tool {
	return []*Tool{
		NewListEventsTool(svc),
		NewCreateEventTool(svc),
		NewDeleteEventTool(svc),
	}
}

// NewCalendarRegistry is the registry used by the agent.
func NewCalendarRegistry(svc CalendarService) (*Registry, error) {
	return NewRegistry(NewCalendarTools(svc)...)
}
