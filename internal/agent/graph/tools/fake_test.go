package tools

import (
	"context"
	"errors"
	"sync"

	"github.com/calendar-agent-poc/server/internal/agent/model"
)

type fakeCalendar struct {
	mu        sync.Mutex
	events    []model.CalendarEvent
	listErr   error
	createErr error
	status    string
	created   []model.EventInput
	deleted   []string
	queries   []model.ListEventsQuery
}

func (f *fakeCalendar) ListEvents(ctx context.Context, q model.ListEventsQuery) ([]model.CalendarEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.events, nil
}

func (f *fakeCalendar) CreateEvent(ctx context.Context, in model.EventInput) (*model.CalendarEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, in)
	status := f.status
	if status == "" {
		status = "confirmed"
	}
	return &model.CalendarEvent{ID: "new", Title: in.Summary, Status: status}, nil
}

func (f *fakeCalendar) DeleteEvent(ctx context.Context, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if eventID == "missing" {
		return errors.New("404 not found")
	}
	f.deleted = append(f.deleted, eventID)
	return nil
}
