package calendar

import (
	"github.com/calendar-agent-poc/server/internal/agent/model"
	calendar "google.golang.org/api/calendar/v3"
)

func toCalendarEvent(event *calendar.Event) model.CalendarEvent {
	if event == nil {
		return model.CalendarEvent{Attendees: []model.Attendee{}}
	}

	out := model.CalendarEvent{
		ID:        event.Id,
		Title:     event.Summary,
		Status:    event.Status,
		Start:     formatDateTime(event.Start),
		End:       formatDateTime(event.End),
		EventType: event.EventType,
		Attendees: make([]model.Attendee, 0, len(event.Attendees)),
	}
	if event.Organizer != nil {
		out.Organizer = event.Organizer.Email
	}

	for _, att := range event.Attendees {
		out.Attendees = append(out.Attendees, model.Attendee{
			Email:          att.Email,
			DisplayName:    att.DisplayName,
			ResponseStatus: att.ResponseStatus,
		})
	}

	if event.HangoutLink != "" {
		out.MeetingLink = event.HangoutLink
	} else if event.ConferenceData != nil {
		for _, ep := range event.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" {
				out.MeetingLink = ep.Uri
				break
			}
		}
	}
	return out
}

// formatDateTime keeps the timestamp as Google sent it. All-day events only
// carry a date.
func formatDateTime(dt *calendar.EventDateTime) string {
	if dt == nil {
		return ""
	}
	if dt.DateTime != "" {
		return dt.DateTime
	}
	return dt.Date
}
