package model

// EventDateTime is a wall-clock time with its IANA zone, as the model sends it.
type EventDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// Attendee is an invitee of an event.
type Attendee struct {
	Email          string `json:"email"`
	DisplayName    string `json:"displayName,omitempty"`
	ResponseStatus string `json:"responseStatus,omitempty"`
}

// EventInput is the payload of the create-event tool.
type EventInput struct {
	Summary   string        `json:"summary"`
	Start     EventDateTime `json:"start"`
	End       EventDateTime `json:"end"`
	Attendees []Attendee    `json:"attendees,omitempty"`
}

// CalendarEvent is the normalized event shape handed back to the model.
type CalendarEvent struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	Organizer   string     `json:"organizer"`
	Start       string     `json:"start"`
	End         string     `json:"end"`
	Attendees   []Attendee `json:"attendees"`
	MeetingLink string     `json:"meetingLink,omitempty"`
	EventType   string     `json:"eventType"`
}

// ListEventsQuery narrows a calendar read. Zero values mean "unbounded".
type ListEventsQuery struct {
	Query   string
	TimeMin string
	TimeMax string
}
