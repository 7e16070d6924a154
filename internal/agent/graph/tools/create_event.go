package tools

import (
	"context"

	"github.com/calendar-agent-poc/server/internal/agent/model"
	logx "github.com/calendar-agent-poc/server/pkg/logger"
	"github.com/cloudwego/eino/schema"
)

func eventDateTimeParam(desc string) *schema.ParameterInfo {
	return &schema.ParameterInfo{
		Type:     schema.Object,
		Desc:     desc,
		Required: true,
		SubParams: map[string]*schema.ParameterInfo{
			"dateTime": {Type: schema.String, Desc: "RFC3339 date-time, e.g. 2025-12-10T14:00:00+05:30", Required: true},
			"timeZone": {Type: schema.String, Desc: "IANA time zone, e.g. Asia/Kolkata", Required: true},
		},
	}
}

func NewCreateEventTool(svc CalendarService) *Tool {
	params := map[string]*schema.ParameterInfo{
		"summary": {Type: schema.String, Desc: "Title of the event", Required: true},
		"start":   eventDateTimeParam("When the event starts"),
		"end":     eventDateTimeParam("When the event ends"),
		"attendees": {
			Type: schema.Array,
			Desc: "People to invite",
			ElemInfo: &schema.ParameterInfo{
				Type: schema.Object,
				SubParams: map[string]*schema.ParameterInfo{
					"email":       {Type: schema.String, Desc: "Attendee email", Required: true},
					"displayName": {Type: schema.String, Desc: "Attendee name"},
				},
			},
		},
	}

	return NewTool(CreateEventName, "Create a calendar event with a Google Meet link and invite the attendees.", params,
		func(ctx context.Context, argumentsInJSON string) (string, error) {
			var in model.EventInput
			if err := decodeArgs(argumentsInJSON, &in); err != nil {
				return "", err
			}

			created, err := svc.CreateEvent(ctx, in)
			if err != nil {
				logx.Error().Err(err).Str("tool_name", CreateEventName).Str("summary", in.Summary).Msg("calendar insert failed")
				return EventCreateFailed, nil
			}
			if created == nil || created.Status != statusConfirmed {
				return EventCreateFailed, nil
			}
			logx.Info().Str("event_id", created.ID).Str("summary", in.Summary).Msg("event created")
			return EventCreated, nil
		})
}
