package tools

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/calendar-agent-poc/server/internal/agent/model"
	logx "github.com/calendar-agent-poc/server/pkg/logger"
	"github.com/cloudwego/eino/schema"
)

type listEventsArgs struct {
	Query   string `json:"query"`
	TimeMin string `json:"timeMin"`
	TimeMax string `json:"timeMax"`
}

func NewListEventsTool(svc CalendarService) *Tool {
	params := map[string]*schema.ParameterInfo{
		"query": {
			Type: schema.String,
			Desc: "Free text matched against event summary, description, location and attendees. Omit to list everything in the window.",
		},
		"timeMin": {
			Type: schema.String,
			Desc: "Lower bound (exclusive) for an event's end time, RFC3339 with offset, e.g. 2025-12-10T00:00:00+05:30.",
		},
		"timeMax": {
			Type: schema.String,
			Desc: "Upper bound (exclusive) for an event's start time, RFC3339 with offset.",
		},
	}

	return NewTool(ListEventsName, "Get the user's calendar events, optionally filtered by text and time window. Returns each event with its id.", params,
		func(ctx context.Context, argumentsInJSON string) (string, error) {
			var args listEventsArgs
			if err := decodeArgs(argumentsInJSON, &args); err != nil {
				return "", err
			}

			events, err := svc.ListEvents(ctx, model.ListEventsQuery{Query: args.Query, TimeMin: args.TimeMin, TimeMax: args.TimeMax})
			if err != nil {
				logx.Error().Err(err).Str("tool_name", ListEventsName).Msg("calendar list failed")
				return ListEventsFailed, nil
			}
			if events == nil {
				events = []model.CalendarEvent{}
			}

			out, err := sonic.MarshalString(events)
			if err != nil {
				return "", fmt.Errorf("marshal events: %w", err)
			}
			return out, nil
		})
}

func decodeArgs(argumentsInJSON string, v any) error {
	if argumentsInJSON == "" {
		return nil
	}
	if err := sonic.UnmarshalString(argumentsInJSON, v); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	return nil
}
