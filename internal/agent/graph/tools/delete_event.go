package tools

import (
	"context"
	"fmt"

	logx "github.com/calendar-agent-poc/server/pkg/logger"
	"github.com/cloudwego/eino/schema"
)

type deleteEventArgs struct {
	EventID string `json:"eventId"`
}

// NewDeleteEventTool deletes by id only. Whether the id came from an earlier
// list-events result is left to the model.
func NewDeleteEventTool(svc CalendarService) *Tool {
	params := map[string]*schema.ParameterInfo{
		"eventId": {Type: schema.String, Desc: "Id of the event, as returned by list-events", Required: true},
	}

	return NewTool(DeleteEventName, "Delete a calendar event by its id. Look the id up with list-events first.", params,
		func(ctx context.Context, argumentsInJSON string) (string, error) {
			var args deleteEventArgs
			if err := decodeArgs(argumentsInJSON, &args); err != nil {
				return "", err
			}
			if args.EventID == "" {
				return "", fmt.Errorf("eventId is empty")
			}

			if err := svc.DeleteEvent(ctx, args.EventID); err != nil {
				logx.Error().Err(err).Str("tool_name", DeleteEventName).Str("event_id", args.EventID).Msg("calendar delete failed")
				return EventDeleteFailed, nil
			}
			logx.Info().Str("event_id", args.EventID).Msg("event deleted")
			return EventDeleted, nil
		})
}
