package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/calendar-agent-poc/server/internal/agent/graph/tools"
)

//go:embed template/system_prompt.txt
var calendarSystemPrompt string

// RenderSystem renders the calendar assistant system prompt for the instant
// now, expressed in loc. Rendering goes through the eino prompt component so
// prompt callbacks fire.
func RenderSystem(ctx context.Context, now time.Time, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)

	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(calendarSystemPrompt),
	)
	vars := map[string]any{
		"ListTool":   tools.ListEventsName,
		"CreateTool": tools.CreateEventName,
		"DeleteTool": tools.DeleteEventName,
		"Now":        local.Format("Monday, 02 Jan 2006 15:04:05 MST"),
		"TimeZone":   loc.String(),
		"Offset":     local.Format("-07:00"),
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("system prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("system prompt render: empty result")
	}
	return msgs[0].Content, nil
}
