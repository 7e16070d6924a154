package conversations

import (
	errx "github.com/calendar-agent-poc/server/internal/core/error"

	"github.com/cloudwego/eino/schema"
)

// OpenCalls returns the tool call ids requested in history that have no tool
// message answering them yet.
func OpenCalls(history []*schema.Message) map[string]struct{} {
	open := make(map[string]struct{})
	for _, m := range history {
		applyOpen(open, m)
	}
	return open
}

func applyOpen(open map[string]struct{}, m *schema.Message) {
	if m == nil {
		return
	}
	switch m.Role {
	case schema.Assistant:
		for _, tc := range m.ToolCalls {
			open[tc.ID] = struct{}{}
		}
	case schema.Tool:
		delete(open, m.ToolCallID)
	}
}

// ValidateAppend checks that batch can follow history without breaking the
// call/answer pairing. Ids may be reused once their previous call is answered.
func ValidateAppend(history, batch []*schema.Message) error {
	open := OpenCalls(history)

	for i, m := range batch {
		if m == nil {
			return errx.Structural("message %d is nil", i)
		}
		switch m.Role {
		case schema.User, schema.Assistant, schema.Tool:
		default:
			return errx.Structural("message %d has role %q, which cannot be stored", i, m.Role)
		}

		if m.Role == schema.Tool {
			if m.ToolCallID == "" {
				return errx.Structural("tool message %d carries no tool_call_id", i)
			}
			if _, ok := open[m.ToolCallID]; !ok {
				return errx.Structural("tool message %d answers %q, which is not an open call", i, m.ToolCallID)
			}
		}

		if m.Role == schema.Assistant {
			seen := make(map[string]struct{}, len(m.ToolCalls))
			for _, tc := range m.ToolCalls {
				if tc.ID == "" {
					return errx.Structural("assistant message %d has a tool call without id", i)
				}
				if _, dup := seen[tc.ID]; dup {
					return errx.Structural("assistant message %d repeats tool call id %q", i, tc.ID)
				}
				if _, stillOpen := open[tc.ID]; stillOpen {
					return errx.Structural("assistant message %d reuses open tool call id %q", i, tc.ID)
				}
				seen[tc.ID] = struct{}{}
			}
		}

		applyOpen(open, m)
	}
	return nil
}
