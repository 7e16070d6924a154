package model

import (
	"github.com/cloudwego/eino/schema"
)

// RouterState is the position of a turn in the reason/dispatch cycle.
type RouterState string

const (
	StateReason   RouterState = "REASON"
	StateDispatch RouterState = "DISPATCH"
	StateDone     RouterState = "DONE"
)

// TurnState stores per-invocation state for one user turn.
// It is owned by a single goroutine for the duration of the turn and never
// shared between conversations.
type TurnState struct {
	ConversationID       string
	State                RouterState
	SystemPrompt         string            // rendered once per turn
	Pending              []*schema.Message // staged until the step that completes them commits
	Iteration            int               // completed dispatch rounds
	ToolCallCount        int               // individual tool calls executed
	ToolCallLimitReached bool              // set when the dispatch bound is hit
	ToolCallIDSeq        int               // local sequence to synthesize tool_call_id when provider omits

	// Accumulated total LLM cost (USD) across model invocations for this turn
	TotalCostUSD float64
}

// QueryInput represents the input for processing user queries.
type QueryInput struct {
	ConversationID string `json:"thread_id"`
	Query          string `json:"message"`
}
