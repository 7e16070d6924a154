package nodes

import (
	"fmt"

	"github.com/calendar-agent-poc/server/internal/agent/model"
)

const DefaultMaxIterations = 10

// normalizeMaxIterations returns a sane default when the provided value is invalid.
func normalizeMaxIterations(n int) int {
	if n <= 0 {
		return DefaultMaxIterations
	}
	return n
}

// checkAndMarkIterationLimit marks the state once the completed dispatch
// rounds reach max. Returns true only on the call that marks it.
func checkAndMarkIterationLimit(state *model.TurnState, max int) bool {
	max = normalizeMaxIterations(max)
	if !state.ToolCallLimitReached && state.Iteration >= max {
		state.ToolCallLimitReached = true
		return true
	}
	return false
}

// CompleteDispatch records a finished dispatch round of n tool calls.
func CompleteDispatch(state *model.TurnState, n int) {
	state.Iteration++
	state.ToolCallCount += n
}

func nextToolCallID(state *model.TurnState) string {
	state.ToolCallIDSeq++
	return fmt.Sprintf("call_%d", state.ToolCallIDSeq)
}

// uniqueToolCallID synthesises an id not already used in the same message.
func uniqueToolCallID(state *model.TurnState, taken map[string]struct{}) string {
	for {
		id := nextToolCallID(state)
		if _, dup := taken[id]; !dup {
			taken[id] = struct{}{}
			return id
		}
	}
}
