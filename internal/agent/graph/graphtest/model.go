// Package graphtest provides a scripted chat model for exercising the agent
// loop without a model backend.
package graphtest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Step produces the model's answer for one call.
type Step func(ctx context.Context, in []*schema.Message) (*schema.Message, error)

// Call is one recorded Generate invocation.
type Call struct {
	Messages  []*schema.Message
	WithTools bool
}

type script struct {
	mu       sync.Mutex
	steps    []Step
	fallback Step
	calls    []Call
}

// ScriptedModel answers Generate calls with pre-recorded steps, in order.
// Instances returned by WithTools share the script.
type ScriptedModel struct {
	s     *script
	tools []*schema.ToolInfo
}

var _ einomodel.ToolCallingChatModel = (*ScriptedModel)(nil)

func NewScriptedModel(steps ...Step) *ScriptedModel {
	return &ScriptedModel{s: &script{steps: steps}}
}

// Otherwise sets the step used once the script is exhausted.
func (m *ScriptedModel) Otherwise(step Step) *ScriptedModel {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.fallback = step
	return m
}

func (m *ScriptedModel) Generate(ctx context.Context, in []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	m.s.mu.Lock()
	idx := len(m.s.calls)
	m.s.calls = append(m.s.calls, Call{Messages: slices.Clone(in), WithTools: m.tools != nil})
	var step Step
	switch {
	case idx < len(m.s.steps):
		step = m.s.steps[idx]
	case m.s.fallback != nil:
		step = m.s.fallback
	}
	m.s.mu.Unlock()

	if step == nil {
		return nil, fmt.Errorf("scripted model exhausted after %d calls", len(m.s.steps))
	}
	return step(ctx, in)
}

func (m *ScriptedModel) Stream(ctx context.Context, in []*schema.Message, _ ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("scripted model does not stream")
}

func (m *ScriptedModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return &ScriptedModel{s: m.s, tools: tools}, nil
}

// Calls returns the recorded invocations.
func (m *ScriptedModel) Calls() []Call {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return slices.Clone(m.s.calls)
}

// Reply answers with a final assistant message.
func Reply(content string) Step {
	return func(context.Context, []*schema.Message) (*schema.Message, error) {
		return schema.AssistantMessage(content, nil), nil
	}
}

// CallTools answers with an assistant message requesting calls.
func CallTools(calls ...schema.ToolCall) Step {
	return func(context.Context, []*schema.Message) (*schema.Message, error) {
		return schema.AssistantMessage("", slices.Clone(calls)), nil
	}
}

// Fail answers with err.
func Fail(err error) Step {
	return func(context.Context, []*schema.Message) (*schema.Message, error) {
		return nil, err
	}
}

// Block waits until the call's context is done.
func Block() Step {
	return func(ctx context.Context, _ []*schema.Message) (*schema.Message, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
}

// EchoLastUser replies with the latest user message content.
func EchoLastUser() Step {
	return func(_ context.Context, in []*schema.Message) (*schema.Message, error) {
		for i := len(in) - 1; i >= 0; i-- {
			if in[i].Role == schema.User {
				return schema.AssistantMessage("echo: "+in[i].Content, nil), nil
			}
		}
		return schema.AssistantMessage("echo:", nil), nil
	}
}

// ToolCall builds a function call request.
func ToolCall(id, name, args string) schema.ToolCall {
	return schema.ToolCall{ID: id, Type: "function", Function: schema.FunctionCall{Name: name, Arguments: args}}
}
