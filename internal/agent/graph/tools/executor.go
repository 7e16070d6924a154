package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	logx "github.com/calendar-agent-poc/server/pkg/logger"
	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// FailureReason classifies a contained tool failure. The zero value means
// the call succeeded.
type FailureReason string

const (
	FailureNone        FailureReason = ""
	FailureUnknownTool FailureReason = "unknown_tool"
	FailureInvalidArgs FailureReason = "invalid_arguments"
	FailureHandler     FailureReason = "handler_error"
	FailureTimeout     FailureReason = "timeout"
)

// Result is the outcome of one tool call. Failures are carried as content so
// the model can react to them.
type Result struct {
	CallID  string
	Name    string
	Content string
	Failure FailureReason
}

func (r Result) Failed() bool { return r.Failure != FailureNone }

// Message converts the result to the tool message answering CallID.
func (r Result) Message() *schema.Message {
	return schema.ToolMessage(r.Content, r.CallID, schema.WithToolName(r.Name))
}

// Observer is notified after every tool call.
type Observer interface {
	ObserveToolCall(name string, failure FailureReason, elapsed time.Duration)
}

type ExecutorOption func(*Executor)

func WithObserver(o Observer) ExecutorOption {
	return func(e *Executor) { e.observer = o }
}

// WithCallbacks attaches eino callback handlers to every tool run.
func WithCallbacks(handlers ...callbacks.Handler) ExecutorOption {
	return func(e *Executor) { e.handlers = append(e.handlers, handlers...) }
}

type Executor struct {
	registry *Registry
	timeout  time.Duration
	observer Observer
	handlers []callbacks.Handler
}

func NewExecutor(registry *Registry, timeout time.Duration, opts ...ExecutorOption) *Executor {
	e := &Executor{registry: registry, timeout: timeout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs a single tool call. The returned error is non-nil only when
// ctx itself is done; every other failure is reported through the Result.
func (e *Executor) Execute(ctx context.Context, call schema.ToolCall) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	name := call.Function.Name
	res := Result{CallID: call.ID, Name: name}
	start := time.Now()
	defer func() {
		if e.observer != nil {
			e.observer.ObserveToolCall(name, res.Failure, time.Since(start))
		}
	}()

	t, ok := e.registry.Lookup(name)
	if !ok {
		res.Content, res.Failure = "tool not found: "+name, FailureUnknownTool
		logx.Warn().Str("tool_name", name).Str("tool_call_id", call.ID).Msg("model requested unknown tool")
		return res, nil
	}

	if err := ValidateArguments(t.params, call.Function.Arguments); err != nil {
		res.Content, res.Failure = fmt.Sprintf("invalid arguments for %s: %v", name, err), FailureInvalidArgs
		logx.Warn().Err(err).Str("tool_name", name).Str("tool_call_id", call.ID).Msg("tool arguments rejected")
		return res, nil
	}

	callCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	if len(e.handlers) > 0 {
		callCtx = callbacks.InitCallbacks(callCtx, &callbacks.RunInfo{Name: name, Type: "CalendarTool", Component: components.ComponentOfTool}, e.handlers...)
		callCtx = callbacks.OnStart(callCtx, &tool.CallbackInput{ArgumentsInJSON: call.Function.Arguments})
	}

	out, err := t.run(callCtx, call.Function.Arguments)
	if len(e.handlers) > 0 {
		if err != nil {
			callbacks.OnError(callCtx, err)
		} else {
			callbacks.OnEnd(callCtx, &tool.CallbackOutput{Response: out})
		}
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			res.Content, res.Failure = fmt.Sprintf("tool %s timed out after %s", name, e.timeout), FailureTimeout
		} else {
			res.Content, res.Failure = fmt.Sprintf("tool %s failed: %v", name, err), FailureHandler
		}
		logx.Error().Err(err).Str("tool_name", name).Str("tool_call_id", call.ID).Msg("tool call failed")
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	res.Content = out
	logx.Debug().Str("tool_name", name).Str("tool_call_id", call.ID).Dur("elapsed", time.Since(start)).Msg("tool call finished")
	return res, nil
}

// ExecuteAll runs calls sequentially in request order.
func (e *Executor) ExecuteAll(ctx context.Context, calls []schema.ToolCall) ([]Result, error) {
	results := make([]Result, 0, len(calls))
	for _, call := range calls {
		res, err := e.Execute(ctx, call)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}
