package tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// RunFunc executes a tool on already validated JSON arguments.
type RunFunc func(ctx context.Context, argumentsInJSON string) (string, error)

// Tool adapts a calendar operation to eino's tool.InvokableTool.
type Tool struct {
	info   *schema.ToolInfo
	params map[string]*schema.ParameterInfo
	run    RunFunc
}

var _ tool.InvokableTool = (*Tool)(nil)

func NewTool(name, desc string, params map[string]*schema.ParameterInfo, run RunFunc) *Tool {
	return &Tool{
		info: &schema.ToolInfo{
			Name:        name,
			Desc:        desc,
			ParamsOneOf: schema.NewParamsOneOfByParams(params),
		},
		params: params,
		run:    run,
	}
}

func (t *Tool) Name() string { return t.info.Name }

func (t *Tool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return t.info, nil
}

// InvokableRun validates the arguments and runs the tool.
func (t *Tool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	if err := ValidateArguments(t.params, argumentsInJSON); err != nil {
		return "", err
	}
	return t.run(ctx, argumentsInJSON)
}

// Registry maps tool names to tools. It is filled once at startup and only
// read afterwards.
type Registry struct {
	tools map[string]*Tool
}

func NewRegistry(tools ...*Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]*Tool, len(tools))}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(t *Tool) error {
	if t == nil || t.info == nil || t.info.Name == "" {
		return fmt.Errorf("tool must have a name")
	}
	if _, exists := r.tools[t.info.Name]; exists {
		return fmt.Errorf("tool %q already registered", t.info.Name)
	}
	r.tools[t.info.Name] = t
	return nil
}

func (r *Registry) Lookup(name string) (*Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Infos returns the tool schemas to bind to the chat model.
func (r *Registry) Infos() []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(r.tools))
	for _, name := range r.Names() {
		infos = append(infos, r.tools[name].info)
	}
	return infos
}
