package tools

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"
)

// ValidateArguments decodes argumentsInJSON and checks it against params.
// Fields not described by params are ignored.
func ValidateArguments(params map[string]*schema.ParameterInfo, argumentsInJSON string) error {
	args := map[string]any{}
	if s := strings.TrimSpace(argumentsInJSON); s != "" {
		var decoded any
		if err := sonic.UnmarshalString(s, &decoded); err != nil {
			return fmt.Errorf("arguments are not valid JSON: %w", err)
		}
		switch v := decoded.(type) {
		case map[string]any:
			args = v
		case nil:
		default:
			return fmt.Errorf("arguments must be a JSON object, got %s", typeName(decoded))
		}
	}
	return validateObject("", params, args)
}

func validateObject(path string, params map[string]*schema.ParameterInfo, obj map[string]any) error {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		p := params[name]
		v, ok := obj[name]
		if !ok || v == nil {
			if p.Required {
				return fmt.Errorf("missing required field: %s", join(path, name))
			}
			continue
		}
		if err := validateValue(join(path, name), p, v); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(path string, p *schema.ParameterInfo, v any) error {
	switch p.Type {
	case schema.String:
		s, ok := v.(string)
		if !ok {
			return mismatch(path, p.Type, v)
		}
		if len(p.Enum) > 0 && !slices.Contains(p.Enum, s) {
			return fmt.Errorf("field %s: %q is not one of %s", path, s, strings.Join(p.Enum, ", "))
		}
	case schema.Number:
		if _, ok := v.(float64); !ok {
			return mismatch(path, p.Type, v)
		}
	case schema.Integer:
		f, ok := v.(float64)
		if !ok || math.Trunc(f) != f {
			return mismatch(path, p.Type, v)
		}
	case schema.Boolean:
		if _, ok := v.(bool); !ok {
			return mismatch(path, p.Type, v)
		}
	case schema.Object:
		obj, ok := v.(map[string]any)
		if !ok {
			return mismatch(path, p.Type, v)
		}
		return validateObject(path, p.SubParams, obj)
	case schema.Array:
		items, ok := v.([]any)
		if !ok {
			return mismatch(path, p.Type, v)
		}
		if p.ElemInfo == nil {
			return nil
		}
		for i, item := range items {
			if err := validateValue(fmt.Sprintf("%s[%d]", path, i), p.ElemInfo, item); err != nil {
				return err
			}
		}
	}
	return nil
}

func mismatch(path string, want schema.DataType, got any) error {
	return fmt.Errorf("field %s: expected %s but got %s", path, want, typeName(got))
}

func typeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", v)
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
