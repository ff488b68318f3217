package operation

import (
	"fmt"
	"strings"

	"taskgateway/internal/apperr"
)

// Args are the classified arguments of one call, with spec defaults applied
// for parameters the model left out.
type Args struct {
	op     string
	values map[string]any
}

func NewArgs(spec Spec, raw map[string]any) Args {
	values := make(map[string]any, len(raw)+len(spec.Params))
	for k, v := range raw {
		values[k] = v
	}
	for _, p := range spec.Params {
		if v, ok := values[p.Name]; (!ok || v == nil || v == "") && p.Default != nil {
			values[p.Name] = p.Default
		}
	}
	return Args{op: spec.Name, values: values}
}

// String returns the argument rendered as a string; missing values are "".
func (a Args) String(name string) string {
	v, ok := a.values[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// RequireString returns a trimmed, non-blank string argument or a client error.
func (a Args) RequireString(name string) (string, error) {
	s := strings.TrimSpace(a.String(name))
	if s == "" {
		return "", apperr.Invalid("%s: %s not provided", a.op, name)
	}
	return s, nil
}
