// Package operation holds the catalogue of operations the dispatcher may
// run. Each operation carries its own Spec, so the schema handed to the
// classifier and the dispatch table are built from the same values.
package operation

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"taskgateway/internal/llmclient"
)

type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
)

// Param declares one argument of an operation.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	Default     any
	Enum        []string
}

// Spec documents an operation's contract. Params are kept in declaration order.
type Spec struct {
	Name        string
	Description string
	Params      []Param
}

// Operation is a named unit of work reachable from the dispatcher.
type Operation interface {
	Spec() Spec
	Call(ctx context.Context, args Args) (*Result, error)
}

var (
	ErrNameEmpty         = errors.New("operation name cannot be empty")
	ErrAlreadyRegistered = errors.New("operation already registered")
)

// Validate rejects specs the classifier could not be given safely.
func (s Spec) Validate() error {
	if s.Name == "" {
		return ErrNameEmpty
	}
	seen := make(map[string]struct{}, len(s.Params))
	for _, p := range s.Params {
		if p.Name == "" {
			return fmt.Errorf("%s: parameter with empty name", s.Name)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("%s: duplicate parameter %q", s.Name, p.Name)
		}
		seen[p.Name] = struct{}{}
		switch p.Type {
		case TypeString, TypeInteger, TypeNumber, TypeBoolean:
		default:
			return fmt.Errorf("%s.%s: unsupported type %q", s.Name, p.Name, p.Type)
		}
		if p.Required && p.Default != nil {
			return fmt.Errorf("%s.%s: required parameter cannot declare a default", s.Name, p.Name)
		}
		if len(p.Enum) > 0 && p.Default != nil && !slices.Contains(p.Enum, fmt.Sprint(p.Default)) {
			return fmt.Errorf("%s.%s: default %v is not in enum", s.Name, p.Name, p.Default)
		}
	}
	return nil
}

// FunctionDef renders the spec as a function-calling declaration.
func (s Spec) FunctionDef() llmclient.FunctionDef {
	params := &llmclient.Schema{
		Type:       "object",
		Properties: make(map[string]*llmclient.Schema, len(s.Params)),
	}
	for _, p := range s.Params {
		params.Properties[p.Name] = &llmclient.Schema{
			Type:        string(p.Type),
			Description: p.Description,
			Enum:        p.Enum,
			Default:     p.Default,
		}
		if p.Required {
			params.Required = append(params.Required, p.Name)
		}
	}
	return llmclient.FunctionDef{Name: s.Name, Description: s.Description, Parameters: params}
}

// Result is the envelope every operation returns.
type Result struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Payload any    `json:"payload,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

func Success(message string, payload any) *Result {
	return &Result{Status: StatusSuccess, Message: message, Payload: payload}
}

// FileCreated is the usual result of an operation that wrote one output.
func FileCreated(path string) *Result {
	return Success("file created at: "+path, nil)
}
