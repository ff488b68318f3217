package llmclient

import (
	"context"
	"errors"
	"fmt"
)

// Client is the surface the classifier and executors need from an LLM
// provider. Cross-cutting concerns (logging) are applied via Middleware.
type Client interface {
	Name() string
	// CallFunction asks the model to pick exactly one function and returns
	// its name and JSON-encoded arguments.
	CallFunction(ctx context.Context, req FunctionRequest) (*FunctionCall, error)
	// Complete returns the assistant text for a system + user exchange.
	Complete(ctx context.Context, system, user string) (string, error)
	// StreamVision sends an image with a prompt and streams text tokens to
	// onToken in arrival order. It returns the concatenated tokens.
	StreamVision(ctx context.Context, req VisionRequest, onToken func(token string)) (string, error)
}

// Schema is the JSON-schema subset used for function parameters.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Default     any                `json:"default,omitempty"`
}

// FunctionDef is one entry of the function-calling document.
type FunctionDef struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Parameters  *Schema `json:"parameters"`
}

type FunctionRequest struct {
	System    string
	User      string
	Functions []FunctionDef
}

type FunctionCall struct {
	Name      string
	Arguments string // JSON object as sent by the model
}

type VisionRequest struct {
	Prompt   string
	Image    []byte
	MIMEType string
}

var (
	// ErrNoFunctionCall means the response did not select a function.
	ErrNoFunctionCall = errors.New("llm: response has no function call")
	// ErrEmptyResponse means the response carried no choices or content.
	ErrEmptyResponse = errors.New("llm: empty response")
)

// StatusError is a non-2xx answer from the provider.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm: unexpected status %s: %s", e.Status, e.Body)
}

// Middleware decorates a Client.
type Middleware func(Client) Client

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// StatusCode returns the provider HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
