// Package classifier turns a free-text task into one declared operation plus
// its arguments using the LLM's function-calling feature.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"taskgateway/internal/apperr"
	"taskgateway/internal/llmclient"
)

// DefaultTimeout bounds the single classification round-trip.
const DefaultTimeout = 30 * time.Second

const systemPrompt = "You are a helpful assistant that translates user queries into English if the query is not in English, " +
	"and maps each query to exactly one of the provided functions. " +
	"Only call a declared function and fill its arguments from the query; never invent file paths that the query does not mention."

// Classification is the operation chosen for one task.
type Classification struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type Classifier interface {
	Classify(ctx context.Context, task string) (*Classification, error)
}

// SchemaSource supplies the function-calling document.
type SchemaSource interface {
	FunctionSchemas() []llmclient.FunctionDef
}

// LLMClassifier classifies with a single, non-retried LLM call.
type LLMClassifier struct {
	llm     llmclient.Client
	schemas SchemaSource
	timeout time.Duration
}

func New(llm llmclient.Client, schemas SchemaSource, timeout time.Duration) *LLMClassifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &LLMClassifier{llm: llm, schemas: schemas, timeout: timeout}
}

func (c *LLMClassifier) Classify(ctx context.Context, task string) (*Classification, error) {
	if strings.TrimSpace(task) == "" {
		return nil, apperr.Invalid("task is required")
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	fc, err := c.llm.CallFunction(ctx, llmclient.FunctionRequest{
		System:    systemPrompt,
		User:      task,
		Functions: c.schemas.FunctionSchemas(),
	})
	if err != nil {
		return nil, upstreamError(err)
	}
	args, err := parseArguments(fc.Arguments)
	if err != nil {
		return nil, apperr.Upstream(0, err, "malformed function arguments for %s", fc.Name)
	}
	return &Classification{Name: fc.Name, Arguments: args}, nil
}

func parseArguments(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

func upstreamError(err error) error {
	switch {
	case llmclient.StatusCode(err) != 0:
		return apperr.Upstream(llmclient.StatusCode(err), err, "HTTP error occurred")
	case errors.Is(err, llmclient.ErrNoFunctionCall):
		return apperr.Upstream(0, err, "classification failed")
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.Upstream(0, err, "classification timed out")
	default:
		return apperr.Upstream(0, err, "an error occurred")
	}
}
