package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewOpenAIClient(OpenAIConfig{APIKey: "secret", BaseURL: srv.URL, Model: "test-model", VisionModel: "test-vision"})
}

func TestCallFunctionSendsSchemaAndParsesCall(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"choices":[{"message":{"function_call":{"name":"sort_contacts","arguments":"{\"input_file_path\":\"/data/c.json\"}"}}}]}`)
	})

	fc, err := c.CallFunction(context.Background(), FunctionRequest{
		System: "sys",
		User:   "sort my contacts",
		Functions: []FunctionDef{{
			Name:       "sort_contacts",
			Parameters: &Schema{Type: "object", Properties: map[string]*Schema{"input_file_path": {Type: "string"}}},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "sort_contacts", fc.Name)
	assert.JSONEq(t, `{"input_file_path":"/data/c.json"}`, fc.Arguments)

	assert.Equal(t, "test-model", got["model"])
	assert.Equal(t, "auto", got["function_call"])
	fns, ok := got["functions"].([]any)
	require.True(t, ok)
	assert.Len(t, fns, 1)
}

func TestCallFunctionMissingCall(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":"I cannot help with that"}}]}`)
	})
	_, err := c.CallFunction(context.Background(), FunctionRequest{User: "x"})
	assert.ErrorIs(t, err, ErrNoFunctionCall)
}

func TestStatusErrorCarriesCode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	})
	_, err := c.Complete(context.Background(), "sys", "user")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Contains(t, se.Body, "quota")
}

func TestComplete(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":"alice@example.com"}}]}`)
	})
	out, err := c.Complete(context.Background(), "sys", "From: Alice <alice@example.com>")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", out)
}

func TestStreamVisionConcatenatesTokens(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "text/event-stream")
		for _, tok := range []string{"4111", " 1111", " 1111 1111"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", tok)
		}
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	var tokens []string
	out, err := c.StreamVision(context.Background(), VisionRequest{Prompt: "read", Image: []byte("\x89PNG\r\n\x1a\n"), MIMEType: "image/png"}, func(tok string) {
		tokens = append(tokens, tok)
	})
	require.NoError(t, err)
	assert.Equal(t, "4111 1111 1111 1111", out)
	assert.Equal(t, []string{"4111", " 1111", " 1111 1111"}, tokens)

	assert.Equal(t, "test-vision", body["model"])
	assert.Equal(t, true, body["stream"])
	raw, _ := json.Marshal(body["messages"])
	assert.True(t, strings.Contains(string(raw), "data:image/png;base64,"))
}

func TestStreamVisionBadChunk(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {not json\n\n")
	})
	_, err := c.StreamVision(context.Background(), VisionRequest{Image: []byte("x")}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode stream chunk")
}

func TestReadSSEIgnoresOtherFields(t *testing.T) {
	in := "event: message\nid: 1\ndata: a\r\n\ndata:b\n\ndata: [DONE]\ndata: c\n"
	var got []string
	require.NoError(t, readSSE(strings.NewReader(in), func(d string) error {
		got = append(got, d)
		return nil
	}))
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestToGenaiSchemaCarriesDefaultsInDescription(t *testing.T) {
	s := toGenaiSchema(&Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"library": {Type: "string", Description: "formatter", Default: "prettier"},
			"day":     {Type: "string", Enum: []string{"Monday"}},
		},
		Required: []string{"day"},
	})
	require.NotNil(t, s)
	assert.Equal(t, []string{"day"}, s.Required)
	assert.Equal(t, "formatter (default: prettier)", s.Properties["library"].Description)
	assert.Equal(t, []string{"Monday"}, s.Properties["day"].Enum)
}
