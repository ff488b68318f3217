package llmclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const DefaultBaseURL = "https://llmfoundry.straive.com/openai/v1"

// OpenAIClient calls an OpenAI-compatible Chat Completions API using the
// legacy `functions` / `function_call` fields.
type OpenAIClient struct {
	http        *http.Client
	apiKey      string
	baseURL     string
	model       string
	visionModel string
}

type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	VisionModel string
	HTTPClient  *http.Client
}

func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	vision := cfg.VisionModel
	if vision == "" {
		vision = model
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &OpenAIClient{
		http:        hc,
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		model:       model,
		visionModel: vision,
	}
}

func (c *OpenAIClient) Name() string { return "OpenAI:" + c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatReq struct {
	Model        string        `json:"model"`
	Messages     []chatMessage `json:"messages"`
	Functions    []FunctionDef `json:"functions,omitempty"`
	FunctionCall string        `json:"function_call,omitempty"`
	Stream       bool          `json:"stream,omitempty"`
}

type chatResp struct {
	Choices []struct {
		Message struct {
			Content      string `json:"content"`
			FunctionCall *struct {
				Name      string `json:"name"`
				Arguments string `json:"arguments"`
			} `json:"function_call"`
		} `json:"message"`
	} `json:"choices"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (c *OpenAIClient) CallFunction(ctx context.Context, req FunctionRequest) (*FunctionCall, error) {
	out, err := c.chat(ctx, chatReq{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Functions:    req.Functions,
		FunctionCall: "auto",
	})
	if err != nil {
		return nil, err
	}
	if len(out.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	fc := out.Choices[0].Message.FunctionCall
	if fc == nil || strings.TrimSpace(fc.Name) == "" {
		return nil, ErrNoFunctionCall
	}
	return &FunctionCall{Name: fc.Name, Arguments: fc.Arguments}, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	out, err := c.chat(ctx, chatReq{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return out.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) StreamVision(ctx context.Context, req VisionRequest, onToken func(token string)) (string, error) {
	mime := req.MIMEType
	if mime == "" {
		mime = http.DetectContentType(req.Image)
	}
	dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(req.Image)
	body := chatReq{
		Model:  c.visionModel,
		Stream: true,
		Messages: []chatMessage{{
			Role: "user",
			Content: []map[string]any{
				{"type": "text", "text": req.Prompt},
				{"type": "image_url", "image_url": map[string]string{"url": dataURL}},
			},
		}},
	}
	resp, err := c.post(ctx, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var sb strings.Builder
	err = readSSE(resp.Body, func(data string) error {
		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return fmt.Errorf("llm: decode stream chunk: %w", err)
		}
		for _, ch := range chunk.Choices {
			if ch.Delta.Content == "" {
				continue
			}
			sb.WriteString(ch.Delta.Content)
			if onToken != nil {
				onToken(ch.Delta.Content)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (c *OpenAIClient) chat(ctx context.Context, body chatReq) (*chatResp, error) {
	resp, err := c.post(ctx, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var out chatResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("llm: decode response: %w", err)
	}
	return &out, nil
}

// post sends body and returns the response when the status is 2xx.
func (c *OpenAIClient) post(ctx context.Context, body chatReq) (*http.Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("llm: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(raw)}
	}
	return resp, nil
}
