package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client.
// It only focuses on the API call itself.
type GeminiClient struct {
	cli         *genai.Client
	model       string
	visionModel string
}

func NewGeminiClient(ctx context.Context, apiKey, model, visionModel string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	if visionModel == "" {
		visionModel = model
	}
	return &GeminiClient{cli: cli, model: model, visionModel: visionModel}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }

func (g *GeminiClient) CallFunction(ctx context.Context, req FunctionRequest) (*FunctionCall, error) {
	decls := make([]*genai.FunctionDeclaration, 0, len(req.Functions))
	for _, fn := range req.Functions {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        fn.Name,
			Description: fn.Description,
			Parameters:  toGenaiSchema(fn.Parameters),
		})
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: req.System}}},
		Tools:             []*genai.Tool{{FunctionDeclarations: decls}},
		ToolConfig: &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeAuto},
		},
	}
	resp, err := g.cli.Models.GenerateContent(ctx, g.model, userContent(&genai.Part{Text: req.User}), cfg)
	if err != nil {
		return nil, asStatusError(err)
	}
	for _, part := range firstParts(resp) {
		if part.FunctionCall == nil || part.FunctionCall.Name == "" {
			continue
		}
		args, err := json.Marshal(part.FunctionCall.Args)
		if err != nil {
			return nil, err
		}
		return &FunctionCall{Name: part.FunctionCall.Name, Arguments: string(args)}, nil
	}
	return nil, ErrNoFunctionCall
}

func (g *GeminiClient) Complete(ctx context.Context, system, user string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
	}
	resp, err := g.cli.Models.GenerateContent(ctx, g.model, userContent(&genai.Part{Text: user}), cfg)
	if err != nil {
		return "", asStatusError(err)
	}
	parts := firstParts(resp)
	if len(parts) == 0 {
		return "", ErrEmptyResponse
	}
	return partsText(parts), nil
}

func (g *GeminiClient) StreamVision(ctx context.Context, req VisionRequest, onToken func(token string)) (string, error) {
	mime := req.MIMEType
	if mime == "" {
		mime = http.DetectContentType(req.Image)
	}
	contents := userContent(
		&genai.Part{Text: req.Prompt},
		&genai.Part{InlineData: &genai.Blob{MIMEType: mime, Data: req.Image}},
	)
	var sb strings.Builder
	for resp, err := range g.cli.Models.GenerateContentStream(ctx, g.visionModel, contents, nil) {
		if err != nil {
			return "", asStatusError(err)
		}
		token := partsText(firstParts(resp))
		if token == "" {
			continue
		}
		sb.WriteString(token)
		if onToken != nil {
			onToken(token)
		}
	}
	return sb.String(), nil
}

func userContent(parts ...*genai.Part) []*genai.Content {
	return []*genai.Content{{Role: "user", Parts: parts}}
}

func firstParts(resp *genai.GenerateContentResponse) []*genai.Part {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	return resp.Candidates[0].Content.Parts
}

func partsText(parts []*genai.Part) string {
	var sb strings.Builder
	for _, p := range parts {
		if p != nil {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

func asStatusError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{StatusCode: apiErr.Code, Status: fmt.Sprintf("%d %s", apiErr.Code, apiErr.Status), Body: apiErr.Message}
	}
	return err
}

func toGenaiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genaiType(s.Type),
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
	}
	if s.Default != nil {
		out.Description = strings.TrimSpace(fmt.Sprintf("%s (default: %v)", s.Description, s.Default))
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, p := range s.Properties {
			out.Properties[name] = toGenaiSchema(p)
		}
	}
	return out
}

func genaiType(t string) genai.Type {
	switch t {
	case "object":
		return genai.TypeObject
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	default:
		return genai.TypeString
	}
}
