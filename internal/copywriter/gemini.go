package copywriter

import (
	"context"
	"fmt"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
	"strings"
	"time"
)

type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGemini(ctx context.Context, apiKey string, model string, timeout time.Duration) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("error creating gemini client: %w", err)
	}

	return &Gemini{client: client, model: model, timeout: timeout}, nil
}

func (g *Gemini) Generate(ctx context.Context, req Request) (*Response, error) {
	model := g.client.GenerativeModel(g.model)
	if req.SystemPrompt != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(req.SystemPrompt))
	}
	if req.Params.Temperature > 0 {
		model.SetTemperature(req.Params.Temperature)
	}
	if req.Params.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(req.Params.MaxOutputTokens)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.UserPrompt))
	if err != nil {
		return nil, fmt.Errorf("error generating content with %s: %w", g.model, err)
	}

	content := textOf(resp)
	if content == "" {
		return nil, ErrEmptyResponse
	}

	return &Response{Content: content}, nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}

// textOf joins the text parts of the first candidate.
func textOf(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}

	return strings.TrimSpace(sb.String())
}
