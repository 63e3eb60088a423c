package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model override is given.
const DefaultGeminiModel = "gemini-2.0-flash"

// Gemini implements [Client] using the Google Gemini API.
type Gemini struct {
	client      *genai.Client
	model       string
	maxTokens   int64
	temperature float64
}

var _ Client = (*Gemini)(nil)

// NewGemini creates a Gemini-backed client.
func NewGemini(ctx context.Context, apiKey string, opts ...Option) (*Gemini, error) {
	cfg := config{
		model:     DefaultGeminiModel,
		maxTokens: DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("llm: gemini client: %w", err)
	}
	return &Gemini{
		client:      client,
		model:       cfg.model,
		maxTokens:   cfg.maxTokens,
		temperature: cfg.temperature,
	}, nil
}

// Generate sends the directive and turns as one GenerateContent call.
func (g *Gemini) Generate(ctx context.Context, directive string, turns []Message) (string, error) {
	if len(turns) == 0 {
		return "", ErrNoTurns
	}

	cfg := &genai.GenerateContentConfig{}
	if directive != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(directive)},
		}
	}
	if g.maxTokens > 0 {
		cfg.MaxOutputTokens = int32(g.maxTokens)
	}
	if g.temperature > 0 {
		t := float32(g.temperature)
		cfg.Temperature = &t
	}

	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{genai.NewPartFromText(t.Content)},
		})
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		if e, ok := err.(*apierror.APIError); ok {
			err = e.Unwrap()
		}
		return "", fmt.Errorf("llm: gemini: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", ErrNoReply
	}

	cand := resp.Candidates[0]
	switch cand.FinishReason {
	case genai.FinishReasonStop, genai.FinishReasonMaxTokens:
	default:
		return "", fmt.Errorf("llm: gemini finish reason %s", cand.FinishReason)
	}
	if cand.Content == nil {
		return "", ErrNoReply
	}

	var sb strings.Builder
	for _, p := range cand.Content.Parts {
		if p.Text != "" {
			sb.WriteString(p.Text)
		}
	}
	if sb.Len() == 0 {
		return "", ErrNoReply
	}
	return sb.String(), nil
}
