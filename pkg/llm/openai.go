package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
)

// DefaultOpenAIModel is used when no model override is given.
const DefaultOpenAIModel = "gpt-4o-mini"

const (
	finishReasonStop   = "stop"
	finishReasonLength = "length"
)

// OpenAI implements [Client] using the OpenAI chat completions API.
// With WithBaseURL it also serves OpenAI-compatible providers.
type OpenAI struct {
	client      *openai.Client
	model       string
	maxTokens   int64
	temperature float64
}

var _ Client = (*OpenAI)(nil)

// NewOpenAI creates an OpenAI-backed client.
func NewOpenAI(apiKey string, opts ...Option) *OpenAI {
	cfg := config{
		model:      DefaultOpenAIModel,
		maxTokens:  DefaultMaxTokens,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(cfg.httpClient),
	}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}
	client := openai.NewClient(clientOpts...)

	return &OpenAI{
		client:      &client,
		model:       cfg.model,
		maxTokens:   cfg.maxTokens,
		temperature: cfg.temperature,
	}
}

// Generate sends the directive and turns as one chat completion.
func (o *OpenAI) Generate(ctx context.Context, directive string, turns []Message) (string, error) {
	if len(turns) == 0 {
		return "", ErrNoTurns
	}

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+1)
	if directive != "" {
		msgs = append(msgs, openai.ChatCompletionMessageParamUnion{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: param.NewOpt(directive),
				},
			},
		})
	}
	for _, t := range turns {
		switch t.Role {
		case RoleAssistant:
			msgs = append(msgs, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Content: openai.ChatCompletionAssistantMessageParamContentUnion{
						OfString: param.NewOpt(t.Content),
					},
				},
			})
		default:
			msgs = append(msgs, openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: param.NewOpt(t.Content),
					},
				},
			})
		}
	}

	params := openai.ChatCompletionNewParams{
		Messages: msgs,
		Model:    o.model,
	}
	if o.maxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(o.maxTokens)
	}
	if o.temperature > 0 {
		params.Temperature = param.NewOpt(o.temperature)
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("llm: openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoReply
	}

	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return "", fmt.Errorf("llm: openai refused: %s", choice.Message.Refusal)
	}
	switch choice.FinishReason {
	case finishReasonStop, finishReasonLength:
	default:
		return "", fmt.Errorf("llm: openai finish reason %s", choice.FinishReason)
	}
	if choice.Message.Content == "" {
		return "", ErrNoReply
	}
	return choice.Message.Content, nil
}
