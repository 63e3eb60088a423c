// Package llm provides a reply generation interface over hosted
// language model APIs.
//
// A Client turns a system directive plus the conversation turns into
// one assistant reply. Two remote implementations are provided:
//
//   - [OpenAI]: OpenAI chat completions (or any compatible endpoint)
//   - [Gemini]: Google Gemini
//
// # Quick Start
//
//	c := llm.NewOpenAI("sk-xxx", llm.WithModel("gpt-4o-mini"))
//	reply, err := c.Generate(ctx, directive, turns)
package llm

import (
	"context"
	"errors"
	"net/http"
)

// Role labels one side of the conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn sent to the model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Client generates one assistant reply.
type Client interface {
	// Generate returns the reply text. The directive carries the
	// system-level framing. Turns must alternate user and assistant
	// roles and end with the user turn awaiting a reply.
	Generate(ctx context.Context, directive string, turns []Message) (string, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, directive string, turns []Message) (string, error)

// Generate calls the underlying function.
func (f ClientFunc) Generate(ctx context.Context, directive string, turns []Message) (string, error) {
	return f(ctx, directive, turns)
}

// Common errors.
var (
	// ErrNoReply is returned when the model produced no usable text.
	ErrNoReply = errors.New("llm: no reply")

	// ErrNoTurns is returned when Generate is called without turns.
	ErrNoTurns = errors.New("llm: no turns")
)

// DefaultMaxTokens is the reply cap applied when no override is given.
const DefaultMaxTokens = 300

type config struct {
	model       string
	baseURL     string
	maxTokens   int64
	temperature float64
	httpClient  *http.Client
}

// Option configures a remote client.
type Option func(*config)

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(c *config) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the client at an alternative endpoint. Only the
// OpenAI client honors it.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithMaxTokens caps the reply length. n <= 0 removes the cap.
func WithMaxTokens(n int) Option {
	return func(c *config) { c.maxTokens = int64(n) }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *config) { c.temperature = t }
}

// WithHTTPClient sets the HTTP client used for API calls. Only the
// OpenAI client honors it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}
