package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io"
	defaultTimeout = 30 * time.Second

	// DefaultVoiceID is the stock narrator voice.
	DefaultVoiceID = "JBFqnCBsd6RMkjVDRZzb"

	// DefaultSTTModel is the transcription model.
	DefaultSTTModel = "scribe_v1"

	// DefaultTTSModel is the synthesis model.
	DefaultTTSModel = "eleven_multilingual_v2"

	// DefaultOutputFormat is the synthesized audio encoding.
	DefaultOutputFormat = "mp3_44100_128"
)

// Error is an ElevenLabs API failure.
type Error struct {
	// Status is the API status label, when the response carried one.
	Status string `json:"status"`

	// Message is the failure description.
	Message string `json:"message"`

	// HTTPStatus is the HTTP status code.
	HTTPStatus int `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("speech: elevenlabs: %s (status=%s, http_status=%d)",
		e.Message, e.Status, e.HTTPStatus)
}

// parseAPIError decodes an error response body. The detail field is
// either a bare string or a {status, message} object.
func parseAPIError(statusCode int, body []byte) *Error {
	e := &Error{
		Message:    http.StatusText(statusCode),
		HTTPStatus: statusCode,
	}

	var resp struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Detail) == 0 {
		return e
	}

	var s string
	if err := json.Unmarshal(resp.Detail, &s); err == nil {
		e.Message = s
		return e
	}
	var d struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Detail, &d); err == nil {
		e.Status = d.Status
		if d.Message != "" {
			e.Message = d.Message
		}
	}
	return e
}

// clientConfig represents client configuration
type clientConfig struct {
	baseURL      string
	voiceID      string
	sttModel     string
	ttsModel     string
	outputFormat string
	language     string
	httpClient   *http.Client
	timeout      time.Duration
	log          *slog.Logger
}

// Option represents configuration option function
type Option func(*clientConfig)

// WithBaseURL sets the API base URL.
//
// Default: https://api.elevenlabs.io
func WithBaseURL(url string) Option {
	return func(c *clientConfig) { c.baseURL = url }
}

// WithVoice sets the synthesis voice ID.
func WithVoice(voiceID string) Option {
	return func(c *clientConfig) { c.voiceID = voiceID }
}

// WithSTTModel sets the transcription model.
func WithSTTModel(model string) Option {
	return func(c *clientConfig) { c.sttModel = model }
}

// WithTTSModel sets the synthesis model.
func WithTTSModel(model string) Option {
	return func(c *clientConfig) { c.ttsModel = model }
}

// WithOutputFormat sets the synthesized audio encoding.
func WithOutputFormat(format string) Option {
	return func(c *clientConfig) { c.outputFormat = format }
}

// WithLanguage pins the transcription language code, e.g. "eng".
func WithLanguage(code string) Option {
	return func(c *clientConfig) { c.language = code }
}

// WithHTTPClient sets custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) { c.httpClient = client }
}

// WithTimeout sets request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) { c.timeout = timeout }
}

// WithLogger sets the logger for degraded calls.
func WithLogger(log *slog.Logger) Option {
	return func(c *clientConfig) { c.log = log }
}

// ElevenLabs talks to the ElevenLabs speech APIs and implements both
// Transcriber and Synthesizer. API failures degrade to the null
// result (empty text, nil audio) with a warning log, so a broken
// speech service never fails a conversational turn. Context
// cancellation still propagates as an error.
type ElevenLabs struct {
	apiKey string
	config *clientConfig
}

var (
	_ Transcriber = (*ElevenLabs)(nil)
	_ Synthesizer = (*ElevenLabs)(nil)
)

// NewElevenLabs creates an ElevenLabs speech client.
//
// apiKey is the xi-api-key from the ElevenLabs console.
func NewElevenLabs(apiKey string, opts ...Option) *ElevenLabs {
	config := &clientConfig{
		baseURL:      defaultBaseURL,
		voiceID:      DefaultVoiceID,
		sttModel:     DefaultSTTModel,
		ttsModel:     DefaultTTSModel,
		outputFormat: DefaultOutputFormat,
		language:     "eng",
		timeout:      defaultTimeout,
	}
	for _, opt := range opts {
		opt(config)
	}
	if config.httpClient == nil {
		config.httpClient = &http.Client{Timeout: config.timeout}
	}
	if config.log == nil {
		config.log = slog.Default()
	}
	return &ElevenLabs{apiKey: apiKey, config: config}
}

// Transcribe uploads the audio for speech-to-text conversion.
func (c *ElevenLabs) Transcribe(ctx context.Context, audio []byte, mime string) (string, error) {
	if len(audio) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part := make(textproto.MIMEHeader)
	part.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename=%q`, "audio."+extFor(mime)))
	if mime != "" {
		part.Set("Content-Type", mime)
	}
	fw, err := mw.CreatePart(part)
	if err != nil {
		return "", fmt.Errorf("speech: build upload: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return "", fmt.Errorf("speech: build upload: %w", err)
	}
	mw.WriteField("model_id", c.config.sttModel)
	if c.config.language != "" {
		mw.WriteField("language_code", c.config.language)
	}
	mw.WriteField("tag_audio_events", "false")
	mw.WriteField("diarize", "false")
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("speech: build upload: %w", err)
	}

	url := c.config.baseURL + "/v1/speech-to-text"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return "", fmt.Errorf("speech: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("xi-api-key", c.apiKey)

	body, err := c.send(ctx, req, "transcription")
	if err != nil || body == nil {
		return "", err
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		c.config.log.Warn("speech: decode transcription", "err", err)
		return "", nil
	}
	return strings.TrimSpace(result.Text), nil
}

// Synthesize renders the text with the configured voice.
func (c *ElevenLabs) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	payload, err := json.Marshal(struct {
		Text    string `json:"text"`
		ModelID string `json:"model_id"`
	}{Text: text, ModelID: c.config.ttsModel})
	if err != nil {
		return nil, fmt.Errorf("speech: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		c.config.baseURL, c.config.voiceID, c.config.outputFormat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("speech: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.apiKey)

	return c.send(ctx, req, "synthesis")
}

// send performs the request. Transport and API failures return
// (nil, nil) after logging; only context cancellation is an error.
func (c *ElevenLabs) send(ctx context.Context, req *http.Request, op string) ([]byte, error) {
	resp, err := c.config.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.config.log.Warn("speech: "+op+" request failed", "err", err)
		return nil, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.config.log.Warn("speech: read "+op+" response", "err", err)
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		c.config.log.Warn("speech: "+op+" rejected", "err", parseAPIError(resp.StatusCode, body))
		return nil, nil
	}
	return body, nil
}

// extFor picks an upload filename extension for a MIME type.
func extFor(mime string) string {
	switch mime {
	case "", "audio/wav", "audio/x-wav", "audio/wave":
		return "wav"
	case "audio/mpeg", "audio/mp3":
		return "mp3"
	default:
		if ext, ok := strings.CutPrefix(mime, "audio/"); ok {
			if base, _, found := strings.Cut(ext, ";"); found {
				return base
			}
			return ext
		}
		return "wav"
	}
}
