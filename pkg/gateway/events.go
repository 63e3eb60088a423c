package gateway

import (
	"encoding/json"

	"github.com/vargava/xr-emcee-demo/pkg/encoding"
)

// ClientEnvelope frames one client event on the session WebSocket.
type ClientEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client event names carried in the envelope's event field.
const (
	EventAudioChunk   = "audio_chunk"
	EventTextMessage  = "text_message"
	EventReset        = "reset"
	EventPlaybackDone = "playback_done"
)

// Server event names.
const (
	EventConnectionStatus   = "connection_status"
	EventTranscription      = "transcription"
	EventTranscriptionError = "transcription_error"
	EventBotResponse        = "bot_response"
	EventState              = "state"
	EventError              = "error"
)

// AudioChunk carries one piece of visitor audio. Audio is base64 on
// the wire. Final marks the end of the utterance; clients that send
// whole clips in one event may omit it, which counts as final.
type AudioChunk struct {
	Audio      encoding.StdBase64Data `json:"audio,omitempty"`
	Format     string                 `json:"format,omitempty"`
	SampleRate int                    `json:"sample_rate,omitempty"`
	Final      bool                   `json:"is_final,omitempty"`
}

// TextMessage is a typed visitor message, used when audio capture is
// unavailable.
type TextMessage struct {
	Message string `json:"message,omitempty"`
}

// ResetCommand hands the session to the next visitor. ContextClues,
// when present, describe what the robot can see about the newcomer.
type ResetCommand struct {
	ContextClues string `json:"context_clues,omitempty"`
}

// Transcription reports what the visitor was heard to say.
type Transcription struct {
	Text string `json:"text"`
}

// BotResponse is a finished reply: the text, the matching gesture,
// and optionally the synthesized audio as base64.
type BotResponse struct {
	Text          string                 `json:"text"`
	Audio         encoding.StdBase64Data `json:"audio,omitempty"`
	Gesture       string                 `json:"gesture"`
	ExchangeCount int                    `json:"exchange_count"`
}

// StateUpdate announces a sequencing state change.
type StateUpdate struct {
	State State `json:"state"`
}

// ErrorMessage carries a human-readable failure notice.
type ErrorMessage struct {
	Message string `json:"message"`
}

// Emitter receives outbound session events. Emit must not block;
// implementations hand events off to a buffered channel or similar.
type Emitter interface {
	Emit(event string, payload any)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(event string, payload any)

// Emit calls f(event, payload).
func (f EmitterFunc) Emit(event string, payload any) { f(event, payload) }

type nopEmitter struct{}

func (nopEmitter) Emit(string, any) {}
