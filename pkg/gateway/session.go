// Package gateway sequences a visitor-facing conversation session and
// serves it over HTTP and WebSocket.
//
// A [Session] sits between the transports and the conversation agent.
// It enforces the turn discipline a physical robot needs: visitor
// audio buffers while listening, one utterance is in flight at a time,
// and input arriving while the robot is composing or playing a reply
// is dropped so the robot does not answer its own voice. Replies that
// outlive their turn, because the wait timed out or the session was
// reset for a new visitor, are discarded rather than delivered.
//
// [Server] exposes a session over the control API and the /session
// WebSocket.
package gateway

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vargava/xr-emcee-demo/pkg/convo"
	"github.com/vargava/xr-emcee-demo/pkg/encoding"
	"github.com/vargava/xr-emcee-demo/pkg/gesture"
	"github.com/vargava/xr-emcee-demo/pkg/jsontime"
	"github.com/vargava/xr-emcee-demo/pkg/mood"
	"github.com/vargava/xr-emcee-demo/pkg/speech"
)

// Default wait bounds for a session.
const (
	// DefaultResponseTimeout bounds how long a session stays in
	// awaiting_response before giving up and returning to idle.
	DefaultResponseTimeout = 15 * time.Second

	// DefaultSpeakingTimeout bounds how long a session stays in
	// speaking when the client never reports playback completion.
	DefaultSpeakingTimeout = 30 * time.Second
)

// couldNotUnderstand is sent to the client when an utterance produced
// no usable transcript.
const couldNotUnderstand = "Could not understand audio"

// SessionConfig configures a Session.
type SessionConfig struct {
	// Agent runs the conversational turns. Required.
	Agent *convo.Agent

	// Transcriber converts visitor audio to text. If nil, audio input
	// is reported as not understood.
	Transcriber speech.Transcriber

	// Synthesizer renders replies as audio. If nil, replies are
	// text-only.
	Synthesizer speech.Synthesizer

	// Gestures performs the gesture matching each reply. If nil, no
	// gestures are dispatched.
	Gestures *gesture.Dispatcher

	// Emitter receives outbound session events. If nil, events are
	// discarded.
	Emitter Emitter

	// ResponseTimeout overrides DefaultResponseTimeout when positive.
	// The expiring wait does not cancel the in-flight generation; a
	// reply that arrives late still lands in the agent's history but
	// is not delivered.
	ResponseTimeout time.Duration

	// SpeakingTimeout overrides DefaultSpeakingTimeout when positive.
	SpeakingTimeout time.Duration

	// Logger is optional. If nil, uses slog.Default().
	Logger *slog.Logger
}

// Session sequences one visitor conversation. Methods are safe for
// concurrent use.
type Session struct {
	id        string
	agent     *convo.Agent
	stt       speech.Transcriber
	tts       speech.Synthesizer
	moves     *gesture.Dispatcher
	emitter   Emitter
	logger    *slog.Logger
	respWait  time.Duration
	speakWait time.Duration
	startedAt jsontime.Milli

	mu        sync.Mutex
	state     State
	epoch     uint64
	timer     *time.Timer
	audioBuf  []byte
	audioMIME string
}

// NewSession creates a session from cfg.
func NewSession(cfg SessionConfig) *Session {
	s := &Session{
		id:        uuid.NewString(),
		agent:     cfg.Agent,
		stt:       cfg.Transcriber,
		tts:       cfg.Synthesizer,
		moves:     cfg.Gestures,
		emitter:   cfg.Emitter,
		logger:    cfg.Logger,
		respWait:  cfg.ResponseTimeout,
		speakWait: cfg.SpeakingTimeout,
		startedAt: jsontime.NowEpochMilli(),
	}
	if s.stt == nil {
		s.stt = speech.Disabled{}
	}
	if s.tts == nil {
		s.tts = speech.Disabled{}
	}
	if s.emitter == nil {
		s.emitter = nopEmitter{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.respWait <= 0 {
		s.respWait = DefaultResponseTimeout
	}
	if s.speakWait <= 0 {
		s.speakWait = DefaultSpeakingTimeout
	}
	return s
}

// State reports the current sequencing state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Agent returns the conversation agent behind the session.
func (s *Session) Agent() *convo.Agent { return s.agent }

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// StartedAt reports when the session was created.
func (s *Session) StartedAt() jsontime.Milli { return s.startedAt }

// HandleAudioChunk feeds one piece of visitor audio. Chunks buffer
// until one arrives with final set, which closes the utterance and
// starts a turn. Chunks arriving while the robot is composing or
// playing a reply are dropped.
func (s *Session) HandleAudioChunk(ctx context.Context, data []byte, mime string, final bool) {
	s.mu.Lock()
	if !s.state.AcceptsUtterance() {
		metricDroppedAudio.Inc()
		s.logger.Debug("gateway: dropping audio chunk", "state", s.state, "bytes", len(data))
		s.mu.Unlock()
		return
	}
	s.audioBuf = append(s.audioBuf, data...)
	if mime != "" {
		s.audioMIME = mime
	}
	if !final {
		if s.state == StateIdle {
			s.setStateLocked(StateListening)
		}
		s.mu.Unlock()
		return
	}
	audio := s.audioBuf
	mimeType := s.audioMIME
	s.audioBuf = nil
	s.audioMIME = ""
	epoch := s.beginTurnLocked()
	s.mu.Unlock()

	go s.transcribeAndRespond(ctx, epoch, audio, mimeType)
}

// HandleText runs one typed visitor message as a turn. Messages
// arriving while the robot is composing or playing a reply are
// rejected with an error event.
func (s *Session) HandleText(ctx context.Context, text string) {
	s.mu.Lock()
	if !s.state.AcceptsUtterance() {
		s.logger.Debug("gateway: rejecting text message", "state", s.state)
		s.emitter.Emit(EventError, ErrorMessage{Message: "Still handling the previous turn"})
		s.mu.Unlock()
		return
	}
	epoch := s.beginTurnLocked()
	s.mu.Unlock()

	go s.respond(ctx, epoch, text)
}

// FinishSpeaking reports that the client finished playing the reply.
// It returns the session to idle; in any other state it is a no-op.
func (s *Session) FinishSpeaking() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSpeaking {
		return
	}
	s.stopTimerLocked()
	s.setStateLocked(StateIdle)
}

// Reset hands the session to the next visitor. Whatever the session
// was doing is abandoned: buffered audio is cleared, a pending wait is
// cancelled, and a reply still in flight will be discarded when it
// lands. With context clues the agent introduces itself and the
// introduction is delivered like any reply; the introduction text is
// also returned for transports that answer synchronously.
func (s *Session) Reset(ctx context.Context, contextClues string) (string, error) {
	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	s.stopTimerLocked()
	s.audioBuf = nil
	s.audioMIME = ""
	s.setStateLocked(StateIdle)
	s.mu.Unlock()

	intro, err := s.agent.ResetForNewVisitor(ctx, contextClues)
	if err != nil {
		metricGenerationFailures.Inc()
		s.logger.Warn("gateway: introduction failed", "err", err)
		return "", err
	}
	if intro == "" {
		return "", nil
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return intro, nil
	}
	s.setStateLocked(StateSpeaking)
	s.armTimerLocked(s.speakWait, s.onSpeakingTimeout, epoch)
	s.mu.Unlock()

	s.deliver(ctx, epoch, intro)
	return intro, nil
}

// Close abandons whatever the session is doing: timers stop, buffered
// audio is dropped, and in-flight replies will be discarded. Used when
// the session is replaced or the server shuts down.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.stopTimerLocked()
	s.audioBuf = nil
	s.audioMIME = ""
	s.state = StateIdle
}

// beginTurnLocked opens a new turn: the session moves to
// awaiting_response and the response timer starts. The returned epoch
// identifies the turn; a reply only counts while it matches.
// Must be called with lock held.
func (s *Session) beginTurnLocked() uint64 {
	s.epoch++
	s.setStateLocked(StateAwaitingResponse)
	s.armTimerLocked(s.respWait, s.onResponseTimeout, s.epoch)
	return s.epoch
}

// Must be called with lock held.
func (s *Session) setStateLocked(next State) {
	if s.state == next {
		return
	}
	s.logger.Debug("gateway: state changed", "from", s.state, "to", next)
	s.state = next
	s.emitter.Emit(EventState, StateUpdate{State: next})
}

// Must be called with lock held.
func (s *Session) armTimerLocked(d time.Duration, expire func(uint64), epoch uint64) {
	s.stopTimerLocked()
	s.timer = time.AfterFunc(d, func() { expire(epoch) })
}

// Must be called with lock held.
func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) onResponseTimeout(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch || s.state != StateAwaitingResponse {
		return
	}
	metricResponseTimeouts.Inc()
	s.logger.Warn("gateway: gave up waiting for reply", "timeout", s.respWait)
	s.timer = nil
	s.setStateLocked(StateIdle)
}

func (s *Session) onSpeakingTimeout(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch || s.state != StateSpeaking {
		return
	}
	s.logger.Debug("gateway: no playback signal, assuming done")
	s.timer = nil
	s.setStateLocked(StateIdle)
}

// transcribeAndRespond turns a finished utterance into a reply. An
// utterance that cannot be transcribed ends the turn with a
// transcription error and never reaches the agent.
func (s *Session) transcribeAndRespond(ctx context.Context, epoch uint64, audio []byte, mime string) {
	text, err := s.stt.Transcribe(ctx, audio, mime)
	if err != nil {
		s.logger.Warn("gateway: transcription failed", "err", err)
		text = ""
	}
	if text == "" {
		metricTranscriptionFailures.Inc()
		s.mu.Lock()
		if s.epoch == epoch && s.state == StateAwaitingResponse {
			s.stopTimerLocked()
			s.emitter.Emit(EventTranscriptionError, ErrorMessage{Message: couldNotUnderstand})
			s.setStateLocked(StateIdle)
		}
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	if s.epoch != epoch || s.state != StateAwaitingResponse {
		// The turn was abandoned while transcribing. The utterance
		// belongs to the previous visitor or an expired wait, so it
		// must not reach the agent.
		s.logger.Debug("gateway: discarding transcript for abandoned turn", "text", text)
		s.mu.Unlock()
		return
	}
	s.emitter.Emit(EventTranscription, Transcription{Text: text})
	s.mu.Unlock()

	s.respond(ctx, epoch, text)
}

// respond runs one agent turn and delivers the reply, unless the turn
// was abandoned while the reply was being generated.
func (s *Session) respond(ctx context.Context, epoch uint64, text string) {
	reply, err := s.agent.ProcessInput(ctx, text)

	s.mu.Lock()
	if s.epoch != epoch || s.state != StateAwaitingResponse {
		metricStaleReplies.Inc()
		s.logger.Info("gateway: discarding reply for abandoned turn")
		s.mu.Unlock()
		return
	}
	s.stopTimerLocked()
	if err != nil {
		metricGenerationFailures.Inc()
		s.emitter.Emit(EventError, ErrorMessage{Message: err.Error()})
		s.setStateLocked(StateIdle)
		s.mu.Unlock()
		return
	}
	metricTurns.Inc()
	s.setStateLocked(StateSpeaking)
	s.armTimerLocked(s.speakWait, s.onSpeakingTimeout, epoch)
	s.mu.Unlock()

	s.deliver(ctx, epoch, reply)
}

// deliver classifies the reply, dispatches the matching gesture,
// synthesizes audio, and emits the bot response. The emit is skipped
// if the session was reset in the meantime.
func (s *Session) deliver(ctx context.Context, epoch uint64, reply string) {
	g := gesture.ForEmotion(mood.Classify(reply))
	if s.moves != nil {
		s.moves.Dispatch(g)
		metricGestures.WithLabelValues(g.Name).Inc()
	}

	audio, err := s.tts.Synthesize(ctx, reply)
	if err != nil {
		s.logger.Warn("gateway: synthesis failed", "err", err)
		audio = nil
	}

	resp := BotResponse{
		Text:          reply,
		Gesture:       g.Name,
		ExchangeCount: s.agent.ExchangeCount(),
		Audio:         encoding.StdBase64Data(audio),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		s.logger.Debug("gateway: discarding response for abandoned turn")
		return
	}
	s.emitter.Emit(EventBotResponse, resp)
}
