package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vargava/xr-emcee-demo/pkg/convo"
	"github.com/vargava/xr-emcee-demo/pkg/gesture"
	"github.com/vargava/xr-emcee-demo/pkg/llm"
	"github.com/vargava/xr-emcee-demo/pkg/mood"
	"github.com/vargava/xr-emcee-demo/pkg/persona"
	"github.com/vargava/xr-emcee-demo/pkg/speech"
)

const maxRequestBody = 1 << 20

// InitializeRequest builds a fresh agent. Empty fields fall back to
// the catalog defaults; CustomScene overrides the scene with a
// free-text description.
type InitializeRequest struct {
	Personality string `json:"personality,omitempty"`
	Tone        string `json:"tone,omitempty"`
	Scene       string `json:"scene,omitempty"`
	CustomScene string `json:"custom_scene,omitempty"`
}

// SetPersonalityRequest adjusts the live agent mid-conversation. Only
// the fields present are applied. Scene is a free-text description.
type SetPersonalityRequest struct {
	Personality string `json:"personality,omitempty"`
	Tone        string `json:"tone,omitempty"`
	Scene       string `json:"scene,omitempty"`
}

// ChatRequest is one typed message on the text chat endpoint.
type ChatRequest struct {
	Message string `json:"message,omitempty"`
}

var (
	initializeSchema     = mustSchema[InitializeRequest]()
	setPersonalitySchema = mustSchema[SetPersonalityRequest]()
)

func mustSchema[T any]() *jsonschema.Resolved {
	s, err := jsonschema.For[T](nil)
	if err != nil {
		panic(err)
	}
	r, err := s.Resolve(nil)
	if err != nil {
		panic(err)
	}
	return r
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// ServerConfig configures a Server.
type ServerConfig struct {
	// Addr is the listen address, for example ":5000".
	Addr string

	// Client generates replies. Required.
	Client llm.Client

	// Transcriber converts visitor audio to text. Optional.
	Transcriber speech.Transcriber

	// Synthesizer renders replies as audio. Optional.
	Synthesizer speech.Synthesizer

	// Gestures performs gestures on the robot. Optional.
	Gestures *gesture.Dispatcher

	// Catalog supplies personalities, tones, and scenes. If nil, the
	// compiled-in catalog is used.
	Catalog *persona.Catalog

	// Personality, Tone, and Scene select the initial character.
	// Empty fields fall back to the catalog defaults.
	Personality string
	Tone        string
	Scene       string

	// ResponseTimeout and SpeakingTimeout override the session wait
	// bounds when positive.
	ResponseTimeout time.Duration
	SpeakingTimeout time.Duration

	// Logger is optional. If nil, uses slog.Default().
	Logger *slog.Logger
}

// Server exposes one visitor session over HTTP and WebSocket: a
// control surface for the operator panel, a WebSocket for the robot's
// audio front end, and a server-sent event stream for dashboards.
type Server struct {
	addr      string
	client    llm.Client
	stt       speech.Transcriber
	tts       speech.Synthesizer
	moves     *gesture.Dispatcher
	catalog   *persona.Catalog
	respWait  time.Duration
	speakWait time.Duration
	logger    *slog.Logger

	memory *convo.SessionMemory
	hub    *eventHub

	mux        *http.ServeMux
	httpServer *http.Server

	mu      sync.Mutex
	session *Session
}

// NewServer creates a server and its initial session.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Client == nil {
		return nil, errors.New("gateway: llm client required")
	}
	s := &Server{
		addr:      cfg.Addr,
		client:    cfg.Client,
		stt:       cfg.Transcriber,
		tts:       cfg.Synthesizer,
		moves:     cfg.Gestures,
		catalog:   cfg.Catalog,
		respWait:  cfg.ResponseTimeout,
		speakWait: cfg.SpeakingTimeout,
		logger:    cfg.Logger,
		memory:    convo.NewSessionMemory(),
		hub:       newEventHub(),
	}
	if s.catalog == nil {
		s.catalog = persona.Builtin()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	personality := cfg.Personality
	if personality == "" {
		personality = persona.DefaultProfileKey
	}
	tone := cfg.Tone
	if tone == "" {
		tone = persona.DefaultToneKey
	}
	scene := cfg.Scene
	if scene == "" {
		scene = persona.DefaultSceneKey
	}
	s.mu.Lock()
	s.rebuildSessionLocked(personality, tone, scene)
	s.mu.Unlock()

	s.mux = http.NewServeMux()
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/initialize", s.handleInitialize)
	s.mux.HandleFunc("/set_personality", s.handleSetPersonality)
	s.mux.HandleFunc("/reset", s.handleReset)
	s.mux.HandleFunc("/chat", s.handleChat)
	s.mux.HandleFunc("/available_options", s.handleAvailableOptions)
	s.mux.HandleFunc("/status", s.handleStatus)
	s.mux.HandleFunc("/events", s.handleEvents)
	s.mux.HandleFunc("/session", s.handleSession)
	s.mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{Addr: s.addr, Handler: s.mux}
	return s, nil
}

// Handler returns the server's HTTP handler, for embedding and tests.
func (s *Server) Handler() http.Handler { return s.mux }

// Session returns the live session.
func (s *Server) Session() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// ListenAndServe serves until the listener fails or Shutdown is
// called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("gateway: listening", "addr", s.addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the HTTP server and the live session.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.session != nil {
		s.session.Close()
	}
	s.mu.Unlock()
	return s.httpServer.Shutdown(ctx)
}

// rebuildSessionLocked replaces the live session with one running a
// fresh agent. Session memory carries over so the new character still
// knows how many visitors came before.
// Must be called with lock held.
func (s *Server) rebuildSessionLocked(personality, tone, scene string) *Session {
	engine := persona.NewEngineFrom(s.catalog, personality, tone, scene)
	agent := convo.NewAgent(s.client,
		convo.WithEngine(engine),
		convo.WithMemory(s.memory),
		convo.WithLogger(s.logger),
	)
	if s.session != nil {
		s.session.Close()
	}
	s.session = NewSession(SessionConfig{
		Agent:           agent,
		Transcriber:     s.stt,
		Synthesizer:     s.tts,
		Gestures:        s.moves,
		Emitter:         s,
		ResponseTimeout: s.respWait,
		SpeakingTimeout: s.speakWait,
		Logger:          s.logger,
	})
	s.logger.Info("gateway: session ready",
		"session", s.session.ID(),
		"personality", personality, "tone", tone, "scene", scene)
	return s.session
}

func (s *Server) currentSession() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Emit implements Emitter by broadcasting the event to every
// connected WebSocket and event stream client.
func (s *Server) Emit(event string, payload any) {
	msg, err := marshalEvent(event, payload)
	if err != nil {
		s.logger.Error("gateway: failed to marshal event", "event", event, "err", err)
		return
	}
	s.hub.broadcast(msg)
}

func marshalEvent(event string, payload any) ([]byte, error) {
	return json.Marshal(struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}{event, payload})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	connected := false
	if s.moves != nil {
		connected = s.moves.Status().Connected
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":             "healthy",
		"bot_initialized":    s.currentSession() != nil,
		"actuator_connected": connected,
	})
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req InitializeRequest
	if !s.decodeValidated(w, r, initializeSchema, &req) {
		return
	}
	if req.Personality == "" {
		req.Personality = persona.DefaultProfileKey
	}
	if req.Tone == "" {
		req.Tone = persona.DefaultToneKey
	}
	if req.Scene == "" {
		req.Scene = persona.DefaultSceneKey
	}

	s.mu.Lock()
	sess := s.rebuildSessionLocked(req.Personality, req.Tone, req.Scene)
	s.mu.Unlock()
	if req.CustomScene != "" {
		sess.Agent().SetScene(req.CustomScene)
	}
	s.logger.Info("gateway: agent initialized",
		"personality", req.Personality, "tone", req.Tone, "scene", req.Scene)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("Bot initialized with %s/%s", req.Personality, req.Tone),
		"config": map[string]string{
			"personality": req.Personality,
			"tone":        req.Tone,
			"scene":       req.Scene,
		},
	})
}

func (s *Server) handleSetPersonality(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req SetPersonalityRequest
	if !s.decodeValidated(w, r, setPersonalitySchema, &req) {
		return
	}
	agent := s.currentSession().Agent()
	if req.Personality != "" {
		agent.SetPersonality(req.Personality)
	}
	if req.Tone != "" {
		if err := agent.ChangeTone(req.Tone); err != nil {
			s.statusError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Scene != "" {
		agent.SetScene(req.Scene)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Settings updated",
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req ResetCommand
	if !s.decodeBody(w, r, &req) {
		return
	}
	sess := s.currentSession()
	intro, err := sess.Reset(r.Context(), req.ContextClues)
	if err != nil {
		s.statusError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]any{
		"status":         "success",
		"message":        "Ready for new visitor",
		"total_visitors": sess.Agent().Memory().TotalVisitors(),
	}
	if intro != "" {
		resp["introduction"] = intro
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req ChatRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Message == "" {
		s.statusError(w, http.StatusBadRequest, "No message provided")
		return
	}
	agent := s.currentSession().Agent()
	reply, err := agent.ProcessInput(r.Context(), req.Message)
	if err != nil {
		s.statusError(w, http.StatusInternalServerError, err.Error())
		return
	}
	g := gesture.ForEmotion(mood.Classify(reply))
	if s.moves != nil {
		s.moves.Dispatch(g)
		metricGestures.WithLabelValues(g.Name).Inc()
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":         "success",
		"response":       reply,
		"gesture":        g.Name,
		"exchange_count": agent.ExchangeCount(),
	})
}

// AvailableOptions describes the personality, tone, scene and gesture
// choices in catalog, in the shape served from /available_options.
func AvailableOptions(catalog *persona.Catalog) map[string]any {
	profiles := catalog.Profiles()
	personalities := make([]string, 0, len(profiles))
	personalityDetails := make(map[string]persona.Profile, len(profiles))
	for _, p := range profiles {
		personalities = append(personalities, p.Key)
		personalityDetails[p.Key] = p
	}
	tones := catalog.Tones()
	toneKeys := make([]string, 0, len(tones))
	toneDetails := make(map[string]string, len(tones))
	for _, t := range tones {
		toneKeys = append(toneKeys, t.Key)
		toneDetails[t.Key] = t.Instruction
	}
	scenes := catalog.Scenes()
	sceneKeys := make([]string, 0, len(scenes))
	for _, sc := range scenes {
		sceneKeys = append(sceneKeys, sc.Key)
	}
	return map[string]any{
		"personalities":       personalities,
		"personality_details": personalityDetails,
		"tones":               toneKeys,
		"tone_details":        toneDetails,
		"scenes":              sceneKeys,
		"gestures":            gesture.Names(),
	}
}

func (s *Server) handleAvailableOptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, AvailableOptions(s.catalog))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess := s.currentSession()
	agent := sess.Agent()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"state":              sess.State(),
		"personality":        agent.Profile().Key,
		"tone":               agent.Tone().Key,
		"scene":              agent.Scene().Key,
		"exchange_count":     agent.ExchangeCount(),
		"humor_adjustment":   agent.HumorAdjustment(),
		"total_visitors":     agent.Memory().TotalVisitors(),
		"session_id":         sess.ID(),
		"session_started_at": sess.StartedAt(),
	})
}

// handleEvents streams session events to dashboards as server-sent
// events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := s.hub.subscribe()
	defer s.hub.unsubscribe(sub)

	fmt.Fprintf(w, "data: %s\n\n", `{"event":"connection_status","data":{"status":"connected"}}`)
	flusher.Flush()

	for {
		select {
		case msg, ok := <-sub:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// handleSession runs the robot-facing WebSocket. Inbound events drive
// the session; session events are broadcast back along with any other
// connected client.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("gateway: websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	s.logger.Info("gateway: client connected", "remote", r.RemoteAddr)

	hello, err := marshalEvent(EventConnectionStatus, map[string]string{
		"status":  "connected",
		"message": "Connected to bot server",
	})
	if err == nil {
		if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
			return
		}
	}

	sub := s.hub.subscribe()
	defer s.hub.unsubscribe(sub)
	out := make(chan []byte, 16)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case msg, ok := <-sub:
				if !ok {
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			case msg := <-out:
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	// Turns must survive the connection: a reply still generating when
	// the socket drops has to land in the agent's history.
	ctx := context.WithoutCancel(r.Context())
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.logger.Info("gateway: client disconnected", "remote", r.RemoteAddr)
			return
		}
		s.dispatchClientEvent(ctx, out, data)
	}
}

// dispatchClientEvent routes one WebSocket event to the session.
// Validation failures go back on the sender's own channel rather than
// the broadcast stream.
func (s *Server) dispatchClientEvent(ctx context.Context, out chan []byte, data []byte) {
	var env ClientEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.sendDirect(out, EventError, ErrorMessage{Message: "Malformed event"})
		return
	}
	switch env.Event {
	case EventAudioChunk:
		chunk := AudioChunk{Final: true}
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &chunk); err != nil {
				s.sendDirect(out, EventTranscriptionError, ErrorMessage{Message: couldNotUnderstand})
				return
			}
		}
		s.currentSession().HandleAudioChunk(ctx, []byte(chunk.Audio), mimeFromFormat(chunk.Format), chunk.Final)
	case EventTextMessage:
		var msg TextMessage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			s.sendDirect(out, EventError, ErrorMessage{Message: "Malformed text message"})
			return
		}
		if msg.Message == "" {
			s.sendDirect(out, EventError, ErrorMessage{Message: "No message provided"})
			return
		}
		s.currentSession().HandleText(ctx, msg.Message)
	case EventReset:
		var cmd ResetCommand
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &cmd); err != nil {
				s.sendDirect(out, EventError, ErrorMessage{Message: "Malformed reset"})
				return
			}
		}
		go func() {
			if _, err := s.currentSession().Reset(ctx, cmd.ContextClues); err != nil {
				s.Emit(EventError, ErrorMessage{Message: err.Error()})
			}
		}()
	case EventPlaybackDone:
		s.currentSession().FinishSpeaking()
	default:
		s.logger.Debug("gateway: ignoring unknown client event", "event", env.Event)
	}
}

func (s *Server) sendDirect(out chan []byte, event string, payload any) {
	msg, err := marshalEvent(event, payload)
	if err != nil {
		s.logger.Error("gateway: failed to marshal event", "event", event, "err", err)
		return
	}
	select {
	case out <- msg:
	default:
	}
}

// mimeFromFormat maps the wire format field to a MIME type for the
// transcriber.
func mimeFromFormat(format string) string {
	switch {
	case format == "":
		return "audio/wav"
	case strings.Contains(format, "/"):
		return format
	case format == "mp3":
		return "audio/mpeg"
	default:
		return "audio/" + format
	}
}

// decodeValidated reads the request body, checks it against schema,
// and decodes it into v. On failure it writes the error response and
// reports false.
func (s *Server) decodeValidated(w http.ResponseWriter, r *http.Request, schema *jsonschema.Resolved, v any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		s.statusError(w, http.StatusBadRequest, "request body unreadable")
		return false
	}
	if len(body) == 0 {
		body = []byte("{}")
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		s.statusError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	if err := schema.Validate(raw); err != nil {
		s.statusError(w, http.StatusBadRequest, err.Error())
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		s.statusError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		s.statusError(w, http.StatusBadRequest, "request body unreadable")
		return false
	}
	if len(body) == 0 {
		return true
	}
	if err := json.Unmarshal(body, v); err != nil {
		s.statusError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("gateway: failed to encode response", "err", err)
	}
}

func (s *Server) statusError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]any{
		"status":  "error",
		"message": msg,
	})
}

// eventHub fans session events out to subscribed clients. Slow
// clients miss events rather than stall the session.
type eventHub struct {
	mu      sync.RWMutex
	clients map[chan []byte]struct{}
}

func newEventHub() *eventHub {
	return &eventHub{clients: make(map[chan []byte]struct{})}
}

func (h *eventHub) subscribe() chan []byte {
	ch := make(chan []byte, 100)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *eventHub) unsubscribe(ch chan []byte) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *eventHub) broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}
