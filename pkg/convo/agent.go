package convo

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vargava/xr-emcee-demo/pkg/llm"
	"github.com/vargava/xr-emcee-demo/pkg/persona"
)

// Agent runs one visitor conversation at a time. All methods are safe
// for concurrent use: calls serialize on the agent's lock, so a
// second ProcessInput queues behind an in-flight one rather than
// interleaving turns. Between calls the history holds only complete
// user/assistant pairs.
type Agent struct {
	mu     sync.Mutex
	engine *persona.Engine
	client llm.Client
	memory *SessionMemory
	log    *slog.Logger

	history         []Turn
	exchangeCount   int
	humorAdjustment int
}

// Option configures an Agent at construction.
type Option func(*Agent)

// WithEngine injects a prepared persona engine.
func WithEngine(e *persona.Engine) Option {
	return func(a *Agent) { a.engine = e }
}

// WithMemory shares an existing session memory with the agent, so
// visit summaries survive agent rebuilds.
func WithMemory(m *SessionMemory) Option {
	return func(a *Agent) { a.memory = m }
}

// WithLogger sets the agent's logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *Agent) { a.log = log }
}

// NewAgent wires a conversation agent around a generation client.
func NewAgent(client llm.Client, opts ...Option) *Agent {
	a := &Agent{client: client}
	for _, opt := range opts {
		opt(a)
	}
	if a.engine == nil {
		a.engine = persona.NewEngine(
			persona.DefaultProfileKey, persona.DefaultToneKey, persona.DefaultSceneKey)
	}
	if a.memory == nil {
		a.memory = NewSessionMemory()
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	return a
}

// ProcessInput runs one user→assistant exchange: append the user
// turn, compose the directive, invoke the generation client with the
// full ordered history, record the reply. On generation failure the
// user turn rolls back, the exchange counter stays put, and the
// returned error is a *GenerationError carrying the backend message.
func (a *Agent) ProcessInput(ctx context.Context, text string, opts ...ProcessOption) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.processLocked(ctx, text, opts...)
}

func (a *Agent) processLocked(ctx context.Context, text string, opts ...ProcessOption) (string, error) {
	var po processOptions
	for _, opt := range opts {
		opt(&po)
	}
	if po.humorSet {
		a.humorAdjustment = po.humor
	}

	a.history = append(a.history, Turn{Role: llm.RoleUser, Text: text, At: time.Now()})
	directive := a.engine.ComposeDirective(a.humorAdjustment, a.memory.Summaries(), a.exchangeCount+1)

	reply, err := a.client.Generate(ctx, directive, a.messagesLocked())
	if err != nil {
		a.history = a.history[:len(a.history)-1]
		a.log.Warn("convo: generation failed", "exchange", a.exchangeCount+1, "err", err)
		return "", &GenerationError{Err: err}
	}

	a.history = append(a.history, Turn{Role: llm.RoleAssistant, Text: reply, At: time.Now()})
	a.exchangeCount++
	return reply, nil
}

func (a *Agent) messagesLocked() []llm.Message {
	msgs := make([]llm.Message, len(a.history))
	for i, t := range a.history {
		msgs[i] = llm.Message{Role: t.Role, Content: t.Text}
	}
	return msgs
}

// IntroduceSelf opens the conversation with the bot speaking first.
// Context clues, when given, seed the opener.
func (a *Agent) IntroduceSelf(ctx context.Context, contextClues string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.introduceLocked(ctx, contextClues)
}

func (a *Agent) introduceLocked(ctx context.Context, contextClues string) (string, error) {
	prompt := introPrompt
	if contextClues != "" {
		prompt += fmt.Sprintf(introClueHint, contextClues)
	}
	return a.processLocked(ctx, prompt)
}

// ChangeTone switches the active tone mid-conversation. Unknown tones
// return a *persona.UnknownToneError and change nothing.
func (a *Agent) ChangeTone(key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.engine.SetTone(key)
}

// SetScene replaces the scene with free-form description text.
// Always succeeds.
func (a *Agent) SetScene(desc string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.engine.SetCustomScene(desc)
}

// SelectScene switches to a cataloged scene by key, falling back to
// the default scene for unknown keys.
func (a *Agent) SelectScene(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.engine.SetScene(key)
}

// SetPersonality switches the personality profile, falling back to
// the default profile for unknown keys.
func (a *Agent) SetPersonality(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.engine.SetProfile(key)
}

// ResetForNewVisitor hands the conversation to the next person: a
// non-empty conversation is summarized into session memory,
// short-term state clears, and the visitor count advances. The humor
// adjustment returns to zero unless CarryHumor is passed. With
// context clues the bot introduces itself to the newcomer and the
// introduction is returned; otherwise the reply is empty.
func (a *Agent) ResetForNewVisitor(ctx context.Context, contextClues string, opts ...ResetOption) (string, error) {
	var ro resetOptions
	for _, opt := range opts {
		opt(&ro)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.memory.EndVisit(a.exchangeCount)
	a.history = nil
	a.exchangeCount = 0
	if !ro.carryHumor {
		a.humorAdjustment = 0
	}

	if contextClues == "" {
		return "", nil
	}
	return a.introduceLocked(ctx, contextClues)
}

// ResetConversation hard-clears the conversation without recording
// the visit: no summary, no visitor increment.
func (a *Agent) ResetConversation() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
	a.exchangeCount = 0
}

// ExchangeCount reports completed user→assistant rounds since the
// last reset.
func (a *Agent) ExchangeCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.exchangeCount
}

// HumorAdjustment reports the sticky humor offset.
func (a *Agent) HumorAdjustment() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.humorAdjustment
}

// History returns a copy of the turns so far.
func (a *Agent) History() []Turn {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Turn(nil), a.history...)
}

// Memory exposes the shared session memory.
func (a *Agent) Memory() *SessionMemory { return a.memory }

// Profile reports the active personality profile.
func (a *Agent) Profile() persona.Profile {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.engine.Profile()
}

// Tone reports the active tone.
func (a *Agent) Tone() persona.Tone {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.engine.Tone()
}

// Scene reports the active scene.
func (a *Agent) Scene() persona.Scene {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.engine.Scene()
}
