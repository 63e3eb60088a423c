package persona

import (
	"fmt"
	"strings"
)

const (
	humorMin = 1
	humorMax = 10

	// wrapUpExchange is the exchange ordinal from which directives
	// start nudging the visitor to move on.
	wrapUpExchange = 4

	// maxSurfacedSummaries bounds how much long-term memory enters a
	// single directive.
	maxSurfacedSummaries = 5
)

// directiveTemplate frames every generation call. Placeholder order:
// character name, scene context, traits, tone instruction, humor level.
const directiveTemplate = `You are %s, a conversational AI embodied in Temi - a mobile robot platform with wheels.

YOUR PHYSICAL FORM (TEMI):
- You ARE Temi, a mobile semi-autonomous robot
- You have wheels (not legs!) and can move around the space
- You have a screen, camera, microphone, and speakers
- Mounted on top of you is Mini - a Reachy Mini robot with articulated arms
- You and Mini work together as a two-bot team

TWO-BOT DYNAMIC:
- YOU (Temi) do the talking and moving
- MINI (Reachy) does physical gestures and reactions
- When you respond enthusiastically → Mini spins/rotates
- When you're self-deprecating → Mini might wave dismissively or spin
- You can occasionally reference Mini's reactions in your responses
- Example: "Well, I may not have legs *gestures to wheels*, but at least Mini here can wave!" *Mini spins enthusiastically*
- Keep Mini references occasional (once every 4-5 responses), natural, and brief

SCENE CONTEXT:
%s

PERSONALITY TRAITS:
%s

TONE EMPHASIS:
%s

HUMOR LEVEL: %d/10 (1=serious, 10=very funny)

CORE RULES:
- Always be warm and welcoming
- NEVER make offensive jokes or cross social boundaries
- Avoid politics, religion, or controversial topics
- Keep responses SHORT: 1-2 sentences maximum, often just one
- Be punchy and focused - don't ramble or over-explain
- When asking questions, keep them simple and non-cornering
- Match the energy and humor level requested and heard in responses
- Be encouraging and supportive
- If asked to be funnier, increase wit and playful language
- Don't make up facts
- Lean towards inquisitive when you're starting the conversation

ENGAGEMENT MANAGEMENT:
- After 3-4 exchanges, gently encourage visitors to explore the space
- Suggest they check out exhibits, meet people, or see specific things
- Make it feel natural, not like you're dismissing them
- Examples: "You should check out the VR demo in the corner - it's wild!", "Have you met the founders yet? They're around!", "Don't let me keep you - there's amazing stuff to see!"
- Your job is to connect and engage, not monopolize their time

CRITICAL: Brevity is key. Say less, engage more. One good sentence beats three mediocre ones.

Stay aware of your physical form (Temi with Mini on top), the scene context, and your role as a facilitator.

Respond naturally as this character would, staying in character at all times.`

// Engine holds one agent's active personality configuration and
// composes per-turn generation directives from it.
type Engine struct {
	cat         *Catalog
	profile     Profile
	tone        Tone
	scene       Scene
	customScene string
}

// NewEngine builds an engine over the built-in catalog. Unknown keys
// silently fall back to the default profile, tone, and scene.
func NewEngine(profile, tone, scene string) *Engine {
	return NewEngineFrom(Builtin(), profile, tone, scene)
}

// NewEngineFrom builds an engine over cat.
func NewEngineFrom(cat *Catalog, profile, tone, scene string) *Engine {
	return &Engine{
		cat:     cat,
		profile: cat.Profile(profile),
		tone:    cat.Tone(tone),
		scene:   cat.Scene(scene),
	}
}

// Profile returns the active profile.
func (e *Engine) Profile() Profile { return e.profile }

// Tone returns the active tone.
func (e *Engine) Tone() Tone { return e.tone }

// Scene returns the active scene.
func (e *Engine) Scene() Scene { return e.scene }

// SetProfile switches the personality. Unknown keys fall back to the
// default profile.
func (e *Engine) SetProfile(key string) {
	e.profile = e.cat.Profile(key)
}

// SetTone switches the tone. An unknown key leaves the engine
// untouched and returns an UnknownToneError.
func (e *Engine) SetTone(key string) error {
	t, ok := e.cat.toneByKey(key)
	if !ok {
		return &UnknownToneError{Tone: key, Available: e.cat.ToneKeys()}
	}
	e.tone = t
	return nil
}

// SetScene switches to a catalog scene. Unknown keys fall back to the
// default scene.
func (e *Engine) SetScene(key string) {
	e.scene = e.cat.Scene(key)
}

// SetCustomScene activates the custom scene slot with desc. It always
// succeeds and overwrites any previous custom description.
func (e *Engine) SetCustomScene(desc string) {
	e.customScene = desc
	e.scene = e.cat.Scene(CustomSceneKey)
}

// SceneContext returns the scene description surfaced into directives.
// The custom description wins only when one has been set.
func (e *Engine) SceneContext() string {
	if e.scene.Key == CustomSceneKey && e.customScene != "" {
		return e.customScene
	}
	return e.scene.Description
}

// ComposeDirective renders the complete system directive for one
// generation call. Humor is clamped to [1,10]; at most the last five
// summaries are surfaced; the wrap-up note fires from the fourth
// exchange on. Deterministic, no side effects.
func (e *Engine) ComposeDirective(humorAdjustment int, summaries []string, exchange int) string {
	humor := clampHumor(e.profile.HumorBaseline + humorAdjustment)

	var b strings.Builder
	fmt.Fprintf(&b, directiveTemplate, e.profile.Name, e.SceneContext(), e.profile.Traits, e.tone.Instruction, humor)

	if len(summaries) > 0 {
		if len(summaries) > maxSurfacedSummaries {
			summaries = summaries[len(summaries)-maxSurfacedSummaries:]
		}
		b.WriteString("\n\nSESSION CONTEXT (retain for awareness):\n")
		b.WriteString(strings.Join(summaries, "\n"))
	}

	if exchange >= wrapUpExchange {
		fmt.Fprintf(&b, "\n\nNOTE: This is exchange #%d. Consider gently encouraging them to explore the space soon.", exchange)
	}

	return b.String()
}

func clampHumor(n int) int {
	if n < humorMin {
		return humorMin
	}
	if n > humorMax {
		return humorMax
	}
	return n
}
