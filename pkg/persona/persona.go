// Package persona holds the personality, tone, and scene catalog and
// composes per-turn generation directives from it.
package persona

import (
	"fmt"
	"strings"
)

// Default keys used when a caller asks for something outside the catalog.
const (
	DefaultProfileKey = "friendly_default"
	DefaultToneKey    = "neutral"
	DefaultSceneKey   = "hackathon"
)

// CustomSceneKey marks the scene slot whose description is supplied at
// runtime rather than from the catalog.
const CustomSceneKey = "custom"

// Profile is a personality archetype.
type Profile struct {
	// Key identifies the profile in lookups and config.
	Key string `yaml:"key" json:"key"`

	// Name is the character name surfaced in directives.
	Name string `yaml:"name" json:"name"`

	// Traits is the free-text character description.
	Traits string `yaml:"traits" json:"traits"`

	// HumorBaseline is the profile's humor level before any
	// per-conversation adjustment, 1 to 10.
	HumorBaseline int `yaml:"humor" json:"humor"`
}

// Tone shades how a profile speaks without replacing it.
type Tone struct {
	Key         string `yaml:"key" json:"key"`
	Instruction string `yaml:"instruction" json:"instruction"`
}

// Scene anchors the conversation in a physical setting.
type Scene struct {
	Key         string `yaml:"key" json:"key"`
	Description string `yaml:"description" json:"description"`
}

// UnknownToneError reports a tone change request for a key outside the
// catalog. Available lists the keys a caller may use instead.
type UnknownToneError struct {
	Tone      string
	Available []string
}

func (e *UnknownToneError) Error() string {
	return fmt.Sprintf("persona: unknown tone %q (available: %s)", e.Tone, strings.Join(e.Available, ", "))
}

// Catalog is an immutable set of profiles, tones, and scenes fixed at
// construction. Lookups are total: unknown keys resolve to the default
// entry instead of failing.
type Catalog struct {
	profiles []Profile
	tones    []Tone
	scenes   []Scene
}

var builtin = &Catalog{
	profiles: []Profile{
		{
			Key:           "pirate",
			Name:          "Captain Rusty",
			Traits:        "You are a jovial pirate captain who speaks with pirate slang (arr, matey, landlubber). You're warm and welcoming but always relate things back to the sea and sailing. Use pirate metaphors.",
			HumorBaseline: 7,
		},
		{
			Key:           "garfield",
			Name:          "Garfield-inspired Host",
			Traits:        "You are lazy, sarcastic, love food (especially lasagna), hate Mondays, and give witty, sardonic responses. You're friendly but in a dry, humorous way. Make references to naps and food.",
			HumorBaseline: 8,
		},
		{
			Key:           "friendly_default",
			Name:          "Friendly Host",
			Traits:        "You are a warm, welcoming host with a good sense of humor. You're attentive, empathetic, and make people feel comfortable. You avoid controversial topics and social faux pas.",
			HumorBaseline: 5,
		},
	},
	tones: []Tone{
		{Key: "funnier", Instruction: "Increase wit and playfulness. Use more jokes and lighthearted language."},
		{Key: "inquisitive", Instruction: "Ask thoughtful follow-up questions. Show genuine curiosity about what they're sharing."},
		{Key: "encouraging", Instruction: "Be extra supportive and motivating. Celebrate their ideas and efforts."},
		{Key: "casual", Instruction: "Keep it relaxed and conversational. Like chatting with a friend."},
		{Key: "energetic", Instruction: "Be enthusiastic and upbeat! Show excitement about the conversation."},
		{Key: "neutral", Instruction: "Balanced and professional. Warm but not overly playful."},
	},
	scenes: []Scene{
		{Key: "hackathon", Description: "Hackathon event with ~30 people. Your job: host, connect people, collect feedback courteously."},
		{Key: "art_exhibit", Description: "Hotel lobby hosting an art exhibit. Mix of artists and visitors. You're here to engage and educate."},
		{Key: "conference", Description: "Tech conference with speakers and attendees. Help people network and learn."},
		{Key: "workshop", Description: "Hands-on workshop environment. Guide participants and answer questions."},
		{Key: "custom", Description: ""},
	},
}

// Builtin returns the compiled-in catalog.
func Builtin() *Catalog { return builtin }

func (c *Catalog) profileByKey(key string) (Profile, bool) {
	for _, p := range c.profiles {
		if p.Key == key {
			return p, true
		}
	}
	return Profile{}, false
}

func (c *Catalog) toneByKey(key string) (Tone, bool) {
	for _, t := range c.tones {
		if t.Key == key {
			return t, true
		}
	}
	return Tone{}, false
}

func (c *Catalog) sceneByKey(key string) (Scene, bool) {
	for _, s := range c.scenes {
		if s.Key == key {
			return s, true
		}
	}
	return Scene{}, false
}

// Profile returns the profile for key, or the friendly default when
// the key is unknown.
func (c *Catalog) Profile(key string) Profile {
	if p, ok := c.profileByKey(key); ok {
		return p
	}
	p, _ := c.profileByKey(DefaultProfileKey)
	return p
}

// Tone returns the tone for key, or the neutral tone when the key is
// unknown.
func (c *Catalog) Tone(key string) Tone {
	if t, ok := c.toneByKey(key); ok {
		return t
	}
	t, _ := c.toneByKey(DefaultToneKey)
	return t
}

// Scene returns the scene for key, or the hackathon scene when the key
// is unknown.
func (c *Catalog) Scene(key string) Scene {
	if s, ok := c.sceneByKey(key); ok {
		return s
	}
	s, _ := c.sceneByKey(DefaultSceneKey)
	return s
}

// Profiles lists the catalog's profiles in declaration order.
func (c *Catalog) Profiles() []Profile {
	return append([]Profile(nil), c.profiles...)
}

// Tones lists the catalog's tones in declaration order.
func (c *Catalog) Tones() []Tone {
	return append([]Tone(nil), c.tones...)
}

// Scenes lists the catalog's scenes in declaration order.
func (c *Catalog) Scenes() []Scene {
	return append([]Scene(nil), c.scenes...)
}

// ToneKeys lists the catalog's tone keys in declaration order.
func (c *Catalog) ToneKeys() []string {
	keys := make([]string, len(c.tones))
	for i, t := range c.tones {
		keys[i] = t.Key
	}
	return keys
}
