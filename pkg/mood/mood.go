// Package mood classifies assistant reply text into emotion tags that
// drive gesture selection.
package mood

import (
	"encoding/json"
	"fmt"
)

// Tag labels the emotional register of a single assistant reply.
type Tag int

const (
	Neutral Tag = iota
	Happy
	Thinking
	Excited
	Dismissive
	SelfDeprecating
	Celebrating
	Rest
)

// String returns the string representation of the tag.
func (t Tag) String() string {
	switch t {
	case Happy:
		return "happy"
	case Thinking:
		return "thinking"
	case Excited:
		return "excited"
	case Dismissive:
		return "dismissive"
	case SelfDeprecating:
		return "self_deprecating"
	case Celebrating:
		return "celebrating"
	case Rest:
		return "rest"
	default:
		return "neutral"
	}
}

// ParseTag resolves a tag by name.
func ParseTag(name string) (Tag, error) {
	switch name {
	case "neutral":
		return Neutral, nil
	case "happy":
		return Happy, nil
	case "thinking":
		return Thinking, nil
	case "excited":
		return Excited, nil
	case "dismissive":
		return Dismissive, nil
	case "self_deprecating":
		return SelfDeprecating, nil
	case "celebrating":
		return Celebrating, nil
	case "rest":
		return Rest, nil
	}
	return Neutral, fmt.Errorf("mood: unknown tag %q", name)
}

// Tags lists every tag in declaration order.
func Tags() []Tag {
	return []Tag{Neutral, Happy, Thinking, Excited, Dismissive, SelfDeprecating, Celebrating, Rest}
}

// MarshalJSON implements json.Marshaler.
func (t Tag) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler. Unknown names decode as
// Neutral rather than failing.
func (t *Tag) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	tag, err := ParseTag(name)
	if err != nil {
		*t = Neutral
		return nil
	}
	*t = tag
	return nil
}
