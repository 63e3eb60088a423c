package mood

import "strings"

// Rule binds a set of trigger phrases to a tag. Matching is a plain
// case-insensitive substring check against the reply text.
type Rule struct {
	Tag     Tag
	Phrases []string
}

// DefaultRules returns the built-in rule table. Rules are evaluated in
// order and the first phrase hit wins, so the physical-form quips rank
// above praise words and praise above exploration nudges. Do not
// reorder: several phrases overlap across rules.
func DefaultRules() []Rule {
	return []Rule{
		{Tag: SelfDeprecating, Phrases: []string{"wheel", "roll", "can't walk"}},
		{Tag: Excited, Phrases: []string{"great", "awesome", "excellent", "amazing", "wonderful"}},
		{Tag: Dismissive, Phrases: []string{"explore", "check out", "go see", "go meet", "visit"}},
		{Tag: Thinking, Phrases: []string{"?"}},
		// "hi " keeps the trailing space so "this" and "high" stay out.
		{Tag: Happy, Phrases: []string{"hello", "hi ", "hey", "welcome"}},
	}
}

// Classifier assigns a Tag to reply text via an ordered rule list.
type Classifier struct {
	rules []Rule
}

// NewClassifier builds a classifier over the given rules. With no
// rules it uses the default table.
func NewClassifier(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// Classify returns the tag of the first matching rule, or Neutral when
// no rule matches.
func (c *Classifier) Classify(text string) Tag {
	lowered := strings.ToLower(text)
	for _, r := range c.rules {
		for _, p := range r.Phrases {
			if strings.Contains(lowered, p) {
				return r.Tag
			}
		}
	}
	return Neutral
}

var defaultClassifier = NewClassifier()

// Classify runs the default rule table over text.
func Classify(text string) Tag {
	return defaultClassifier.Classify(text)
}
