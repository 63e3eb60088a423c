package mood

import (
	"encoding/json"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want Tag
	}{
		{"Hello! Isn't this great?", Excited},
		{"You should check out the exhibit!", Dismissive},
		{"I can't walk but I can roll!", SelfDeprecating},
		{"What do you do?", Thinking},
		{"Nice to meet you.", Neutral},
		{"Arr, welcome aboard, matey!", Happy},
		{"Hi there, good to see a new face.", Happy},
		{"This is fine.", Neutral},
		{"WONDERFUL work, everyone.", Excited},
		{"I may not have legs, but I've got wheels!", SelfDeprecating},
		{"Go see the VR demo in the corner.", Dismissive},
		{"", Neutral},
	}
	for _, tt := range tests {
		if got := Classify(tt.text); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestClassifyRuleOrder(t *testing.T) {
	tests := []struct {
		text string
		want Tag
	}{
		{"Hello! Isn't this great?", Excited},                      // praise outranks greeting and question
		{"Great, go explore the floor!", Excited},                  // praise outranks exploration
		{"I can roll over there, awesome right?", SelfDeprecating}, // physical quip outranks praise
		{"Should you go see the demos?", Dismissive},               // exploration outranks question
		{"Hello, who are you?", Thinking},                          // question outranks greeting
	}
	for _, tt := range tests {
		if got := Classify(tt.text); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestClassifierCustomRules(t *testing.T) {
	c := NewClassifier(Rule{Tag: Celebrating, Phrases: []string{"ship it"}})
	if got := c.Classify("Ship it today!"); got != Celebrating {
		t.Errorf("Classify = %v, want %v", got, Celebrating)
	}
	if got := c.Classify("hold on"); got != Neutral {
		t.Errorf("Classify = %v, want %v", got, Neutral)
	}
}

func TestParseTag(t *testing.T) {
	for _, tag := range Tags() {
		got, err := ParseTag(tag.String())
		if err != nil {
			t.Fatalf("ParseTag(%q): %v", tag.String(), err)
		}
		if got != tag {
			t.Errorf("ParseTag(%q) = %v, want %v", tag.String(), got, tag)
		}
	}
	if _, err := ParseTag("grumpy"); err == nil {
		t.Error("ParseTag(\"grumpy\") expected error")
	}
}

func TestTagJSON(t *testing.T) {
	b, err := json.Marshal(SelfDeprecating)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `"self_deprecating"` {
		t.Errorf("Marshal = %s, want %q", b, "self_deprecating")
	}

	var tag Tag
	if err := json.Unmarshal([]byte(`"excited"`), &tag); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if tag != Excited {
		t.Errorf("Unmarshal = %v, want %v", tag, Excited)
	}

	tag = Happy
	if err := json.Unmarshal([]byte(`"confused"`), &tag); err != nil {
		t.Fatalf("Unmarshal unknown: %v", err)
	}
	if tag != Neutral {
		t.Errorf("Unmarshal unknown = %v, want %v", tag, Neutral)
	}
}
