package convo

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vargava/xr-emcee-demo/pkg/gesture"
	"github.com/vargava/xr-emcee-demo/pkg/llm"
	"github.com/vargava/xr-emcee-demo/pkg/mood"
	"github.com/vargava/xr-emcee-demo/pkg/persona"
)

// scriptClient replies from a fixed queue and records every call.
type scriptClient struct {
	replies    []string
	err        error
	directives []string
	calls      [][]llm.Message
}

func (c *scriptClient) Generate(_ context.Context, directive string, turns []llm.Message) (string, error) {
	c.directives = append(c.directives, directive)
	c.calls = append(c.calls, append([]llm.Message(nil), turns...))
	if c.err != nil {
		return "", c.err
	}
	reply := "Aye."
	if len(c.replies) > 0 {
		reply = c.replies[0]
		c.replies = c.replies[1:]
	}
	return reply, nil
}

func pirateAgent(client llm.Client) *Agent {
	return NewAgent(client, WithEngine(persona.NewEngine("pirate", "neutral", "hackathon")))
}

func TestProcessInputGreeting(t *testing.T) {
	c := &scriptClient{replies: []string{"Arr, welcome aboard, matey!"}}
	a := pirateAgent(c)

	reply, err := a.ProcessInput(context.Background(), "Hello!")
	if err != nil {
		t.Fatalf("ProcessInput() error: %v", err)
	}
	if reply != "Arr, welcome aboard, matey!" {
		t.Errorf("reply = %q, want %q", reply, "Arr, welcome aboard, matey!")
	}
	if got := a.ExchangeCount(); got != 1 {
		t.Errorf("ExchangeCount() = %d, want 1", got)
	}

	tag := mood.Classify(reply)
	if tag != mood.Happy {
		t.Errorf("Classify(%q) = %v, want %v", reply, tag, mood.Happy)
	}
	if g := gesture.ForEmotion(tag); g.Name != "wave" {
		t.Errorf("ForEmotion(%v).Name = %q, want %q", tag, g.Name, "wave")
	}

	if !strings.Contains(c.directives[0], "Captain Rusty") {
		t.Errorf("directive does not carry the personality: %q", c.directives[0])
	}
	if len(c.calls[0]) != 1 || c.calls[0][0].Role != llm.RoleUser || c.calls[0][0].Content != "Hello!" {
		t.Errorf("generation saw turns %+v, want single user turn %q", c.calls[0], "Hello!")
	}
}

func TestProcessInputHistoryGrows(t *testing.T) {
	c := &scriptClient{}
	a := pirateAgent(c)

	for i, text := range []string{"Hello!", "What's your name?", "Tell me a joke."} {
		if _, err := a.ProcessInput(context.Background(), text); err != nil {
			t.Fatalf("ProcessInput(#%d) error: %v", i+1, err)
		}
	}
	if got := a.ExchangeCount(); got != 3 {
		t.Errorf("ExchangeCount() = %d, want 3", got)
	}

	hist := a.History()
	if len(hist) != 6 {
		t.Fatalf("len(History()) = %d, want 6", len(hist))
	}
	for i, turn := range hist {
		want := llm.RoleUser
		if i%2 == 1 {
			want = llm.RoleAssistant
		}
		if turn.Role != want {
			t.Errorf("History()[%d].Role = %q, want %q", i, turn.Role, want)
		}
	}

	// Each call must receive the full ordered history.
	if got := len(c.calls[2]); got != 5 {
		t.Errorf("third call saw %d turns, want 5", got)
	}
}

func TestProcessInputGenerationFailure(t *testing.T) {
	c := &scriptClient{}
	a := pirateAgent(c)

	if _, err := a.ProcessInput(context.Background(), "Hello!"); err != nil {
		t.Fatalf("ProcessInput() error: %v", err)
	}

	boom := errors.New("rate limited")
	c.err = boom
	_, err := a.ProcessInput(context.Background(), "Still there?")
	if err == nil {
		t.Fatal("ProcessInput() with failing client: want error")
	}
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("error = %T, want *GenerationError", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("error does not wrap the backend failure: %v", err)
	}

	if got := a.ExchangeCount(); got != 1 {
		t.Errorf("ExchangeCount() after failure = %d, want 1", got)
	}
	if got := len(a.History()); got != 2 {
		t.Errorf("len(History()) after failure = %d, want 2 (failed turn rolled back)", got)
	}

	// The conversation continues once the backend recovers.
	c.err = nil
	if _, err := a.ProcessInput(context.Background(), "Still there?"); err != nil {
		t.Fatalf("ProcessInput() after recovery error: %v", err)
	}
	if got := a.ExchangeCount(); got != 2 {
		t.Errorf("ExchangeCount() after recovery = %d, want 2", got)
	}
}

func TestHumorAdjustmentSticky(t *testing.T) {
	c := &scriptClient{}
	a := pirateAgent(c) // baseline 7

	if _, err := a.ProcessInput(context.Background(), "Make me laugh!", WithHumorAdjustment(3)); err != nil {
		t.Fatalf("ProcessInput() error: %v", err)
	}
	if !strings.Contains(c.directives[0], "HUMOR LEVEL: 10/10") {
		t.Errorf("directive humor = %q, want HUMOR LEVEL: 10/10", c.directives[0])
	}

	if _, err := a.ProcessInput(context.Background(), "Another one!"); err != nil {
		t.Fatalf("ProcessInput() error: %v", err)
	}
	if !strings.Contains(c.directives[1], "HUMOR LEVEL: 10/10") {
		t.Error("humor adjustment did not stick for the next turn")
	}
	if got := a.HumorAdjustment(); got != 3 {
		t.Errorf("HumorAdjustment() = %d, want 3", got)
	}
}

func TestIntroduceSelf(t *testing.T) {
	c := &scriptClient{}
	a := pirateAgent(c)

	if _, err := a.IntroduceSelf(context.Background(), ""); err != nil {
		t.Fatalf("IntroduceSelf() error: %v", err)
	}
	hist := a.History()
	if hist[0].Text != "Introduce yourself warmly to start the conversation." {
		t.Errorf("intro turn = %q", hist[0].Text)
	}

	a.ResetConversation()
	if _, err := a.IntroduceSelf(context.Background(), "someone wearing a VR headset"); err != nil {
		t.Fatalf("IntroduceSelf() error: %v", err)
	}
	hist = a.History()
	want := " You notice: someone wearing a VR headset. Use this as a conversation starter."
	if !strings.HasSuffix(hist[0].Text, want) {
		t.Errorf("intro turn = %q, want suffix %q", hist[0].Text, want)
	}
}

func TestChangeTone(t *testing.T) {
	a := pirateAgent(&scriptClient{})

	if err := a.ChangeTone("funnier"); err != nil {
		t.Fatalf("ChangeTone(funnier) error: %v", err)
	}
	if got := a.Tone().Key; got != "funnier" {
		t.Errorf("Tone().Key = %q, want %q", got, "funnier")
	}

	err := a.ChangeTone("angry")
	var toneErr *persona.UnknownToneError
	if !errors.As(err, &toneErr) {
		t.Fatalf("ChangeTone(angry) error = %T, want *persona.UnknownToneError", err)
	}
	if got := a.Tone().Key; got != "funnier" {
		t.Errorf("Tone().Key after bad change = %q, want %q", got, "funnier")
	}
}

func TestResetForNewVisitor(t *testing.T) {
	c := &scriptClient{}
	a := pirateAgent(c)

	for _, text := range []string{"Hello!", "What do you do?"} {
		if _, err := a.ProcessInput(context.Background(), text); err != nil {
			t.Fatalf("ProcessInput() error: %v", err)
		}
	}

	reply, err := a.ResetForNewVisitor(context.Background(), "")
	if err != nil {
		t.Fatalf("ResetForNewVisitor() error: %v", err)
	}
	if reply != "" {
		t.Errorf("reply = %q, want empty without context clues", reply)
	}
	if got := len(a.History()); got != 0 {
		t.Errorf("len(History()) after reset = %d, want 0", got)
	}
	if got := a.ExchangeCount(); got != 0 {
		t.Errorf("ExchangeCount() after reset = %d, want 0", got)
	}
	if got := a.Memory().TotalVisitors(); got != 2 {
		t.Errorf("TotalVisitors() = %d, want 2", got)
	}
	sums := a.Memory().Summaries()
	if len(sums) != 1 || sums[0] != "Visitor 2: Had 2 exchanges." {
		t.Errorf("Summaries() = %v, want [Visitor 2: Had 2 exchanges.]", sums)
	}

	// Resetting an empty conversation records no summary but still
	// advances the visitor count.
	if _, err := a.ResetForNewVisitor(context.Background(), ""); err != nil {
		t.Fatalf("ResetForNewVisitor() error: %v", err)
	}
	if got := a.Memory().TotalVisitors(); got != 3 {
		t.Errorf("TotalVisitors() = %d, want 3", got)
	}
	if got := len(a.Memory().Summaries()); got != 1 {
		t.Errorf("len(Summaries()) = %d, want 1", got)
	}
}

func TestResetForNewVisitorIntroduces(t *testing.T) {
	c := &scriptClient{replies: []string{"Hi.", "Ahoy, friend with the camera!"}}
	a := pirateAgent(c)

	if _, err := a.ProcessInput(context.Background(), "Hello!"); err != nil {
		t.Fatalf("ProcessInput() error: %v", err)
	}

	reply, err := a.ResetForNewVisitor(context.Background(), "someone holding a camera")
	if err != nil {
		t.Fatalf("ResetForNewVisitor() error: %v", err)
	}
	if reply != "Ahoy, friend with the camera!" {
		t.Errorf("reply = %q, want the introduction", reply)
	}
	if got := a.ExchangeCount(); got != 1 {
		t.Errorf("ExchangeCount() = %d, want 1 (the introduction)", got)
	}

	hist := a.History()
	if len(hist) != 2 || !strings.Contains(hist[0].Text, "You notice: someone holding a camera") {
		t.Errorf("History() = %+v, want intro pair with context clues", hist)
	}
}

func TestResetHumorPolicy(t *testing.T) {
	c := &scriptClient{}
	a := pirateAgent(c)

	if _, err := a.ProcessInput(context.Background(), "Funnier!", WithHumorAdjustment(2)); err != nil {
		t.Fatalf("ProcessInput() error: %v", err)
	}
	if _, err := a.ResetForNewVisitor(context.Background(), ""); err != nil {
		t.Fatalf("ResetForNewVisitor() error: %v", err)
	}
	if got := a.HumorAdjustment(); got != 0 {
		t.Errorf("HumorAdjustment() after reset = %d, want 0", got)
	}

	if _, err := a.ProcessInput(context.Background(), "Funnier!", WithHumorAdjustment(4)); err != nil {
		t.Fatalf("ProcessInput() error: %v", err)
	}
	if _, err := a.ResetForNewVisitor(context.Background(), "", CarryHumor()); err != nil {
		t.Fatalf("ResetForNewVisitor() error: %v", err)
	}
	if got := a.HumorAdjustment(); got != 4 {
		t.Errorf("HumorAdjustment() after CarryHumor reset = %d, want 4", got)
	}
}

func TestResetConversation(t *testing.T) {
	c := &scriptClient{}
	a := pirateAgent(c)

	if _, err := a.ProcessInput(context.Background(), "Hello!"); err != nil {
		t.Fatalf("ProcessInput() error: %v", err)
	}
	a.ResetConversation()

	if got := len(a.History()); got != 0 {
		t.Errorf("len(History()) = %d, want 0", got)
	}
	if got := a.ExchangeCount(); got != 0 {
		t.Errorf("ExchangeCount() = %d, want 0", got)
	}
	if got := a.Memory().TotalVisitors(); got != 1 {
		t.Errorf("TotalVisitors() = %d, want 1 (hard clear records nothing)", got)
	}
	if got := len(a.Memory().Summaries()); got != 0 {
		t.Errorf("len(Summaries()) = %d, want 0", got)
	}
}

func TestDirectiveCarriesSessionContext(t *testing.T) {
	c := &scriptClient{}
	a := pirateAgent(c)

	if _, err := a.ProcessInput(context.Background(), "Hello!"); err != nil {
		t.Fatalf("ProcessInput() error: %v", err)
	}
	if _, err := a.ResetForNewVisitor(context.Background(), ""); err != nil {
		t.Fatalf("ResetForNewVisitor() error: %v", err)
	}
	if _, err := a.ProcessInput(context.Background(), "Hi there!"); err != nil {
		t.Fatalf("ProcessInput() error: %v", err)
	}

	last := c.directives[len(c.directives)-1]
	if !strings.Contains(last, "SESSION CONTEXT (retain for awareness):") {
		t.Errorf("directive lacks session context: %q", last)
	}
	if !strings.Contains(last, "Visitor 2: Had 1 exchanges.") {
		t.Errorf("directive lacks the visit summary: %q", last)
	}
}

func TestDirectiveWrapUpNote(t *testing.T) {
	c := &scriptClient{}
	a := pirateAgent(c)

	for i := 0; i < 4; i++ {
		if _, err := a.ProcessInput(context.Background(), "Tell me more."); err != nil {
			t.Fatalf("ProcessInput(#%d) error: %v", i+1, err)
		}
	}

	if strings.Contains(c.directives[2], "NOTE: This is exchange") {
		t.Errorf("third directive already nudges: %q", c.directives[2])
	}
	if !strings.Contains(c.directives[3], "NOTE: This is exchange #4.") {
		t.Errorf("fourth directive = %q, want the wrap-up note", c.directives[3])
	}
}
