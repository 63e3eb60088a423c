package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// recordClient captures the last Generate call and replies with a
// fixed string.
type recordClient struct {
	directive string
	turns     []Message
	reply     string
	err       error
}

func (c *recordClient) Generate(_ context.Context, directive string, turns []Message) (string, error) {
	c.directive = directive
	c.turns = turns
	return c.reply, c.err
}

func TestMuxDispatch(t *testing.T) {
	mux := NewMux()
	rec := &recordClient{reply: "ahoy"}
	mux.Handle("openai", rec)
	mux.HandleFunc("echo", func(_ context.Context, _ string, turns []Message) (string, error) {
		return turns[len(turns)-1].Content, nil
	})

	turns := []Message{
		{Role: RoleUser, Content: "Hello"},
		{Role: RoleAssistant, Content: "Hi there."},
		{Role: RoleUser, Content: "What can you do?"},
	}
	reply, err := mux.Generate(context.Background(), "openai", "be brief", turns)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if reply != "ahoy" {
		t.Errorf("reply = %q, want %q", reply, "ahoy")
	}
	if rec.directive != "be brief" {
		t.Errorf("directive = %q, want %q", rec.directive, "be brief")
	}
	if len(rec.turns) != 3 {
		t.Errorf("len(turns) = %d, want 3", len(rec.turns))
	}

	reply, err = mux.Generate(context.Background(), "echo", "", turns)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if reply != "What can you do?" {
		t.Errorf("reply = %q, want %q", reply, "What can you do?")
	}
}

func TestMuxClientNotFound(t *testing.T) {
	mux := NewMux()
	mux.Handle("gemini", &recordClient{})

	_, err := mux.Generate(context.Background(), "anthropic", "", []Message{{Role: RoleUser, Content: "hi"}})
	if err == nil {
		t.Fatal("Generate() with unregistered backend: want error")
	}
	if !strings.Contains(err.Error(), "anthropic") {
		t.Errorf("error = %q, want backend name in message", err)
	}
}

func TestMuxHandleReplaces(t *testing.T) {
	mux := NewMux()
	mux.Handle("openai", &recordClient{reply: "old"})
	mux.Handle("openai", &recordClient{reply: "new"})

	reply, err := mux.Generate(context.Background(), "openai", "", []Message{{Role: RoleUser, Content: "hi"}})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if reply != "new" {
		t.Errorf("reply = %q, want %q", reply, "new")
	}
}

func TestMuxBackends(t *testing.T) {
	mux := NewMux()
	mux.Handle("openai", &recordClient{})
	mux.Handle("gemini", &recordClient{})
	mux.Handle("local", &recordClient{})

	got := mux.Backends()
	want := []string{"gemini", "local", "openai"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Backends() = %v, want %v", got, want)
	}
}

func TestMuxPropagatesError(t *testing.T) {
	mux := NewMux()
	boom := errors.New("rate limited")
	mux.Handle("openai", &recordClient{err: boom})

	_, err := mux.Generate(context.Background(), "openai", "", []Message{{Role: RoleUser, Content: "hi"}})
	if !errors.Is(err, boom) {
		t.Errorf("Generate() error = %v, want %v", err, boom)
	}
}

func TestClientFunc(t *testing.T) {
	var gotDirective string
	f := ClientFunc(func(_ context.Context, directive string, _ []Message) (string, error) {
		gotDirective = directive
		return "ok", nil
	})

	reply, err := f.Generate(context.Background(), "stay in character", nil)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if reply != "ok" {
		t.Errorf("reply = %q, want %q", reply, "ok")
	}
	if gotDirective != "stay in character" {
		t.Errorf("directive = %q, want %q", gotDirective, "stay in character")
	}
}
