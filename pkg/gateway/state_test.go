package gateway

import (
	"encoding/json"
	"testing"
)

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateListening, "listening"},
		{StateAwaitingResponse, "awaiting_response"},
		{StateSpeaking, "speaking"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", int(tt.state), got, tt.want)
		}
	}
}

func TestStateAcceptsUtterance(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{StateIdle, true},
		{StateListening, true},
		{StateAwaitingResponse, false},
		{StateSpeaking, false},
	}
	for _, tt := range tests {
		if got := tt.state.AcceptsUtterance(); got != tt.want {
			t.Errorf("%v.AcceptsUtterance() = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestStateMarshalJSON(t *testing.T) {
	data, err := json.Marshal(StateUpdate{State: StateAwaitingResponse})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if got, want := string(data), `{"state":"awaiting_response"}`; got != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}
}
