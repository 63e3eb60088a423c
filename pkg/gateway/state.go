package gateway

import "encoding/json"

// State is the sequencing state of a visitor session.
type State int

const (
	// StateIdle means the session is waiting for the visitor.
	StateIdle State = iota

	// StateListening means visitor audio is being buffered.
	StateListening

	// StateAwaitingResponse means an utterance was handed off and the
	// reply has not come back yet.
	StateAwaitingResponse

	// StateSpeaking means a reply was delivered and the robot is
	// presumed to be playing it.
	StateSpeaking
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateListening:
		return "listening"
	case StateAwaitingResponse:
		return "awaiting_response"
	case StateSpeaking:
		return "speaking"
	default:
		return "idle"
	}
}

// AcceptsUtterance reports whether the session takes new visitor
// input in this state. While the robot is composing or playing a
// reply, input is dropped so it does not hear itself.
func (s State) AcceptsUtterance() bool {
	return s == StateIdle || s == StateListening
}

// MarshalJSON implements json.Marshaler.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}
