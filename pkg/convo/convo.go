// Package convo drives one visitor conversation at a time on top of a
// generation client: ordered turn history, exchange and visitor
// counters, and cross-visitor session memory folded back into each
// directive.
package convo

import (
	"fmt"
	"time"

	"github.com/vargava/xr-emcee-demo/pkg/llm"
)

// Turn is one utterance in conversation history.
type Turn struct {
	Role llm.Role  `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// GenerationError reports a failed generation call. The turn that
// triggered it is not recorded and counters do not advance, so the
// conversation survives and the caller may simply try again.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("convo: generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

const (
	introPrompt   = "Introduce yourself warmly to start the conversation."
	introClueHint = " You notice: %s. Use this as a conversation starter."
)

// ProcessOption adjusts a single ProcessInput call.
type ProcessOption func(*processOptions)

type processOptions struct {
	humor    int
	humorSet bool
}

// WithHumorAdjustment replaces the stored humor adjustment before the
// directive is composed. The new value stays in effect for later
// turns.
func WithHumorAdjustment(n int) ProcessOption {
	return func(o *processOptions) {
		o.humor = n
		o.humorSet = true
	}
}

// ResetOption adjusts a ResetForNewVisitor call.
type ResetOption func(*resetOptions)

type resetOptions struct {
	carryHumor bool
}

// CarryHumor keeps the current humor adjustment across the visitor
// reset instead of returning it to zero.
func CarryHumor() ResetOption {
	return func(o *resetOptions) { o.carryHumor = true }
}
