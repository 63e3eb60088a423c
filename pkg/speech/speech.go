// Package speech provides the audio collaborators for the
// conversation loop: speech-to-text and text-to-speech.
//
// Both contracts are failure-tolerant by convention: an empty
// transcript means the audio was not understood, and nil audio means
// the device's local voice should speak the reply instead. Neither
// condition is an error.
package speech

import "context"

// Transcriber converts captured audio to text.
type Transcriber interface {
	// Transcribe returns the recognized text. Empty text with a nil
	// error means the audio was not understood.
	Transcribe(ctx context.Context, audio []byte, mime string) (string, error)
}

// TranscribeFunc is a function that implements the Transcriber interface.
type TranscribeFunc func(ctx context.Context, audio []byte, mime string) (string, error)

// Transcribe implements the Transcriber interface.
func (f TranscribeFunc) Transcribe(ctx context.Context, audio []byte, mime string) (string, error) {
	return f(ctx, audio, mime)
}

// Synthesizer renders text as audio.
type Synthesizer interface {
	// Synthesize returns encoded audio for the text. Nil bytes with a
	// nil error means no audio is available and the device should use
	// its local voice.
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// SynthesizeFunc is a function that implements the Synthesizer interface.
type SynthesizeFunc func(ctx context.Context, text string) ([]byte, error)

// Synthesize implements the Synthesizer interface.
func (f SynthesizeFunc) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return f(ctx, text)
}

// Disabled is the no-op speech stack used when no audio service is
// configured. It understands nothing and produces no audio.
type Disabled struct{}

var (
	_ Transcriber = Disabled{}
	_ Synthesizer = Disabled{}
)

// Transcribe reports nothing understood.
func (Disabled) Transcribe(context.Context, []byte, string) (string, error) {
	return "", nil
}

// Synthesize reports no audio available.
func (Disabled) Synthesize(context.Context, string) ([]byte, error) {
	return nil, nil
}
