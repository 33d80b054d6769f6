// Package voice declares the external speech capabilities the call
// handler drives. Real backends live outside the core; both directions
// may report Unavailable, which the conversation loop treats as a turn
// timeout rather than a crash.
package voice

import (
	"context"
	"errors"
)

var ErrUnavailable = errors.New("voice capability unavailable")

type Speaker interface {
	Speak(ctx context.Context, text string) error
}

type Transcriber interface {
	// Transcribe blocks until the caller finishes an utterance or ctx
	// is done. Empty text with nil error means silence.
	Transcribe(ctx context.Context) (string, error)
}
