package voice

import (
	"context"
	"log/slog"
	"sync"
)

// LogSpeaker writes spoken lines to the log. Stands in for a TTS
// backend in development and in the call simulator.
type LogSpeaker struct {
	Log *slog.Logger
}

func (s *LogSpeaker) Speak(ctx context.Context, text string) error {
	_ = ctx
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	log.Info("speak", "text", text)
	return nil
}

// Script replays a fixed sequence of caller utterances, then reports
// silence. Used by the call simulator and tests.
type Script struct {
	mu    sync.Mutex
	lines []string
	idx   int
}

func NewScript(lines ...string) *Script {
	return &Script{lines: lines}
}

func (s *Script) Transcribe(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idx >= len(s.lines) {
		return "", nil
	}
	line := s.lines[s.idx]
	s.idx++
	return line, nil
}
