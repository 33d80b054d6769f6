package call

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/closedclaw/warden/brain"
	"github.com/closedclaw/warden/voice"
)

type recSpeaker struct {
	mu    sync.Mutex
	lines []string
}

func (s *recSpeaker) Speak(_ context.Context, text string) error {
	s.mu.Lock()
	s.lines = append(s.lines, text)
	s.mu.Unlock()
	return nil
}

func (s *recSpeaker) spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

type fakeBrain struct {
	mu    sync.Mutex
	calls int
	reply string
	err   error
}

func (b *fakeBrain) Generate(_ context.Context, _ brain.Request) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.err != nil {
		return "", b.err
	}
	return b.reply, nil
}

func (b *fakeBrain) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func testConvConfig() ConversationConfig {
	return ConversationConfig{
		Model:       "test",
		TurnTimeout: 100 * time.Millisecond,
		MaxDuration: 2 * time.Second,
	}
}

func TestConversationEndsOnGoodbye(t *testing.T) {
	b := &fakeBrain{reply: "Sure, I'll note that down."}
	sp := &recSpeaker{}
	conv := NewConversation(b, sp, voice.NewScript(
		"please tell them the meeting moved",
		"that's all, goodbye",
	), nil, testConvConfig(), nil)

	sum := conv.Run(context.Background(), "+15550100")

	if sum.Outcome != "completed" {
		t.Fatalf("expected completed, got %s", sum.Outcome)
	}
	if sum.Caller != "+15550100" {
		t.Fatalf("unexpected caller %q", sum.Caller)
	}
	if b.callCount() != 1 {
		t.Fatalf("expected 1 brain call, got %d", b.callCount())
	}
	var callerTurns int
	for _, turn := range sum.Transcript {
		if turn.Speaker == "caller" {
			callerTurns++
		}
	}
	if callerTurns != 2 {
		t.Fatalf("expected 2 caller turns, got %d", callerTurns)
	}
	spoken := sp.spoken()
	if len(spoken) == 0 || !strings.Contains(strings.ToLower(spoken[len(spoken)-1]), "goodbye") {
		t.Fatalf("expected goodbye farewell, spoke %v", spoken)
	}
}

func TestConversationEndsAfterSilentTurns(t *testing.T) {
	b := &fakeBrain{reply: "hm"}
	sp := &recSpeaker{}
	conv := NewConversation(b, sp, voice.NewScript(), nil, testConvConfig(), nil)

	sum := conv.Run(context.Background(), "caller")

	if b.callCount() != 0 {
		t.Fatal("silence must not reach the brain")
	}
	if len(sum.Transcript) == 0 {
		t.Fatal("greeting and farewell must be in the transcript")
	}
	if sum.Outcome != "completed" {
		t.Fatalf("expected completed, got %s", sum.Outcome)
	}
}

func TestConversationConfidentialNeverReachesBrain(t *testing.T) {
	b := &fakeBrain{reply: "should not be used"}
	sp := &recSpeaker{}
	conv := NewConversation(b, sp, voice.NewScript(
		"where are you right now",
		"fine, goodbye",
	), nil, testConvConfig(), nil)

	sum := conv.Run(context.Background(), "caller")

	if b.callCount() != 0 {
		t.Fatalf("confidential request reached the brain (%d calls)", b.callCount())
	}
	var refused bool
	for _, turn := range sum.Transcript {
		if turn.Speaker == "assistant" && strings.Contains(turn.Text, "cannot discuss") {
			refused = true
		}
	}
	if !refused {
		t.Fatal("expected the canned refusal in the transcript")
	}
}

func TestConversationBrainFailureFallback(t *testing.T) {
	b := &fakeBrain{err: errors.New("backend down")}
	sp := &recSpeaker{}
	conv := NewConversation(b, sp, voice.NewScript(
		"can you take a message",
		"goodbye",
	), nil, testConvConfig(), nil)

	sum := conv.Run(context.Background(), "caller")
	if sum.Outcome != "completed" {
		t.Fatalf("brain failure must not abort the call, got %s", sum.Outcome)
	}
	var fallback bool
	for _, line := range sp.spoken() {
		if strings.Contains(line, "call back later") {
			fallback = true
		}
	}
	if !fallback {
		t.Fatal("expected a fallback reply after the brain error")
	}
}

func TestConversationCancelledIsIncomplete(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conv := NewConversation(&fakeBrain{}, &recSpeaker{}, voice.NewScript("hello"), nil, testConvConfig(), nil)
	sum := conv.Run(ctx, "caller")
	if sum.Outcome != "incomplete" {
		t.Fatalf("expected incomplete on hangup, got %s", sum.Outcome)
	}
}
