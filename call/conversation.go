package call

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/closedclaw/warden/brain"
	"github.com/closedclaw/warden/voice"
)

type ConversationConfig struct {
	Model          string
	TurnTimeout    time.Duration // per STT/TTS/brain call, default 10s
	MaxDuration    time.Duration // hard cap on the whole call, default 3m
	MaxSilentTurns int           // consecutive silent turns before goodbye, default 2
	Greeting       string
}

func (c ConversationConfig) withDefaults() ConversationConfig {
	if c.TurnTimeout <= 0 {
		c.TurnTimeout = 10 * time.Second
	}
	if c.MaxDuration <= 0 {
		c.MaxDuration = 3 * time.Minute
	}
	if c.MaxSilentTurns <= 0 {
		c.MaxSilentTurns = 2
	}
	if strings.TrimSpace(c.Greeting) == "" {
		c.Greeting = "Hello, the person you are calling is unavailable right now. I'm their assistant. How can I help?"
	}
	return c
}

// Conversation drives the bounded turn-taking loop with a caller. All
// external calls carry a per-turn timeout so a stalled backend ends
// the call gracefully instead of hanging it.
type Conversation struct {
	Brain       brain.Client
	Speaker     voice.Speaker
	Transcriber voice.Transcriber
	Redactor    *brain.Redactor

	cfg ConversationConfig
	log *slog.Logger
}

func NewConversation(b brain.Client, sp voice.Speaker, tr voice.Transcriber, red *brain.Redactor, cfg ConversationConfig, log *slog.Logger) *Conversation {
	if log == nil {
		log = slog.Default()
	}
	if red == nil {
		red = brain.NewRedactor()
	}
	return &Conversation{
		Brain:       b,
		Speaker:     sp,
		Transcriber: tr,
		Redactor:    red,
		cfg:         cfg.withDefaults(),
		log:         log,
	}
}

var goodbyePhrases = []string{"goodbye", "bye", "see you", "talk later", "hang up"}

func isGoodbye(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, p := range goodbyePhrases {
		if strings.Contains(t, p) {
			return true
		}
	}
	return false
}

// Run executes the conversation until the caller says goodbye, stays
// silent too long, the max duration passes, or ctx is cancelled
// (hangup). It always returns a summary.
func (c *Conversation) Run(ctx context.Context, caller string) Summary {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.cfg.MaxDuration)
	defer cancel()

	var turns []Turn
	outcome := "completed"

	speak := func(text string) {
		turns = append(turns, Turn{Speaker: "assistant", Text: text, At: time.Now()})
		if c.Speaker == nil {
			return
		}
		sctx, scancel := context.WithTimeout(ctx, c.cfg.TurnTimeout)
		defer scancel()
		if err := c.Speaker.Speak(sctx, text); err != nil {
			c.log.Warn("call_tts_error", "error", err.Error())
		}
	}

	speak(c.cfg.Greeting)

	silent := 0
	for {
		if ctx.Err() != nil {
			outcome = "incomplete"
			break
		}

		heard, err := c.listen(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				outcome = "incomplete"
				break
			}
			// Unavailable backend or per-turn timeout both count as
			// a silent turn.
			silent++
			if silent >= c.cfg.MaxSilentTurns {
				speak("I didn't catch anything. Please call back later. Goodbye.")
				break
			}
			speak("Sorry, I didn't hear you. Could you repeat that?")
			continue
		}
		if strings.TrimSpace(heard) == "" {
			silent++
			if silent >= c.cfg.MaxSilentTurns {
				speak("It seems quiet on your end. Please call back later. Goodbye.")
				break
			}
			continue
		}
		silent = 0
		turns = append(turns, Turn{Speaker: "caller", Text: heard, At: time.Now()})

		if isGoodbye(heard) {
			speak("Goodbye, I'll pass your message along.")
			break
		}

		speak(c.respond(ctx, turns, heard))
	}

	// Every exit path summarizes.
	return Summary{
		Caller:      caller,
		StartedAt:   start,
		Duration:    time.Since(start),
		Transcript:  turns,
		ActionItems: ExtractActionItems(turns),
		Outcome:     outcome,
	}
}

func (c *Conversation) listen(ctx context.Context) (string, error) {
	if c.Transcriber == nil {
		return "", voice.ErrUnavailable
	}
	tctx, cancel := context.WithTimeout(ctx, c.cfg.TurnTimeout)
	defer cancel()
	return c.Transcriber.Transcribe(tctx)
}

// respond generates the assistant's reply for one caller utterance.
// Confidential requests are answered with a canned refusal and never
// reach the brain; everything that does reach it passes the redactor.
func (c *Conversation) respond(ctx context.Context, turns []Turn, heard string) string {
	if blocked, reply := brain.IsConfidentialRequest(heard); blocked {
		return reply
	}
	if c.Brain == nil {
		return "I'm currently unavailable. Please leave a message."
	}

	lines := make([]string, 0, len(turns))
	for _, t := range turns[:len(turns)-1] {
		lines = append(lines, t.Speaker+": "+t.Text)
	}

	gctx, cancel := context.WithTimeout(ctx, c.cfg.TurnTimeout)
	defer cancel()
	text, err := c.Brain.Generate(gctx, brain.BuildCallerRequest(c.cfg.Model, c.Redactor, lines, heard))
	if err != nil {
		c.log.Warn("call_brain_error", "error", err.Error())
		return "I can't take your call right now. Please call back later."
	}
	// Belt and braces: never speak something that looks confidential.
	if blocked, _ := brain.IsConfidentialRequest(text); blocked {
		return "I'm not sure about that. Could you please leave a message?"
	}
	return text
}
