package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/closedclaw/warden/call"
	"github.com/closedclaw/warden/internal/strutil"
)

// maxMessageBytes matches the Telegram hard limit.
const maxMessageBytes = 4096

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityUrgent Priority = "urgent"
)

type QuietHours struct {
	Start string // "22:00", empty disables
	End   string // "07:00"
}

// Notifier formats and delivers outbound notifications. Non-urgent
// messages sent during quiet hours are held and flushed afterwards;
// urgent ones always go through.
type Notifier struct {
	transport Transport
	quiet     QuietHours
	log       *slog.Logger

	mu   sync.Mutex
	held []heldMessage

	now func() time.Time
}

type heldMessage struct {
	principalID string
	text        string
}

func NewNotifier(t Transport, quiet QuietHours, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{
		transport: t,
		quiet:     quiet,
		log:       log,
		now:       time.Now,
	}
}

func (n *Notifier) Notify(ctx context.Context, principalID, text string, prio Priority) error {
	if n == nil || n.transport == nil {
		return nil
	}
	text = strutil.TruncateUTF8(text, maxMessageBytes)
	if prio != PriorityUrgent && n.inQuietHours() {
		n.mu.Lock()
		n.held = append(n.held, heldMessage{principalID: principalID, text: text})
		n.mu.Unlock()
		return nil
	}
	if err := n.flush(ctx); err != nil {
		n.log.Warn("notify_flush_error", "error", err.Error())
	}
	return n.transport.Send(ctx, principalID, text)
}

// Flush delivers held messages once quiet hours end. The daemon calls
// this on a ticker.
func (n *Notifier) Flush(ctx context.Context) error {
	if n == nil || n.inQuietHours() {
		return nil
	}
	return n.flush(ctx)
}

func (n *Notifier) flush(ctx context.Context) error {
	n.mu.Lock()
	held := n.held
	n.held = nil
	n.mu.Unlock()

	var first error
	for _, m := range held {
		if err := n.transport.Send(ctx, m.principalID, m.text); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (n *Notifier) inQuietHours() bool {
	start := parseClock(n.quiet.Start)
	end := parseClock(n.quiet.End)
	if start < 0 || end < 0 || start == end {
		return false
	}
	now := n.now()
	cur := now.Hour()*60 + now.Minute()
	if start < end {
		return cur >= start && cur < end
	}
	// Window crosses midnight.
	return cur >= start || cur < end
}

func parseClock(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return -1
	}
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return -1
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return -1
	}
	return h*60 + m
}

// FormatCallSummary renders a finished call for the user.
func FormatCallSummary(s call.Summary) string {
	var b strings.Builder
	b.WriteString("📞 Call handled\n")
	fmt.Fprintf(&b, "Caller: %s\n", orUnknown(s.Caller))
	fmt.Fprintf(&b, "Duration: %s\n", s.Duration.Round(time.Second))
	if len(s.ActionItems) > 0 {
		b.WriteString("Action items:\n")
		for _, it := range s.ActionItems {
			fmt.Fprintf(&b, "  - %s\n", it)
		}
	}
	if s.Outcome != "" && s.Outcome != "completed" {
		fmt.Fprintf(&b, "Outcome: %s\n", s.Outcome)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatConfirmationRequest renders a pending confirmation prompt.
func FormatConfirmationRequest(p Pending) string {
	return fmt.Sprintf(
		"⚠️ Confirmation needed for %q.\nReply: confirm %s (or deny %s). Expires %s.",
		p.Action.Kind, p.Token, p.Token, p.ExpiresAt.Format("15:04:05"),
	)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
