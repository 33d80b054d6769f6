package dispatch

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/closedclaw/warden/call"
)

type recTransport struct {
	mu   sync.Mutex
	sent []string
}

func (t *recTransport) Send(_ context.Context, _ string, text string) error {
	t.mu.Lock()
	t.sent = append(t.sent, text)
	t.mu.Unlock()
	return nil
}

func (t *recTransport) all() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.sent...)
}

func atClock(h, m int) func() time.Time {
	return func() time.Time {
		return time.Date(2025, 6, 1, h, m, 0, 0, time.UTC)
	}
}

func TestNotifyOutsideQuietHours(t *testing.T) {
	tr := &recTransport{}
	n := NewNotifier(tr, QuietHours{Start: "22:00", End: "07:00"}, nil)
	n.now = atClock(12, 0)

	if err := n.Notify(context.Background(), "owner", "hello", PriorityNormal); err != nil {
		t.Fatal(err)
	}
	if got := tr.all(); len(got) != 1 || got[0] != "hello" {
		t.Fatalf("expected immediate delivery, got %v", got)
	}
}

func TestNotifyHeldDuringQuietHours(t *testing.T) {
	tr := &recTransport{}
	n := NewNotifier(tr, QuietHours{Start: "22:00", End: "07:00"}, nil)
	n.now = atClock(23, 30)

	if err := n.Notify(context.Background(), "owner", "can wait", PriorityNormal); err != nil {
		t.Fatal(err)
	}
	if len(tr.all()) != 0 {
		t.Fatal("non-urgent message must be held during quiet hours")
	}

	// Quiet hours end; the ticker flush delivers it.
	n.now = atClock(7, 1)
	if err := n.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := tr.all(); len(got) != 1 || got[0] != "can wait" {
		t.Fatalf("expected held message after flush, got %v", got)
	}
}

func TestNotifyUrgentBypassesQuietHours(t *testing.T) {
	tr := &recTransport{}
	n := NewNotifier(tr, QuietHours{Start: "22:00", End: "07:00"}, nil)
	n.now = atClock(2, 0)

	if err := n.Notify(context.Background(), "owner", "server down", PriorityUrgent); err != nil {
		t.Fatal(err)
	}
	if got := tr.all(); len(got) != 1 {
		t.Fatalf("urgent message must go through, got %v", got)
	}
}

func TestNotifyFlushDuringQuietHoursHolds(t *testing.T) {
	tr := &recTransport{}
	n := NewNotifier(tr, QuietHours{Start: "22:00", End: "07:00"}, nil)
	n.now = atClock(23, 0)

	n.Notify(context.Background(), "owner", "later", PriorityLow)
	if err := n.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(tr.all()) != 0 {
		t.Fatal("flush inside quiet hours must keep holding")
	}
}

func TestNotifyTruncatesLongText(t *testing.T) {
	tr := &recTransport{}
	n := NewNotifier(tr, QuietHours{}, nil)

	long := strings.Repeat("x", maxMessageBytes+500)
	if err := n.Notify(context.Background(), "owner", long, PriorityNormal); err != nil {
		t.Fatal(err)
	}
	got := tr.all()
	if len(got) != 1 || len(got[0]) > maxMessageBytes {
		t.Fatalf("expected truncation to %d bytes, got %d", maxMessageBytes, len(got[0]))
	}
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"22:00", 22 * 60},
		{"07:30", 7*60 + 30},
		{"0:05", 5},
		{"", -1},
		{"25:00", -1},
		{"12:61", -1},
		{"noon", -1},
	}
	for _, c := range cases {
		if got := parseClock(c.in); got != c.want {
			t.Fatalf("parseClock(%q) = %d, expected %d", c.in, got, c.want)
		}
	}
}

func TestFormatCallSummary(t *testing.T) {
	s := call.Summary{
		Caller:      "+15550100",
		Duration:    92 * time.Second,
		ActionItems: []string{"Call back"},
	}
	got := FormatCallSummary(s)
	for _, want := range []string{"+15550100", "1m32s", "Call back"} {
		if !strings.Contains(got, want) {
			t.Fatalf("summary missing %q:\n%s", want, got)
		}
	}

	anon := FormatCallSummary(call.Summary{Outcome: "incomplete"})
	if !strings.Contains(anon, "unknown") || !strings.Contains(anon, "incomplete") {
		t.Fatalf("unexpected summary:\n%s", anon)
	}
}
