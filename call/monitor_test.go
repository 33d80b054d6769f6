package call

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/closedclaw/warden/authz"
	"github.com/closedclaw/warden/voice"
)

type fakeAuthorizer struct {
	mu    sync.Mutex
	calls int
	res   authz.Result
}

func (f *fakeAuthorizer) Authorize(_ context.Context, _ string, _ authz.Action) authz.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.res
}

func (f *fakeAuthorizer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func grantAll() *fakeAuthorizer {
	return &fakeAuthorizer{res: authz.Result{Decision: authz.DecisionGranted, RequiredLevel: authz.LevelConfirmDelay}}
}

func denyAll() *fakeAuthorizer {
	return &fakeAuthorizer{res: authz.Result{Decision: authz.DecisionNeedsAuth, RequiredLevel: authz.LevelConfirmDelay}}
}

func testConversation() *Conversation {
	// Empty script: two silent turns end the call almost immediately.
	return NewConversation(nil, &recSpeaker{}, voice.NewScript(), nil, ConversationConfig{
		TurnTimeout: 50 * time.Millisecond,
		MaxDuration: time.Second,
	}, nil)
}

func startMonitor(t *testing.T, eng Authorizer, done SummaryFunc, cfg MonitorConfig) (*Monitor, *Loopback) {
	t.Helper()
	tel := NewLoopback()
	m := NewMonitor(tel, eng, testConversation(), done, cfg, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = m.Run(ctx) }()
	return m, tel
}

func waitForState(t *testing.T, m *Monitor, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s, state is %s", want, m.State())
}

func TestMonitorAutoPickupCompletesCall(t *testing.T) {
	eng := grantAll()
	summaries := make(chan Summary, 1)
	m, tel := startMonitor(t, eng, func(_ context.Context, s Summary) { summaries <- s }, MonitorConfig{
		Owner:       "owner",
		PickupDelay: 20 * time.Millisecond,
		AutoPickup:  true,
	})

	tel.Ring("+15550100")

	select {
	case s := <-summaries:
		if s.Caller != "+15550100" {
			t.Fatalf("unexpected caller %q", s.Caller)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no summary delivered")
	}
	waitForState(t, m, StateCompleted)

	if eng.callCount() != 1 {
		t.Fatalf("pickup must be authorized exactly once, got %d", eng.callCount())
	}
	picked, rejected := tel.Counts()
	if picked != 1 || rejected != 0 {
		t.Fatalf("expected one pickup, got picked=%d rejected=%d", picked, rejected)
	}
}

func TestMonitorUserAnswerBeatsTimer(t *testing.T) {
	eng := grantAll()
	m, tel := startMonitor(t, eng, nil, MonitorConfig{
		Owner:       "owner",
		PickupDelay: 80 * time.Millisecond,
		AutoPickup:  true,
	})

	tel.Ring("+15550100")
	waitForState(t, m, StateRinging)
	tel.Answer()
	waitForState(t, m, StateUserAnswered)

	// Give the (stopped) timer a chance to misfire.
	time.Sleep(150 * time.Millisecond)
	if got := m.State(); got != StateUserAnswered {
		t.Fatalf("timer must lose the race, state is %s", got)
	}
	if eng.callCount() != 0 {
		t.Fatal("a user-answered call must not be authorized for auto pickup")
	}
	picked, _ := tel.Counts()
	if picked != 0 {
		t.Fatalf("no auto pickup expected, got %d", picked)
	}
}

func TestMonitorDeniedPickupRejects(t *testing.T) {
	eng := denyAll()
	m, tel := startMonitor(t, eng, nil, MonitorConfig{
		Owner:       "owner",
		PickupDelay: 20 * time.Millisecond,
		AutoPickup:  true,
	})

	tel.Ring("+15550100")
	waitForState(t, m, StateRejected)

	_, rejected := tel.Counts()
	if rejected != 1 {
		t.Fatalf("expected one reject, got %d", rejected)
	}
}

func TestMonitorHangupDuringRingReturnsToIdle(t *testing.T) {
	eng := grantAll()
	m, tel := startMonitor(t, eng, nil, MonitorConfig{
		Owner:       "owner",
		PickupDelay: 60 * time.Millisecond,
		AutoPickup:  true,
	})

	tel.Ring("+15550100")
	waitForState(t, m, StateRinging)
	tel.Hangup()
	waitForState(t, m, StateIdle)

	time.Sleep(120 * time.Millisecond)
	if got := m.State(); got != StateIdle {
		t.Fatalf("abandoned ring must stay idle, state is %s", got)
	}
	if eng.callCount() != 0 {
		t.Fatal("abandoned ring must not authorize a pickup")
	}
}

func TestMonitorAutoPickupDisabledTimesOutQuietly(t *testing.T) {
	eng := grantAll()
	m, tel := startMonitor(t, eng, nil, MonitorConfig{
		Owner:       "owner",
		PickupDelay: 20 * time.Millisecond,
		AutoPickup:  false,
	})

	tel.Ring("+15550100")
	waitForState(t, m, StateRinging)

	time.Sleep(80 * time.Millisecond)
	if got := m.State(); got != StateRinging {
		t.Fatalf("without auto pickup the call keeps ringing, state is %s", got)
	}
	picked, rejected := tel.Counts()
	if picked != 0 || rejected != 0 {
		t.Fatalf("no telephony commands expected, got picked=%d rejected=%d", picked, rejected)
	}
}

func TestMonitorNewRingAfterCompletion(t *testing.T) {
	eng := grantAll()
	summaries := make(chan Summary, 2)
	m, tel := startMonitor(t, eng, func(_ context.Context, s Summary) { summaries <- s }, MonitorConfig{
		Owner:       "owner",
		PickupDelay: 20 * time.Millisecond,
		AutoPickup:  true,
	})

	tel.Ring("first")
	<-summaries
	waitForState(t, m, StateCompleted)

	tel.Ring("second")
	select {
	case s := <-summaries:
		if s.Caller != "second" {
			t.Fatalf("unexpected caller %q", s.Caller)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second call never completed")
	}
}
