package call

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/closedclaw/warden/authz"
)

// Authorizer is the slice of the authorization engine the monitor
// needs. Auto-pickup is an L4 action the owner pre-approved during
// setup; it still goes through Authorize so the blocklist and the
// audit trail apply.
type Authorizer interface {
	Authorize(ctx context.Context, principalID string, action authz.Action) authz.Result
}

// SummaryFunc receives the finished call summary (persist, notify).
type SummaryFunc func(ctx context.Context, s Summary)

type MonitorConfig struct {
	Owner       string
	PickupDelay time.Duration // ring time before auto pickup, default 20s
	AutoPickup  bool          // owner opt-in from setup
}

func (c MonitorConfig) withDefaults() MonitorConfig {
	if c.PickupDelay <= 0 {
		c.PickupDelay = 20 * time.Second
	}
	return c
}

// Monitor owns CallState. It watches telephony events, runs the
// cancellable auto-pickup timer and, on expiry, takes over the call
// through the authorization engine.
type Monitor struct {
	tel  Telephony
	eng  Authorizer
	conv *Conversation
	done SummaryFunc
	cfg  MonitorConfig
	log  *slog.Logger

	state stateVar

	mu        sync.Mutex
	ringTimer *time.Timer
	caller    string
	ringStart time.Time
	hangup    context.CancelFunc
}

func NewMonitor(tel Telephony, eng Authorizer, conv *Conversation, done SummaryFunc, cfg MonitorConfig, log *slog.Logger) *Monitor {
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{
		tel:  tel,
		eng:  eng,
		conv: conv,
		done: done,
		cfg:  cfg.withDefaults(),
		log:  log,
	}
}

// State returns the current call state.
func (m *Monitor) State() State { return m.state.Load() }

// Run consumes telephony events until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	if m.tel == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	for {
		select {
		case <-ctx.Done():
			m.stopRingTimer()
			return ctx.Err()
		case ev, ok := <-m.tel.Events():
			if !ok {
				return nil
			}
			m.handle(ctx, ev)
		}
	}
}

func (m *Monitor) handle(ctx context.Context, ev Event) {
	switch ev.Type {
	case EventRing:
		m.onRing(ctx, ev.Caller)
	case EventAnswer:
		m.onAnswer()
	case EventHangup:
		m.onHangup()
	}
}

func (m *Monitor) onRing(ctx context.Context, caller string) {
	// A new ring resets a finished machine back through Idle.
	st := m.state.Load()
	if st == StateCompleted || st == StateRejected || st == StateUserAnswered {
		m.state.CompareAndSwap(st, StateIdle)
	}
	if !m.state.CompareAndSwap(StateIdle, StateRinging) {
		return
	}

	m.mu.Lock()
	m.caller = caller
	m.ringStart = time.Now()
	if m.cfg.AutoPickup {
		m.ringTimer = time.AfterFunc(m.cfg.PickupDelay, func() { m.onRingTimeout(ctx) })
	}
	m.mu.Unlock()

	m.log.Info("call_ringing", "caller", caller, "pickup_delay", m.cfg.PickupDelay)
}

// onAnswer and onRingTimeout race to transition out of Ringing. The
// CAS guarantees exactly one of them wins; the loser is a no-op.
func (m *Monitor) onAnswer() {
	if !m.state.CompareAndSwap(StateRinging, StateUserAnswered) {
		return
	}
	m.stopRingTimer()
	m.log.Info("call_user_answered")
	// Terminal for this component; external telephony takes over.
}

func (m *Monitor) onRingTimeout(ctx context.Context) {
	if !m.state.CompareAndSwap(StateRinging, StateAutoPickupPending) {
		return
	}
	autoPickupsTotal.Inc()

	m.mu.Lock()
	caller := m.caller
	m.mu.Unlock()

	res := m.eng.Authorize(ctx, m.cfg.Owner, authz.Action{
		Kind:        "call_pickup",
		Payload:     map[string]any{"caller": caller},
		RequestedAt: time.Now(),
		PreApproved: m.cfg.AutoPickup,
	})
	if !res.Granted() {
		m.state.CompareAndSwap(StateAutoPickupPending, StateRejected)
		pickupsRejectedTotal.Inc()
		m.log.Warn("call_pickup_denied", "decision", string(res.Decision), "reason", res.Reason)
		if err := m.tel.Reject(ctx); err != nil {
			m.log.Warn("call_reject_error", "error", err.Error())
		}
		return
	}

	if err := m.tel.Pickup(ctx); err != nil {
		m.state.CompareAndSwap(StateAutoPickupPending, StateRejected)
		m.log.Warn("call_pickup_error", "error", err.Error())
		return
	}
	if !m.state.CompareAndSwap(StateAutoPickupPending, StateInConversation) {
		return
	}

	convCtx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.hangup = cancel
	m.mu.Unlock()

	go m.runConversation(convCtx, caller)
}

func (m *Monitor) runConversation(ctx context.Context, caller string) {
	summary := m.conv.Run(ctx, caller)

	if !m.state.CompareAndSwap(StateInConversation, StateSummarizing) {
		return
	}
	m.log.Info("call_summarizing",
		"caller", caller,
		"turns", len(summary.Transcript),
		"duration", summary.Duration,
	)
	if m.done != nil {
		// Use a fresh context: hangup cancellation must not lose the
		// summary.
		m.done(context.WithoutCancel(ctx), summary)
	}
	m.state.CompareAndSwap(StateSummarizing, StateCompleted)
}

func (m *Monitor) onHangup() {
	m.mu.Lock()
	cancel := m.hangup
	m.hangup = nil
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	m.stopRingTimer()
	// Ring abandoned before pickup goes back to Idle.
	m.state.CompareAndSwap(StateRinging, StateIdle)
}

func (m *Monitor) stopRingTimer() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ringTimer != nil {
		m.ringTimer.Stop()
		m.ringTimer = nil
	}
}
