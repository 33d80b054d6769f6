package call

import (
	"context"
	"sync"
)

// Loopback is an in-process telephony backend. The daemon drives it
// from the HTTP surface and the simulator; a real phone stack replaces
// it behind the same interface.
type Loopback struct {
	events chan Event

	mu       sync.Mutex
	picked   int
	rejected int
}

func NewLoopback() *Loopback {
	return &Loopback{events: make(chan Event, 8)}
}

func (l *Loopback) Events() <-chan Event { return l.events }

func (l *Loopback) Pickup(ctx context.Context) error {
	_ = ctx
	l.mu.Lock()
	l.picked++
	l.mu.Unlock()
	return nil
}

func (l *Loopback) Reject(ctx context.Context) error {
	_ = ctx
	l.mu.Lock()
	l.rejected++
	l.mu.Unlock()
	return nil
}

// Ring injects an incoming call.
func (l *Loopback) Ring(caller string) {
	l.events <- Event{Type: EventRing, Caller: caller}
}

// Answer injects a manual answer by the user.
func (l *Loopback) Answer() {
	l.events <- Event{Type: EventAnswer}
}

// Hangup injects a caller hangup.
func (l *Loopback) Hangup() {
	l.events <- Event{Type: EventHangup}
}

// Counts reports how many pickup and reject commands were issued.
func (l *Loopback) Counts() (picked, rejected int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.picked, l.rejected
}
