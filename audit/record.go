package audit

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

type Outcome string

const (
	OutcomeGranted Outcome = "granted"
	OutcomeDenied  Outcome = "denied"
	OutcomeBlocked Outcome = "blocked"
	OutcomeError   Outcome = "error"
)

// Record is a single authorization or authentication event. Records are
// append-only; nothing in the running system mutates or deletes them.
type Record struct {
	EventID       string    `json:"event_id"`
	Timestamp     time.Time `json:"ts"`
	PrincipalID   string    `json:"principal_id"`
	ActionKind    string    `json:"action_kind"`
	RequiredLevel string    `json:"required_level,omitempty"`
	Outcome       Outcome   `json:"outcome"`
	Reason        string    `json:"reason,omitempty"`
}

// Recorder is the write half of the audit log. Implementations must not
// block the caller beyond a bounded queue submission.
type Recorder interface {
	Log(rec Record)
}

// Sink persists records.
type Sink interface {
	Emit(ctx context.Context, rec Record) error
	Close() error
}

func NewEventID(ts time.Time) string {
	return "evt_" + ulid.MustNew(ulid.Timestamp(ts.UTC()), rand.Reader).String()
}
