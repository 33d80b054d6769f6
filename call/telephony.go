package call

import "context"

type EventType string

const (
	EventRing   EventType = "ring"
	EventAnswer EventType = "answer" // user answered manually
	EventHangup EventType = "hangup"
)

type Event struct {
	Type   EventType
	Caller string
}

// Telephony is the external phone stack: it reports ring/answer/hangup
// events and accepts pickup/reject commands.
type Telephony interface {
	Events() <-chan Event
	Pickup(ctx context.Context) error
	Reject(ctx context.Context) error
}
