package call

import "sync/atomic"

// State is the call-handling state machine. Transitions go through
// compare-and-swap only; the answer-vs-ring-timer race is resolved by
// whichever CAS out of Ringing wins, the loser being a no-op.
type State int32

const (
	StateIdle State = iota
	StateRinging
	StateUserAnswered
	StateAutoPickupPending
	StateInConversation
	StateSummarizing
	StateCompleted
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRinging:
		return "ringing"
	case StateUserAnswered:
		return "user_answered"
	case StateAutoPickupPending:
		return "auto_pickup_pending"
	case StateInConversation:
		return "in_conversation"
	case StateSummarizing:
		return "summarizing"
	case StateCompleted:
		return "completed"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

type stateVar struct {
	v atomic.Int32
}

func (s *stateVar) Load() State { return State(s.v.Load()) }

func (s *stateVar) Store(st State) { s.v.Store(int32(st)) }

func (s *stateVar) CompareAndSwap(from, to State) bool {
	return s.v.CompareAndSwap(int32(from), int32(to))
}
