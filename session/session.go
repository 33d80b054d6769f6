package session

import (
	"errors"
	"time"

	"github.com/closedclaw/warden/authz"
)

var (
	// ErrInvalidPIN is recoverable: the user may re-enter the PIN
	// until the retry threshold locks the session.
	ErrInvalidPIN = errors.New("invalid pin")
	// ErrLocked is returned while a lockout window is active. The
	// stored PIN is not consulted at all in this state.
	ErrLocked = errors.New("session locked")
	// ErrNoPIN means no PIN has been enrolled for the principal.
	ErrNoPIN = errors.New("no pin set")
)

// Session is per-principal authentication state. An expired session is
// equivalent to no session.
type Session struct {
	PrincipalID    string
	VerifiedLevel  authz.Level
	ExpiresAt      time.Time
	FailedAttempts int
	LockedUntil    time.Time
}

func (s Session) Locked(now time.Time) bool {
	return !s.LockedUntil.IsZero() && now.Before(s.LockedUntil)
}

func (s Session) Valid(now time.Time) bool {
	return s.VerifiedLevel > 0 && now.Before(s.ExpiresAt)
}

type Config struct {
	Timeout         time.Duration // sliding window, default 5m
	MaxPINRetries   int           // default 3
	LockoutDuration time.Duration // default 15m
	MinPINLength    int           // default 4
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Minute
	}
	if c.MaxPINRetries <= 0 {
		c.MaxPINRetries = 3
	}
	if c.LockoutDuration <= 0 {
		c.LockoutDuration = 15 * time.Minute
	}
	if c.MinPINLength <= 0 {
		c.MinPINLength = 4
	}
	return c
}
