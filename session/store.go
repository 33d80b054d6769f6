package session

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/closedclaw/warden/authz"
)

// Store holds per-principal authentication state. All mutation of one
// principal's state is serialized by that principal's entry lock, so
// concurrent PIN attempts from two channels cannot both observe a
// pre-lockout failure count and race past the threshold.
type Store struct {
	cfg  Config
	log  *slog.Logger
	snap Persister

	mu      sync.Mutex
	entries map[string]*entry

	now func() time.Time
}

type entry struct {
	mu sync.Mutex

	sess    Session
	pinHash string // hex
	pinSalt string // hex
}

func NewStore(cfg Config, snap Persister, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{
		cfg:     cfg.withDefaults(),
		log:     log,
		snap:    snap,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
	s.restore()
	return s
}

func (s *Store) entryFor(principalID string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[principalID]
	if !ok {
		e = &entry{sess: Session{PrincipalID: principalID}}
		s.entries[principalID] = e
	}
	return e
}

// GetOrCreate returns a copy of the principal's session state.
func (s *Store) GetOrCreate(principalID string) Session {
	principalID = strings.TrimSpace(principalID)
	e := s.entryFor(principalID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess
}

// SetPIN enrolls or replaces the principal's PIN.
func (s *Store) SetPIN(principalID, pin string) error {
	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return fmt.Errorf("missing principal id")
	}
	pin = strings.TrimSpace(pin)
	if len(pin) < s.cfg.MinPINLength {
		return fmt.Errorf("pin too short: need at least %d digits", s.cfg.MinPINLength)
	}
	salt, err := newSalt()
	if err != nil {
		return err
	}

	e := s.entryFor(principalID)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pinSalt = hex.EncodeToString(salt)
	e.pinHash = hex.EncodeToString(hashPIN(pin, salt))
	s.persistLocked(e)
	return nil
}

// Verify checks the PIN. On success the session is promoted to L4 (the
// highest PIN-gated tier; the L4 delay is the engine's concern), the
// expiry window restarts and the failure counter resets. On mismatch
// the counter increments and, past the threshold, the session locks
// without consulting the stored PIN again until the window elapses.
func (s *Store) Verify(principalID, pin string) (authz.Level, error) {
	principalID = strings.TrimSpace(principalID)
	now := s.now()

	e := s.entryFor(principalID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess.Locked(now) {
		return 0, fmt.Errorf("%w until %s", ErrLocked, e.sess.LockedUntil.Format(time.RFC3339))
	}
	if e.pinHash == "" {
		return 0, ErrNoPIN
	}

	if !pinMatches(pin, e.pinSalt, e.pinHash) {
		e.sess.FailedAttempts++
		if e.sess.FailedAttempts >= s.cfg.MaxPINRetries {
			e.sess.LockedUntil = now.Add(s.cfg.LockoutDuration)
			e.sess.FailedAttempts = 0
			e.sess.VerifiedLevel = 0
			s.persistLocked(e)
			s.log.Warn("session_lockout", "principal_id", principalID, "until", e.sess.LockedUntil)
			return 0, fmt.Errorf("%w until %s", ErrLocked, e.sess.LockedUntil.Format(time.RFC3339))
		}
		s.persistLocked(e)
		return 0, ErrInvalidPIN
	}

	e.sess.VerifiedLevel = authz.LevelConfirmDelay
	e.sess.ExpiresAt = now.Add(s.cfg.Timeout)
	e.sess.FailedAttempts = 0
	e.sess.LockedUntil = time.Time{}
	s.persistLocked(e)
	return e.sess.VerifiedLevel, nil
}

// Touch extends the sliding expiry window. It never changes the
// verified level and is a no-op for invalid sessions.
func (s *Store) Touch(principalID string) {
	now := s.now()
	e := s.entryFor(strings.TrimSpace(principalID))
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.sess.Valid(now) {
		return
	}
	e.sess.ExpiresAt = now.Add(s.cfg.Timeout)
	s.persistLocked(e)
}

// IsValid reports whether the principal currently holds an unexpired
// verified session. Expiry is lazy; there is no background sweep.
func (s *Store) IsValid(principalID string) bool {
	_, ok := s.Level(principalID)
	return ok
}

// Level returns the verified level of a live session. This is the
// read the authorization engine performs on every decision.
func (s *Store) Level(principalID string) (authz.Level, bool) {
	now := s.now()
	e := s.entryFor(strings.TrimSpace(principalID))
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.sess.Valid(now) {
		return 0, false
	}
	return e.sess.VerifiedLevel, true
}

// Logout drops the verified session but keeps the enrolled PIN.
func (s *Store) Logout(principalID string) {
	e := s.entryFor(strings.TrimSpace(principalID))
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sess.VerifiedLevel = 0
	e.sess.ExpiresAt = time.Time{}
	e.sess.FailedAttempts = 0
	s.persistLocked(e)
}

func (s *Store) persistLocked(e *entry) {
	if s.snap == nil {
		return
	}
	snap := Snapshot{
		PrincipalID:    e.sess.PrincipalID,
		VerifiedLevel:  int(e.sess.VerifiedLevel),
		ExpiresAtUnix:  unixOrZero(e.sess.ExpiresAt),
		FailedAttempts: e.sess.FailedAttempts,
		LockedUntil:    unixOrZero(e.sess.LockedUntil),
		PINHash:        e.pinHash,
		PINSalt:        e.pinSalt,
	}
	if err := s.snap.Save(snap); err != nil {
		s.log.Warn("session_snapshot_error", "principal_id", e.sess.PrincipalID, "error", err.Error())
	}
}

func (s *Store) restore() {
	if s.snap == nil {
		return
	}
	snaps, err := s.snap.Load()
	if err != nil {
		s.log.Warn("session_restore_error", "error", err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sn := range snaps {
		pid := strings.TrimSpace(sn.PrincipalID)
		if pid == "" {
			continue
		}
		// A snapshot can never revive a session above what Verify
		// hands out.
		lvl := authz.Level(sn.VerifiedLevel)
		if lvl > authz.LevelConfirmDelay {
			lvl = authz.LevelConfirmDelay
		}
		s.entries[pid] = &entry{
			sess: Session{
				PrincipalID:    pid,
				VerifiedLevel:  lvl,
				ExpiresAt:      timeOrZero(sn.ExpiresAtUnix),
				FailedAttempts: sn.FailedAttempts,
				LockedUntil:    timeOrZero(sn.LockedUntil),
			},
			pinHash: sn.PINHash,
			pinSalt: sn.PINSalt,
		}
	}
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().Unix()
}

func timeOrZero(u int64) time.Time {
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0).UTC()
}
