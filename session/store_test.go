package session

import (
	"errors"
	"testing"
	"time"

	"github.com/closedclaw/warden/authz"
)

type memPersister struct {
	snaps map[string]Snapshot
}

func newMemPersister() *memPersister {
	return &memPersister{snaps: make(map[string]Snapshot)}
}

func (m *memPersister) Save(s Snapshot) error {
	m.snaps[s.PrincipalID] = s
	return nil
}

func (m *memPersister) Load() ([]Snapshot, error) {
	out := make([]Snapshot, 0, len(m.snaps))
	for _, s := range m.snaps {
		out = append(out, s)
	}
	return out, nil
}

func newTestStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	now := base
	s := NewStore(Config{
		Timeout:         300 * time.Second,
		MaxPINRetries:   3,
		LockoutDuration: 15 * time.Minute,
	}, nil, nil)
	s.now = func() time.Time { return now }
	if err := s.SetPIN("owner", "4321"); err != nil {
		t.Fatal(err)
	}
	return s, &now
}

func TestVerifyPromotesToL4(t *testing.T) {
	s, _ := newTestStore(t)

	lv, err := s.Verify("owner", "4321")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lv != authz.LevelConfirmDelay {
		t.Fatalf("expected L4, got %s", lv)
	}
	if got, ok := s.Level("owner"); !ok || got != authz.LevelConfirmDelay {
		t.Fatalf("expected live L4 session, got %s ok=%v", got, ok)
	}
}

func TestVerifyWrongPIN(t *testing.T) {
	s, _ := newTestStore(t)

	if _, err := s.Verify("owner", "0000"); !errors.Is(err, ErrInvalidPIN) {
		t.Fatalf("expected ErrInvalidPIN, got %v", err)
	}
	if s.IsValid("owner") {
		t.Fatal("failed verify must not create a session")
	}
}

func TestLockoutAfterThreeFailures(t *testing.T) {
	s, now := newTestStore(t)

	for i := 0; i < 2; i++ {
		if _, err := s.Verify("owner", "0000"); !errors.Is(err, ErrInvalidPIN) {
			t.Fatalf("attempt %d: expected ErrInvalidPIN, got %v", i+1, err)
		}
	}
	if _, err := s.Verify("owner", "0000"); !errors.Is(err, ErrLocked) {
		t.Fatalf("third failure must lock, got %v", err)
	}

	// The correct PIN is rejected during the lockout window.
	if _, err := s.Verify("owner", "4321"); !errors.Is(err, ErrLocked) {
		t.Fatalf("correct PIN during lockout must be rejected, got %v", err)
	}

	// After the window the correct PIN works again.
	*now = now.Add(15*time.Minute + time.Second)
	if _, err := s.Verify("owner", "4321"); err != nil {
		t.Fatalf("expected success after lockout expiry, got %v", err)
	}
}

func TestSessionExpiry(t *testing.T) {
	s, now := newTestStore(t)
	if _, err := s.Verify("owner", "4321"); err != nil {
		t.Fatal(err)
	}

	*now = now.Add(300 * time.Second)
	if s.IsValid("owner") {
		t.Fatal("session must not be valid at exactly timeout")
	}
}

func TestTouchExtendsSlidingWindow(t *testing.T) {
	s, now := newTestStore(t)
	if _, err := s.Verify("owner", "4321"); err != nil {
		t.Fatal(err)
	}

	*now = now.Add(200 * time.Second)
	s.Touch("owner")
	*now = now.Add(200 * time.Second) // 400s total, but touched at 200s
	if !s.IsValid("owner") {
		t.Fatal("touch must extend the expiry window")
	}
}

func TestTouchIgnoresExpiredSession(t *testing.T) {
	s, now := newTestStore(t)
	if _, err := s.Verify("owner", "4321"); err != nil {
		t.Fatal(err)
	}

	*now = now.Add(10 * time.Minute)
	s.Touch("owner")
	if s.IsValid("owner") {
		t.Fatal("touch must not revive an expired session")
	}
}

func TestVerifyNoPIN(t *testing.T) {
	s := NewStore(Config{}, nil, nil)
	if _, err := s.Verify("stranger", "1234"); !errors.Is(err, ErrNoPIN) {
		t.Fatalf("expected ErrNoPIN, got %v", err)
	}
}

func TestSetPINTooShort(t *testing.T) {
	s := NewStore(Config{}, nil, nil)
	if err := s.SetPIN("owner", "12"); err == nil {
		t.Fatal("expected error for short pin")
	}
}

func TestLogoutKeepsPIN(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.Verify("owner", "4321"); err != nil {
		t.Fatal(err)
	}
	s.Logout("owner")
	if s.IsValid("owner") {
		t.Fatal("logout must drop the session")
	}
	if _, err := s.Verify("owner", "4321"); err != nil {
		t.Fatalf("pin must survive logout, got %v", err)
	}
}

func TestSnapshotRoundTripLockout(t *testing.T) {
	p := newMemPersister()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	now := base
	s := NewStore(Config{MaxPINRetries: 3, LockoutDuration: 15 * time.Minute}, p, nil)
	s.now = func() time.Time { return now }
	if err := s.SetPIN("owner", "4321"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		s.Verify("owner", "0000")
	}

	// Restart: a fresh store restored from the same persister.
	s2 := NewStore(Config{MaxPINRetries: 3, LockoutDuration: 15 * time.Minute}, p, nil)
	s2.now = func() time.Time { return now }
	if _, err := s2.Verify("owner", "4321"); !errors.Is(err, ErrLocked) {
		t.Fatalf("lockout must survive restart, got %v", err)
	}
}

func TestRestoreClampsVerifiedLevel(t *testing.T) {
	p := newMemPersister()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	p.snaps["owner"] = Snapshot{
		PrincipalID:   "owner",
		VerifiedLevel: 9,
		ExpiresAtUnix: base.Add(time.Hour).Unix(),
	}

	s := NewStore(Config{}, p, nil)
	s.now = func() time.Time { return base }
	lv, ok := s.Level("owner")
	if !ok {
		t.Fatal("expected restored session to be valid")
	}
	if lv != authz.LevelConfirmDelay {
		t.Fatalf("restored level must be capped at L4, got %s", lv)
	}
}
