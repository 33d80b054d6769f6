package session

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/glebarez/go-sqlite"
)

// Snapshot is the restart-durable image of one principal's state.
type Snapshot struct {
	PrincipalID    string
	VerifiedLevel  int
	ExpiresAtUnix  int64
	FailedAttempts int
	LockedUntil    int64
	PINHash        string
	PINSalt        string
}

type Persister interface {
	Save(snap Snapshot) error
	Load() ([]Snapshot, error)
}

// SQLitePersister stores session snapshots and PIN hashes in the
// assistant database so lockouts and enrolled PINs survive restarts.
type SQLitePersister struct {
	dsn string

	mu sync.Mutex
	db *sql.DB
}

func NewSQLitePersister(dsn string) (*SQLitePersister, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("missing sqlite dsn")
	}
	p := &SQLitePersister{dsn: dsn}
	if err := p.open(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *SQLitePersister) Save(snap Snapshot) error {
	if p == nil {
		return fmt.Errorf("nil session persister")
	}
	if err := p.ensureOpen(); err != nil {
		return err
	}
	pid := strings.TrimSpace(snap.PrincipalID)
	if pid == "" {
		return fmt.Errorf("missing principal id")
	}
	_, err := p.db.Exec(`
INSERT INTO sessions (
  principal_id, verified_level, expires_at_unix, failed_attempts, locked_until_unix, pin_hash, pin_salt
) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(principal_id) DO UPDATE SET
  verified_level = excluded.verified_level,
  expires_at_unix = excluded.expires_at_unix,
  failed_attempts = excluded.failed_attempts,
  locked_until_unix = excluded.locked_until_unix,
  pin_hash = excluded.pin_hash,
  pin_salt = excluded.pin_salt
`, pid, snap.VerifiedLevel, snap.ExpiresAtUnix, snap.FailedAttempts, snap.LockedUntil, snap.PINHash, snap.PINSalt)
	return err
}

func (p *SQLitePersister) Load() ([]Snapshot, error) {
	if p == nil {
		return nil, fmt.Errorf("nil session persister")
	}
	if err := p.ensureOpen(); err != nil {
		return nil, err
	}
	rows, err := p.db.Query(`
SELECT principal_id, verified_level, expires_at_unix, failed_attempts, locked_until_unix, pin_hash, pin_salt
FROM sessions
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var sn Snapshot
		if err := rows.Scan(
			&sn.PrincipalID, &sn.VerifiedLevel, &sn.ExpiresAtUnix,
			&sn.FailedAttempts, &sn.LockedUntil, &sn.PINHash, &sn.PINSalt,
		); err != nil {
			return nil, err
		}
		out = append(out, sn)
	}
	return out, rows.Err()
}

func (p *SQLitePersister) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}

func (p *SQLitePersister) open() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db != nil {
		return nil
	}
	db, err := sql.Open("sqlite", p.dsn)
	if err != nil {
		return err
	}
	p.db = db
	return p.migrate()
}

func (p *SQLitePersister) ensureOpen() error {
	if p.db != nil {
		return nil
	}
	return p.open()
}

func (p *SQLitePersister) migrate() error {
	if p.db == nil {
		return fmt.Errorf("sqlite db is not open")
	}
	_, err := p.db.Exec(`
CREATE TABLE IF NOT EXISTS sessions (
  principal_id TEXT PRIMARY KEY,
  verified_level INTEGER NOT NULL,
  expires_at_unix INTEGER NOT NULL,
  failed_attempts INTEGER NOT NULL,
  locked_until_unix INTEGER NOT NULL,
  pin_hash TEXT,
  pin_salt TEXT
);
`)
	return err
}
