package audit

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/closedclaw/warden/db/models"
	"gorm.io/gorm"
)

// GormStore persists records to the assistant database and serves the
// audit-view command. It is one of the sinks behind the Logger; the
// JSONL file remains the raw durable mirror.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) Emit(ctx context.Context, rec Record) error {
	if s == nil || s.DB == nil {
		return nil
	}
	row := models.AuditEvent{
		EventID:       rec.EventID,
		Timestamp:     rec.Timestamp.UTC().Unix(),
		PrincipalID:   strings.TrimSpace(rec.PrincipalID),
		ActionKind:    strings.TrimSpace(rec.ActionKind),
		RequiredLevel: rec.RequiredLevel,
		Outcome:       string(rec.Outcome),
		Reason:        rec.Reason,
	}
	return s.DB.WithContext(ctx).Create(&row).Error
}

func (s *GormStore) Close() error { return nil }

type Filter struct {
	PrincipalID string
	ActionKind  string
	Outcome     Outcome
	Since       time.Time
	Limit       int
}

// Query returns records newest first. Reads never touch the write
// queue, so they cannot stall decision-making.
func (s *GormStore) Query(ctx context.Context, f Filter) ([]Record, error) {
	if s == nil || s.DB == nil {
		return nil, nil
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	q := s.DB.WithContext(ctx).Model(&models.AuditEvent{}).
		Order("ts DESC, id DESC").
		Limit(limit)

	if p := strings.TrimSpace(f.PrincipalID); p != "" {
		q = q.Where("principal_id = ?", p)
	}
	if k := strings.TrimSpace(f.ActionKind); k != "" {
		q = q.Where("action_kind = ?", k)
	}
	if f.Outcome != "" {
		q = q.Where("outcome = ?", string(f.Outcome))
	}
	if !f.Since.IsZero() {
		q = q.Where("ts >= ?", f.Since.UTC().Unix())
	}

	var rows []models.AuditEvent
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, Record{
			EventID:       r.EventID,
			Timestamp:     time.Unix(r.Timestamp, 0).UTC(),
			PrincipalID:   r.PrincipalID,
			ActionKind:    r.ActionKind,
			RequiredLevel: r.RequiredLevel,
			Outcome:       Outcome(r.Outcome),
			Reason:        r.Reason,
		})
	}
	return out, nil
}

// MarshalRecords renders records as JSON lines for CLI output.
func MarshalRecords(recs []Record) string {
	var b strings.Builder
	for _, r := range recs {
		line, err := json.Marshal(r)
		if err != nil {
			continue
		}
		b.Write(line)
		b.WriteByte('\n')
	}
	return b.String()
}
