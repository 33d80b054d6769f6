package call

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/closedclaw/warden/db/models"
	"gorm.io/gorm"
)

// NotesStore persists finished call summaries.
type NotesStore struct {
	DB *gorm.DB
}

func NewNotesStore(db *gorm.DB) *NotesStore {
	return &NotesStore{DB: db}
}

func (s *NotesStore) Save(ctx context.Context, sum Summary) error {
	if s == nil || s.DB == nil {
		return nil
	}
	items, _ := json.Marshal(sum.ActionItems)
	row := models.CallNote{
		Caller:      strings.TrimSpace(sum.Caller),
		StartedAt:   sum.StartedAt.UTC().Unix(),
		DurationMs:  sum.Duration.Milliseconds(),
		Transcript:  sum.TranscriptText(),
		ActionItems: string(items),
		Outcome:     sum.Outcome,
	}
	return s.DB.WithContext(ctx).Create(&row).Error
}

// Recent returns the latest call notes, newest first.
func (s *NotesStore) Recent(ctx context.Context, limit int) ([]Summary, error) {
	if s == nil || s.DB == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	var rows []models.CallNote
	err := s.DB.WithContext(ctx).Model(&models.CallNote{}).
		Order("started_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(rows))
	for _, r := range rows {
		var items []string
		_ = json.Unmarshal([]byte(r.ActionItems), &items)
		out = append(out, Summary{
			Caller:      r.Caller,
			StartedAt:   time.Unix(r.StartedAt, 0).UTC(),
			Duration:    time.Duration(r.DurationMs) * time.Millisecond,
			ActionItems: items,
			Outcome:     r.Outcome,
		})
	}
	return out, nil
}
