package models

type CallNote struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Caller      string `gorm:"column:caller;type:text;not null;index:idx_call_notes_caller"`
	StartedAt   int64  `gorm:"column:started_at;not null;index:idx_call_notes_started"`
	DurationMs  int64  `gorm:"column:duration_ms;not null"`
	Transcript  string `gorm:"column:transcript;type:text;not null"`
	ActionItems string `gorm:"column:action_items;type:text"` // JSON array of strings
	Outcome     string `gorm:"column:outcome;type:text"`
}

func (CallNote) TableName() string { return "call_notes" }
