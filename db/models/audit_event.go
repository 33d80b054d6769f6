package models

type AuditEvent struct {
	ID            int64  `gorm:"column:id;primaryKey;autoIncrement"`
	EventID       string `gorm:"column:event_id;type:text;not null;uniqueIndex:uniq_audit_event_id"`
	Timestamp     int64  `gorm:"column:ts;not null;index:idx_audit_ts"`
	PrincipalID   string `gorm:"column:principal_id;type:text;not null;index:idx_audit_principal"`
	ActionKind    string `gorm:"column:action_kind;type:text;not null;index:idx_audit_kind"`
	RequiredLevel string `gorm:"column:required_level;type:text"`
	Outcome       string `gorm:"column:outcome;type:text;not null;index:idx_audit_outcome"`
	Reason        string `gorm:"column:reason;type:text"`
}

func (AuditEvent) TableName() string { return "audit_events" }
