package db

import (
	"fmt"

	"github.com/closedclaw/warden/db/models"
	"gorm.io/gorm"
)

func AutoMigrate(gdb *gorm.DB) error {
	if gdb == nil {
		return fmt.Errorf("nil gorm db")
	}
	return gdb.AutoMigrate(
		&models.AuditEvent{},
		&models.CallNote{},
	)
}
