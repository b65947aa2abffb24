package models

import (
	"time"

	"github.com/google/uuid"
)

// TelemetryLog is an append-only log entry reported by a bot under its
// license. Rows are never updated; retention is a storage concern.
type TelemetryLog struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	LicenseID uuid.UUID `gorm:"column:license_id;type:uuid;not null;index" json:"licenseId"`
	Level     string    `gorm:"column:level;not null;default:'info'" json:"level"`
	Message   string    `gorm:"column:message;not null" json:"message"`
	Metadata  *string   `gorm:"column:metadata" json:"metadata"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}
