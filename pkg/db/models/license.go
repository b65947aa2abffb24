package models

import (
	"time"

	"github.com/google/uuid"
)

// License is one issued usage right for a single bot deployment. The key is
// what the bot presents; the binding pins the key to one Discord application
// identity after the first verified call.
type License struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Key           string    `gorm:"column:key;not null;unique" json:"key"`
	OwnerID       string    `gorm:"column:owner_id;not null" json:"ownerId"`
	IsActive      bool      `gorm:"column:is_active;not null;default:true" json:"isActive"`
	BoundClientID *string   `gorm:"column:bound_client_id" json:"boundClientId"`

	// Informational telemetry captured on every successful verification.
	// Only BoundClientID is enforced; hwid/ip may legitimately change.
	HWID      *string `gorm:"column:hwid" json:"hwid"`
	IPAddress *string `gorm:"column:ip_address" json:"ipAddress"`
	Config    *string `gorm:"column:config" json:"config"`

	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	LastUsed  *time.Time `gorm:"column:last_used" json:"lastUsed"`

	Logs []TelemetryLog `gorm:"foreignKey:LicenseID;constraint:OnDelete:CASCADE" json:"logs,omitempty"`
}
