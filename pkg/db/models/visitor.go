package models

import (
	"time"

	"github.com/google/uuid"
)

// Visitor tracks marketing-site traffic by caller IP.
type Visitor struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	IP        string    `gorm:"column:ip;not null;unique" json:"ip"`
	Visits    int64     `gorm:"column:visits;not null;default:1" json:"visits"`
	FirstSeen time.Time `gorm:"column:first_seen;autoCreateTime" json:"firstSeen"`
	LastVisit time.Time `gorm:"column:last_visit;not null" json:"lastVisit"`
}
