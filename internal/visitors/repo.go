package visitors

import (
	"context"
	"time"

	"github.com/kythia/dashboard-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes visitor persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a visitor repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert records a visit from the given IP, inserting the row on first
// sight and bumping the counter afterwards.
func (r *Repository) Upsert(ctx context.Context, ip string, at time.Time) error {
	visitor := models.Visitor{
		IP:        ip,
		Visits:    1,
		FirstSeen: at,
		LastVisit: at,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "ip"}},
			DoUpdates: clause.Assignments(map[string]any{
				"visits":     gorm.Expr("visitors.visits + 1"),
				"last_visit": at,
			}),
		}).
		Create(&visitor).Error
}

// CountTotal returns the number of distinct visitors ever seen.
func (r *Repository) CountTotal(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Visitor{}).
		Count(&count).Error
	return count, err
}

// CountSince returns the number of visitors last seen at or after the cutoff.
func (r *Repository) CountSince(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Visitor{}).
		Where("last_visit >= ?", cutoff).
		Count(&count).Error
	return count, err
}
