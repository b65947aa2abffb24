package licenses

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kythia/dashboard-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes license and telemetry persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a license repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new license row.
func (r *Repository) Create(ctx context.Context, license *models.License) (*models.License, error) {
	if err := r.db.WithContext(ctx).Create(license).Error; err != nil {
		return nil, err
	}
	return license, nil
}

// List returns all licenses, newest first.
func (r *Repository) List(ctx context.Context) ([]models.License, error) {
	var rows []models.License
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByID returns the license with the given id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.License, error) {
	var row models.License
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByKey returns the license with the given key.
func (r *Repository) FindByKey(ctx context.Context, key string) (*models.License, error) {
	var row models.License
	if err := r.db.WithContext(ctx).First(&row, "key = ?", key).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// UpdateFields applies a column map to one license row. Nil map values
// write SQL NULL.
func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.License{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// BindClient claims an unbound license for the given client. The condition
// makes the first-caller-wins semantics atomic: a concurrent claim loses and
// observes claimed=false.
func (r *Repository) BindClient(ctx context.Context, id uuid.UUID, clientID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.License{}).
		Where("id = ? AND bound_client_id IS NULL", id).
		Update("bound_client_id", clientID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RecordVerification overwrites the check-in telemetry columns. HWID and
// config are skipped when the caller did not supply them.
func (r *Repository) RecordVerification(ctx context.Context, id uuid.UUID, hwid, config *string, ip string, at time.Time) error {
	fields := map[string]any{
		"ip_address": ip,
		"last_used":  at,
	}
	if hwid != nil {
		fields["hwid"] = *hwid
	}
	if config != nil {
		fields["config"] = *config
	}
	return r.db.WithContext(ctx).
		Model(&models.License{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// Delete hard-deletes the license. Telemetry rows go with it via the FK
// cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.License{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// InsertTelemetry batch-inserts telemetry rows and reports how many were
// written.
func (r *Repository) InsertTelemetry(ctx context.Context, rows []models.TelemetryLog) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Create(&rows)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// ListLogs returns the most recent telemetry rows for one license.
func (r *Repository) ListLogs(ctx context.Context, licenseID uuid.UUID, limit int) ([]models.TelemetryLog, error) {
	var rows []models.TelemetryLog
	err := r.db.WithContext(ctx).
		Where("license_id = ?", licenseID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
