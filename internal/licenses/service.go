package licenses

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kythia/dashboard-backend/pkg/db"
	"github.com/kythia/dashboard-backend/pkg/db/models"
	pkgerrors "github.com/kythia/dashboard-backend/pkg/errors"
	"github.com/kythia/dashboard-backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	// detailLogLimit caps the telemetry rows attached to a detail view.
	detailLogLimit = 50

	// maxKeyAttempts bounds the re-roll loop on key collision. With a
	// 36^16 keyspace hitting this means randomness is broken, not luck.
	maxKeyAttempts = 10
)

type licensesRepository interface {
	Create(ctx context.Context, license *models.License) (*models.License, error)
	List(ctx context.Context) ([]models.License, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.License, error)
	FindByKey(ctx context.Context, key string) (*models.License, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	BindClient(ctx context.Context, id uuid.UUID, clientID string) (bool, error)
	RecordVerification(ctx context.Context, id uuid.UUID, hwid, config *string, ip string, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	InsertTelemetry(ctx context.Context, rows []models.TelemetryLog) (int64, error)
	ListLogs(ctx context.Context, licenseID uuid.UUID, limit int) ([]models.TelemetryLog, error)
}

// Service exposes license issuance, administration, the bot-facing
// verification protocol and telemetry ingestion.
type Service interface {
	List(ctx context.Context) ([]models.License, error)
	Generate(ctx context.Context, input GenerateInput) (*models.License, error)
	Get(ctx context.Context, id uuid.UUID) (*models.License, error)
	Patch(ctx context.Context, id uuid.UUID, input PatchInput) (*models.License, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Verify(ctx context.Context, input VerifyInput, callerIP string) (*VerifyResult, error)
	IngestTelemetry(ctx context.Context, input TelemetryInput) (int64, error)
}

type service struct {
	repo               licensesRepository
	logg               *logger.Logger
	keyPrefix          string
	suspendedTelemetry bool
	now                func() time.Time
}

// NewService builds the license service. keyPrefix is the literal leading
// token of issued keys. suspendedTelemetry controls whether a suspended
// license may still flush telemetry.
func NewService(repo licensesRepository, logg *logger.Logger, keyPrefix string, suspendedTelemetry bool) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("license repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(keyPrefix) == "" {
		return nil, fmt.Errorf("key prefix required")
	}
	return &service{
		repo:               repo,
		logg:               logg,
		keyPrefix:          strings.ToUpper(strings.TrimSpace(keyPrefix)),
		suspendedTelemetry: suspendedTelemetry,
		now:                time.Now,
	}, nil
}

func (s *service) List(ctx context.Context) ([]models.License, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list licenses")
	}
	return rows, nil
}

func (s *service) Generate(ctx context.Context, input GenerateInput) (*models.License, error) {
	ownerID := strings.TrimSpace(input.OwnerID)
	if ownerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Owner ID is required")
	}

	for attempt := 0; attempt < maxKeyAttempts; attempt++ {
		key, err := newKey(s.keyPrefix)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate license key")
		}

		created, err := s.repo.Create(ctx, &models.License{
			Key:      key,
			OwnerID:  ownerID,
			IsActive: true,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "key") {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create license")
		}
		return created, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "could not generate a unique license key")
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.License, error) {
	license, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "License not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup license")
	}

	logs, err := s.repo.ListLogs(ctx, license.ID, detailLogLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list telemetry logs")
	}
	license.Logs = logs
	return license, nil
}

func (s *service) Patch(ctx context.Context, id uuid.UUID, input PatchInput) (*models.License, error) {
	fields := map[string]any{}

	if input.IsActive.Set {
		if input.IsActive.Value == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "isActive cannot be null")
		}
		fields["is_active"] = *input.IsActive.Value
	}
	if input.BoundClientID.Set {
		fields["bound_client_id"] = input.BoundClientID.Value
	}
	if input.IPAddress.Set {
		fields["ip_address"] = input.IPAddress.Value
	}
	if input.HWID.Set {
		fields["hwid"] = input.HWID.Value
	}
	if input.Config.Set {
		fields["config"] = input.Config.Value
	}

	// An existence check first so an empty patch and a missing row are
	// distinguishable.
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "License not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup license")
	}

	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update license")
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload license")
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "License not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete license")
	}
	return nil
}

func (s *service) Verify(ctx context.Context, input VerifyInput, callerIP string) (*VerifyResult, error) {
	if strings.TrimSpace(input.Key) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "No key")
	}

	license, err := s.repo.FindByKey(ctx, input.Key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid key")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup license")
	}

	if !license.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Suspended")
	}

	if input.ClientID != "" {
		switch {
		case license.BoundClientID == nil:
			claimed, err := s.repo.BindClient(ctx, license.ID, input.ClientID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bind license")
			}
			if !claimed {
				// Lost a concurrent first-bind race. Reload and fall
				// through to the mismatch check below.
				license, err = s.repo.FindByID(ctx, license.ID)
				if err != nil {
					return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload license")
				}
			}
		}
		if license.BoundClientID != nil && *license.BoundClientID != input.ClientID {
			ctx = s.logg.WithFields(ctx, map[string]any{
				"key":             input.Key,
				"client_id":       input.ClientID,
				"bound_client_id": *license.BoundClientID,
			})
			s.logg.Warn(ctx, "license presented by a foreign application id")
			return nil, pkgerrors.New(pkgerrors.CodeForbidden,
				"License is bound to another Bot Application ID. Contact support to reset.")
		}
	}

	hwid := rawToString(input.HWID)
	config := rawToString(input.Config)
	if err := s.repo.RecordVerification(ctx, license.ID, hwid, config, callerIP, s.now()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record verification")
	}

	return &VerifyResult{Owner: license.OwnerID}, nil
}

func (s *service) IngestTelemetry(ctx context.Context, input TelemetryInput) (int64, error) {
	if strings.TrimSpace(input.Key) == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "No key")
	}

	license, err := s.repo.FindByKey(ctx, input.Key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup license")
	}

	if !license.IsActive && !s.suspendedTelemetry {
		return 0, pkgerrors.New(pkgerrors.CodeForbidden, "Suspended")
	}

	if len(input.Logs) == 0 {
		return 0, nil
	}

	rows := make([]models.TelemetryLog, len(input.Logs))
	for i, entry := range input.Logs {
		level := entry.Level
		if level == "" {
			level = "info"
		}
		rows[i] = models.TelemetryLog{
			LicenseID: license.ID,
			Level:     level,
			Message:   entry.Message,
			Metadata:  rawToString(entry.Metadata),
		}
	}

	count, err := s.repo.InsertTelemetry(ctx, rows)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert telemetry")
	}
	return count, nil
}

// rawToString serializes an opaque JSON value for storage. JSON strings are
// stored unquoted; anything else keeps its compact JSON text. Absent and
// null values map to nil.
func rawToString(raw json.RawMessage) *string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}
	return &trimmed
}
