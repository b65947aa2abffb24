package visitors

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/kythia/dashboard-backend/pkg/errors"
)

type visitorsRepository interface {
	Upsert(ctx context.Context, ip string, at time.Time) error
	CountTotal(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, cutoff time.Time) (int64, error)
}

// Stats summarizes visitor traffic for the marketing pages.
type Stats struct {
	TotalVisitors int64 `json:"totalVisitors"`
	TodayVisitors int64 `json:"todayVisitors"`
}

// Service records page visits keyed by caller IP and reports aggregate counts.
type Service interface {
	Track(ctx context.Context, ip string) (*Stats, error)
}

type service struct {
	repo visitorsRepository
	now  func() time.Time
}

// NewService builds a visitor service on the provided repository.
func NewService(repo visitorsRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("visitor repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Track(ctx context.Context, ip string) (*Stats, error) {
	if ip == "" {
		ip = "127.0.0.1"
	}

	now := s.now()
	if err := s.repo.Upsert(ctx, ip, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record visit")
	}

	total, err := s.repo.CountTotal(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count visitors")
	}

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	today, err := s.repo.CountSince(ctx, startOfDay)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count today visitors")
	}

	return &Stats{TotalVisitors: total, TodayVisitors: today}, nil
}
