package visitors

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubVisitorRepo struct {
	upsertIP  string
	upsertAt  time.Time
	upsertErr error

	total       int64
	sinceCutoff time.Time
	sinceCount  int64
}

func (s *stubVisitorRepo) Upsert(_ context.Context, ip string, at time.Time) error {
	s.upsertIP = ip
	s.upsertAt = at
	return s.upsertErr
}

func (s *stubVisitorRepo) CountTotal(context.Context) (int64, error) {
	return s.total, nil
}

func (s *stubVisitorRepo) CountSince(_ context.Context, cutoff time.Time) (int64, error) {
	s.sinceCutoff = cutoff
	return s.sinceCount, nil
}

func TestTrackReturnsCounts(t *testing.T) {
	repo := &stubVisitorRepo{total: 10, sinceCount: 3}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svc.(*service).now = func() time.Time {
		return time.Date(2026, time.September, 1, 15, 30, 0, 0, time.UTC)
	}

	stats, err := svc.Track(context.Background(), "1.2.3.4")
	if err != nil {
		t.Fatalf("track: %v", err)
	}

	if stats.TotalVisitors != 10 || stats.TodayVisitors != 3 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if repo.upsertIP != "1.2.3.4" {
		t.Fatalf("ip not recorded, got %q", repo.upsertIP)
	}
	want := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	if !repo.sinceCutoff.Equal(want) {
		t.Fatalf("today cutoff should be local start of day, got %s", repo.sinceCutoff)
	}
}

func TestTrackDefaultsEmptyIP(t *testing.T) {
	repo := &stubVisitorRepo{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.Track(context.Background(), ""); err != nil {
		t.Fatalf("track: %v", err)
	}
	if repo.upsertIP != "127.0.0.1" {
		t.Fatalf("empty ip should fall back to loopback, got %q", repo.upsertIP)
	}
}

func TestTrackPropagatesStoreFailure(t *testing.T) {
	repo := &stubVisitorRepo{upsertErr: errors.New("db down")}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.Track(context.Background(), "1.2.3.4"); err == nil {
		t.Fatal("expected error when the store fails")
	}
}

func TestNewServiceRequiresRepo(t *testing.T) {
	if _, err := NewService(nil); err == nil {
		t.Fatal("expected error for nil repository")
	}
}
