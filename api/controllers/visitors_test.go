package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kythia/dashboard-backend/internal/visitors"
	pkgerrors "github.com/kythia/dashboard-backend/pkg/errors"
)

type fakeVisitorService struct {
	stats     *visitors.Stats
	err       error
	trackedIP string
}

func (f *fakeVisitorService) Track(_ context.Context, ip string) (*visitors.Stats, error) {
	f.trackedIP = ip
	return f.stats, f.err
}

func TestVisitorTrackReturnsCounters(t *testing.T) {
	svc := &fakeVisitorService{stats: &visitors.Stats{TotalVisitors: 100, TodayVisitors: 7}}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/visitors/track", nil)
	req.Header.Set("X-Real-IP", "198.51.100.9")
	VisitorTrack(svc, testLogger())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var body visitors.Stats
	decodeBody(t, rec, &body)
	if body.TotalVisitors != 100 || body.TodayVisitors != 7 {
		t.Fatalf("unexpected body %+v", body)
	}
	if svc.trackedIP != "198.51.100.9" {
		t.Fatalf("caller ip not forwarded, got %q", svc.trackedIP)
	}
}

func TestVisitorTrackStoreFailure(t *testing.T) {
	svc := &fakeVisitorService{err: pkgerrors.New(pkgerrors.CodeDependency, "record visit")}

	rec := httptest.NewRecorder()
	VisitorTrack(svc, testLogger())(rec, httptest.NewRequest(http.MethodPost, "/api/v1/visitors/track", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
}
