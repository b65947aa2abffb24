package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kythia/dashboard-backend/internal/licenses"
	"github.com/kythia/dashboard-backend/pkg/db/models"
	pkgerrors "github.com/kythia/dashboard-backend/pkg/errors"
	"github.com/kythia/dashboard-backend/pkg/logger"
)

type fakeLicenseService struct {
	listRows []models.License
	listErr  error

	generated   *models.License
	generateErr error
	generateIn  licenses.GenerateInput

	got    *models.License
	getErr error

	patched  *models.License
	patchErr error
	patchIn  licenses.PatchInput

	deleteErr error

	verifyResult *licenses.VerifyResult
	verifyErr    error
	verifyIn     licenses.VerifyInput
	verifyIP     string

	telemetryCount int64
	telemetryErr   error
	telemetryIn    licenses.TelemetryInput
}

func (f *fakeLicenseService) List(context.Context) ([]models.License, error) {
	return f.listRows, f.listErr
}

func (f *fakeLicenseService) Generate(_ context.Context, input licenses.GenerateInput) (*models.License, error) {
	f.generateIn = input
	return f.generated, f.generateErr
}

func (f *fakeLicenseService) Get(context.Context, uuid.UUID) (*models.License, error) {
	return f.got, f.getErr
}

func (f *fakeLicenseService) Patch(_ context.Context, _ uuid.UUID, input licenses.PatchInput) (*models.License, error) {
	f.patchIn = input
	return f.patched, f.patchErr
}

func (f *fakeLicenseService) Delete(context.Context, uuid.UUID) error {
	return f.deleteErr
}

func (f *fakeLicenseService) Verify(_ context.Context, input licenses.VerifyInput, callerIP string) (*licenses.VerifyResult, error) {
	f.verifyIn = input
	f.verifyIP = callerIP
	return f.verifyResult, f.verifyErr
}

func (f *fakeLicenseService) IngestTelemetry(_ context.Context, input licenses.TelemetryInput) (int64, error) {
	f.telemetryIn = input
	return f.telemetryCount, f.telemetryErr
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test"})
}

func licenseRouter(svc licenses.Service) http.Handler {
	logg := testLogger()
	r := chi.NewRouter()
	r.Get("/api/v1/license/list", LicenseList(svc, logg))
	r.Post("/api/v1/license/generate", LicenseGenerate(svc, logg))
	r.Get("/api/v1/license/{id}", LicenseGet(svc, logg))
	r.Patch("/api/v1/license/{id}", LicensePatch(svc, logg))
	r.Delete("/api/v1/license/{id}", LicenseDelete(svc, logg))
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
}

func TestLicenseListReturnsRows(t *testing.T) {
	svc := &fakeLicenseService{listRows: []models.License{
		{ID: uuid.New(), Key: "K1", OwnerID: "42", IsActive: true},
		{ID: uuid.New(), Key: "K2", OwnerID: "43", IsActive: false},
	}}
	router := licenseRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/license/list", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var rows []models.License
	decodeBody(t, rec, &rows)
	if len(rows) != 2 || rows[0].Key != "K1" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestLicenseGenerateSuccess(t *testing.T) {
	created := &models.License{ID: uuid.New(), Key: "KYTHIA-AAAA-BBBB-CCCC-DDDD", OwnerID: "42", IsActive: true}
	svc := &fakeLicenseService{generated: created}
	router := licenseRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/license/generate", strings.NewReader(`{"ownerId":"42"}`))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Success bool           `json:"success"`
		License models.License `json:"license"`
	}
	decodeBody(t, rec, &body)
	if !body.Success || body.License.Key != created.Key {
		t.Fatalf("unexpected body %+v", body)
	}
	if svc.generateIn.OwnerID != "42" {
		t.Fatalf("owner not forwarded, got %q", svc.generateIn.OwnerID)
	}
}

func TestLicenseGenerateMissingOwner(t *testing.T) {
	svc := &fakeLicenseService{generateErr: pkgerrors.New(pkgerrors.CodeValidation, "Owner ID is required")}
	router := licenseRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/license/generate", strings.NewReader(`{}`))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	var body struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &body)
	if body.Error != "Owner ID is required" {
		t.Fatalf("unexpected error %q", body.Error)
	}
}

func TestLicenseGetNotFound(t *testing.T) {
	svc := &fakeLicenseService{getErr: pkgerrors.New(pkgerrors.CodeNotFound, "License not found")}
	router := licenseRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/license/"+uuid.NewString(), nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
	var body struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &body)
	if body.Error != "License not found" {
		t.Fatalf("unexpected error %q", body.Error)
	}
}

func TestLicenseGetRejectsMalformedID(t *testing.T) {
	svc := &fakeLicenseService{}
	router := licenseRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/license/not-a-uuid", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestLicensePatchDistinguishesNullFromAbsent(t *testing.T) {
	updated := &models.License{ID: uuid.New(), Key: "K", OwnerID: "42"}
	svc := &fakeLicenseService{patched: updated}
	router := licenseRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/license/"+uuid.NewString(),
		strings.NewReader(`{"isActive":false,"boundClientId":null}`))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	in := svc.patchIn
	if !in.IsActive.Set || in.IsActive.Value == nil || *in.IsActive.Value != false {
		t.Fatalf("isActive not decoded, got %+v", in.IsActive)
	}
	if !in.BoundClientID.Set || in.BoundClientID.Value != nil {
		t.Fatalf("null boundClientId should decode as set-to-nil, got %+v", in.BoundClientID)
	}
	if in.HWID.Set || in.IPAddress.Set || in.Config.Set {
		t.Fatalf("absent fields must stay unset, got %+v", in)
	}
}

func TestLicenseDeleteMessage(t *testing.T) {
	svc := &fakeLicenseService{}
	router := licenseRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/license/"+uuid.NewString(), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var body struct {
		Message string `json:"message"`
	}
	decodeBody(t, rec, &body)
	if body.Message != "License deleted" {
		t.Fatalf("unexpected message %q", body.Message)
	}
}
