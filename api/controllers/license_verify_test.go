package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kythia/dashboard-backend/internal/licenses"
	pkgerrors "github.com/kythia/dashboard-backend/pkg/errors"
)

func verifyRouter(svc licenses.Service) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/v1/license/verify", LicenseVerify(svc, testLogger()))
	return r
}

type verifyBody struct {
	Valid   bool   `json:"valid"`
	Owner   string `json:"owner"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func postVerify(t *testing.T, router http.Handler, payload string) (*httptest.ResponseRecorder, verifyBody) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/license/verify", strings.NewReader(payload))
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	router.ServeHTTP(rec, req)

	var body verifyBody
	decodeBody(t, rec, &body)
	return rec, body
}

func TestLicenseVerifySuccess(t *testing.T) {
	svc := &fakeLicenseService{verifyResult: &licenses.VerifyResult{Owner: "42"}}
	router := verifyRouter(svc)

	rec, body := postVerify(t, router, `{"key":"K","clientId":"bot-A","hwid":{"cpu":"x"}}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !body.Valid || body.Owner != "42" || body.Message != "Verified" {
		t.Fatalf("unexpected body %+v", body)
	}
	if svc.verifyIP != "203.0.113.7" {
		t.Fatalf("caller ip not forwarded, got %q", svc.verifyIP)
	}
	if svc.verifyIn.ClientID != "bot-A" {
		t.Fatalf("clientId not forwarded, got %q", svc.verifyIn.ClientID)
	}
}

func TestLicenseVerifyMalformedBody(t *testing.T) {
	router := verifyRouter(&fakeLicenseService{})

	rec, body := postVerify(t, router, `{not json`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if body.Valid || body.Error != "No key" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestLicenseVerifyRejections(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"missing key", pkgerrors.New(pkgerrors.CodeValidation, "No key"), http.StatusBadRequest, "No key"},
		{"unknown key", pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid key"), http.StatusUnauthorized, "Invalid key"},
		{"suspended", pkgerrors.New(pkgerrors.CodeForbidden, "Suspended"), http.StatusForbidden, "Suspended"},
		{
			"bound elsewhere",
			pkgerrors.New(pkgerrors.CodeForbidden, "License is bound to another Bot Application ID. Contact support to reset."),
			http.StatusForbidden,
			"License is bound to another Bot Application ID. Contact support to reset.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := verifyRouter(&fakeLicenseService{verifyErr: tc.err})

			rec, body := postVerify(t, router, `{"key":"K","clientId":"bot-B"}`)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d got %d", tc.wantStatus, rec.Code)
			}
			if body.Valid || body.Error != tc.wantError {
				t.Fatalf("unexpected body %+v", body)
			}
		})
	}
}

func TestLicenseVerifyMasksServerFailures(t *testing.T) {
	router := verifyRouter(&fakeLicenseService{
		verifyErr: pkgerrors.New(pkgerrors.CodeDependency, "lookup license"),
	})

	rec, body := postVerify(t, router, `{"key":"K"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
	if body.Error != "Server Error" {
		t.Fatalf("internal causes must not leak, got %q", body.Error)
	}
}
