package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/kythia/dashboard-backend/pkg/errors"
	"github.com/kythia/dashboard-backend/pkg/logger"
	"github.com/kythia/dashboard-backend/pkg/types"
)

func TestWriteJSONIsUnwrapped(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, map[string]string{"hello": "world"})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["hello"] != "world" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestWriteErrorUsesFlatEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	logg := logger.New(logger.Options{ServiceName: "test"})
	WriteError(context.Background(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "License not found"))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "License not found" {
		t.Fatalf("unexpected error %q", body.Error)
	}
}

func TestWriteErrorMasksUntypedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	logg := logger.New(logger.Options{ServiceName: "test"})
	WriteError(context.Background(), logg, w, errors.New("pq: connection refused"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", w.Code)
	}
	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "internal server error" {
		t.Fatalf("cause must not leak, got %q", body.Error)
	}
}

func TestPublicMessagePassthroughCodes(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantMsg    string
	}{
		{pkgerrors.New(pkgerrors.CodeValidation, "No key"), http.StatusBadRequest, "No key"},
		{pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid key"), http.StatusUnauthorized, "Invalid key"},
		{pkgerrors.New(pkgerrors.CodeForbidden, "Suspended"), http.StatusForbidden, "Suspended"},
		{pkgerrors.New(pkgerrors.CodeRateLimit, "Too many requests"), http.StatusTooManyRequests, "Too many requests"},
		{pkgerrors.New(pkgerrors.CodeUpstream, "Failed to reach Bot API"), http.StatusBadGateway, "Failed to reach Bot API"},
		{pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("dial tcp"), "lookup license"), http.StatusServiceUnavailable, "dependency unavailable"},
		{pkgerrors.Wrap(pkgerrors.CodeInternal, errors.New("nil deref"), "boom"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range cases {
		status, msg := PublicMessage(tc.err)
		if status != tc.wantStatus || msg != tc.wantMsg {
			t.Fatalf("PublicMessage(%v) = %d %q, want %d %q", tc.err, status, msg, tc.wantStatus, tc.wantMsg)
		}
	}
}
