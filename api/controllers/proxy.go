package controllers

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kythia/dashboard-backend/api/middleware"
	"github.com/kythia/dashboard-backend/api/responses"
	"github.com/kythia/dashboard-backend/internal/botapi"
	pkgerrors "github.com/kythia/dashboard-backend/pkg/errors"
	"github.com/kythia/dashboard-backend/pkg/logger"
)

type botForwarder interface {
	Forward(ctx context.Context, method, path, userID string, body []byte) (*botapi.ProxyResult, error)
}

// Proxy relays an authenticated dashboard request verbatim to the bot API,
// stamping the caller identity and the shared secret on the way through.
func Proxy(client botForwarder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var body []byte
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			var err error
			body, err = io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
		}

		path := chi.URLParam(r, "*")
		result, err := client.Forward(ctx, r.Method, "/"+path, middleware.UserIDFromContext(ctx), body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(result.Status)
		if _, err := w.Write(result.Body); err != nil && logg != nil {
			logg.Error(ctx, "proxy.write_failed", err)
		}
	}
}
