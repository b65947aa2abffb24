package middleware

import (
	"net/http"

	"github.com/kythia/dashboard-backend/api/responses"
	"github.com/kythia/dashboard-backend/pkg/config"
	pkgerrors "github.com/kythia/dashboard-backend/pkg/errors"
	"github.com/kythia/dashboard-backend/pkg/logger"
)

// RequireOwner gates the license admin surface to the configured operator
// allow-list. Runs after Auth, so an empty user id means a wiring mistake
// rather than a missing login.
func RequireOwner(cfg config.LicenseConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID := UserIDFromContext(ctx)
			if !cfg.IsOwner(userID) {
				if logg != nil {
					logCtx := logg.WithField(ctx, "user_id", userID)
					logg.Warn(logCtx, "non-owner attempted license admin access")
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "Forbidden. You are not the owner."))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
