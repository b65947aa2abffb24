package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/kythia/dashboard-backend/api/responses"
	pkgauth "github.com/kythia/dashboard-backend/pkg/auth"
	"github.com/kythia/dashboard-backend/pkg/config"
	pkgerrors "github.com/kythia/dashboard-backend/pkg/errors"
	"github.com/kythia/dashboard-backend/pkg/logger"
)

type sessionRegistrar interface {
	Open(ctx context.Context, sessionID, userID string) error
	Revoke(ctx context.Context, sessionID string) error
}

// SessionOpen registers a freshly minted session token so later requests
// pass the liveness check. The OAuth frontend mints the token with the
// shared secret and exchanges it here right after login.
func SessionOpen(manager sessionRegistrar, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		claims, err := bearerClaims(r, cfg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := manager.Open(ctx, claims.ID, claims.UserID); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open session"))
			return
		}

		if logg != nil {
			logg.Info(logg.WithUserID(ctx, claims.UserID), "session.opened")
		}
		responses.WriteJSON(w, map[string]any{"success": true})
	}
}

// SessionRevoke invalidates the presented token's session immediately,
// ahead of its JWT expiry.
func SessionRevoke(manager sessionRegistrar, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		claims, err := bearerClaims(r, cfg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := manager.Revoke(ctx, claims.ID); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session"))
			return
		}

		responses.WriteJSON(w, map[string]string{"message": "Logged out"})
	}
}

func bearerClaims(r *http.Request, cfg config.JWTConfig) (*pkgauth.SessionTokenClaims, error) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized. Please login.")
	}

	claims, err := pkgauth.ParseSessionToken(cfg, raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "Unauthorized. Please login.")
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized. Please login.")
	}
	return claims, nil
}
