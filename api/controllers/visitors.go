package controllers

import (
	"net/http"

	"github.com/kythia/dashboard-backend/api/middleware"
	"github.com/kythia/dashboard-backend/api/responses"
	"github.com/kythia/dashboard-backend/internal/visitors"
	pkgerrors "github.com/kythia/dashboard-backend/pkg/errors"
	"github.com/kythia/dashboard-backend/pkg/logger"
)

// VisitorTrack records a page visit keyed by caller IP and returns the
// aggregate counters the marketing pages display.
func VisitorTrack(svc visitors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "visitor service unavailable"))
			return
		}

		stats, err := svc.Track(r.Context(), middleware.ClientIP(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteJSON(w, stats)
	}
}
