package controllers

import (
	"net/http"

	"github.com/kythia/dashboard-backend/api/responses"
	"github.com/kythia/dashboard-backend/api/validators"
	"github.com/kythia/dashboard-backend/internal/licenses"
	pkgerrors "github.com/kythia/dashboard-backend/pkg/errors"
	"github.com/kythia/dashboard-backend/pkg/logger"
	"github.com/kythia/dashboard-backend/pkg/types"
)

// TelemetryIngest accepts a key-authenticated batch of bot events.
func TelemetryIngest(svc licenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "license service unavailable"))
			return
		}

		var payload licenses.TelemetryInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "No key"))
			return
		}

		count, err := svc.IngestTelemetry(r.Context(), payload)
		if err != nil {
			// Deployed bots expect a 500 on server-side failures here, not
			// the dependency-mapped 503.
			if typed := pkgerrors.As(err); typed != nil {
				switch typed.Code() {
				case pkgerrors.CodeInternal, pkgerrors.CodeDependency:
					if logg != nil {
						logg.Error(r.Context(), "license.telemetry.failed", err)
					}
					responses.WriteJSONStatus(w, http.StatusInternalServerError, types.ErrorEnvelope{Error: "Internal Error"})
					return
				}
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteJSON(w, types.TelemetryResponse{Success: true, Count: count})
	}
}
