package controllers

import (
	"net/http"

	"github.com/kythia/dashboard-backend/api/middleware"
	"github.com/kythia/dashboard-backend/api/responses"
	"github.com/kythia/dashboard-backend/api/validators"
	"github.com/kythia/dashboard-backend/internal/licenses"
	pkgerrors "github.com/kythia/dashboard-backend/pkg/errors"
	"github.com/kythia/dashboard-backend/pkg/logger"
	"github.com/kythia/dashboard-backend/pkg/types"
)

// LicenseVerify is the bot-facing check-in endpoint. Replies always carry
// the valid flag so the calling process can branch without inspecting
// status codes.
func LicenseVerify(svc licenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteJSONStatus(w, http.StatusInternalServerError, types.VerifyResponse{Valid: false, Error: "Server Error"})
			return
		}

		var payload licenses.VerifyInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteJSONStatus(w, http.StatusBadRequest, types.VerifyResponse{Valid: false, Error: "No key"})
			return
		}

		result, err := svc.Verify(ctx, payload, middleware.ClientIP(r))
		if err != nil {
			status, msg := responses.PublicMessage(err)
			if typed := pkgerrors.As(err); typed != nil {
				switch typed.Code() {
				case pkgerrors.CodeInternal, pkgerrors.CodeDependency:
					status, msg = http.StatusInternalServerError, "Server Error"
				}
			}
			if logg != nil {
				logg.Error(ctx, "license.verify.failed", err)
			}
			responses.WriteJSONStatus(w, status, types.VerifyResponse{Valid: false, Error: msg})
			return
		}

		responses.WriteJSON(w, types.VerifyResponse{
			Valid:   true,
			Owner:   result.Owner,
			Message: "Verified",
		})
	}
}
