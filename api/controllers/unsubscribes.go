package controllers

import (
	"net/http"

	"github.com/marisolvega/funnelmail-backend/api/responses"
	"github.com/marisolvega/funnelmail-backend/api/validators"
	"github.com/marisolvega/funnelmail-backend/internal/unsubscribes"
	pkgerrors "github.com/marisolvega/funnelmail-backend/pkg/errors"
	"github.com/marisolvega/funnelmail-backend/pkg/logger"
)

type unsubscribeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Unsubscribe registers an opt-out directly, bypassing the signed-link flow.
// Used by admin tooling and support.
func Unsubscribe(svc unsubscribes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "unsubscribe service unavailable"))
			return
		}

		var body unsubscribeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cancelled, err := svc.Unsubscribe(r.Context(), body.Email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"email":         unsubscribes.Normalize(body.Email),
			"cancelledJobs": cancelled,
		})
	}
}

// CheckUnsubscribed reports whether an address is in the registry.
func CheckUnsubscribed(svc unsubscribes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "unsubscribe service unavailable"))
			return
		}

		email := validators.SanitizeString(r.URL.Query().Get("email"), 320)
		if email == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "email query parameter is required"))
			return
		}

		unsubscribed, err := svc.IsUnsubscribed(r.Context(), email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"email":        unsubscribes.Normalize(email),
			"unsubscribed": unsubscribed,
		})
	}
}
