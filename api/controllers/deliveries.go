package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/marisolvega/funnelmail-backend/api/responses"
	"github.com/marisolvega/funnelmail-backend/api/validators"
	"github.com/marisolvega/funnelmail-backend/internal/deliverylog"
	"github.com/marisolvega/funnelmail-backend/pkg/enums"
	pkgerrors "github.com/marisolvega/funnelmail-backend/pkg/errors"
	"github.com/marisolvega/funnelmail-backend/pkg/logger"
)

// ListDeliveries returns delivery log entries, newest first, with optional
// recipient, type and status filters.
func ListDeliveries(repo deliverylog.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery log unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := deliverylog.ListDeliveriesParams{
			RecipientEmail: strings.ToLower(validators.SanitizeString(r.URL.Query().Get("recipientEmail"), 320)),
			EmailType:      validators.SanitizeString(r.URL.Query().Get("emailType"), 100),
			Limit:          limit,
		}
		if status := validators.SanitizeString(r.URL.Query().Get("status"), 20); status != "" {
			parsed := enums.DeliveryStatus(strings.ToLower(status))
			if !parsed.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter"))
				return
			}
			params.Status = parsed
		}

		entries, err := repo.ListDeliveries(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list deliveries"))
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

// ListEmailEvents returns the engagement history for one job.
func ListEmailEvents(repo deliverylog.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery log unavailable"))
			return
		}

		emailID := chi.URLParam(r, "emailId")
		if _, err := uuid.Parse(emailID); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid email id"))
			return
		}

		events, err := repo.ListEvents(r.Context(), emailID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list events"))
			return
		}
		if len(events) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "no events for email"))
			return
		}
		responses.WriteSuccess(w, events)
	}
}
