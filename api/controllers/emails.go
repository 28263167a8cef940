package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/marisolvega/funnelmail-backend/api/responses"
	"github.com/marisolvega/funnelmail-backend/api/validators"
	"github.com/marisolvega/funnelmail-backend/internal/queue"
	"github.com/marisolvega/funnelmail-backend/pkg/enums"
	pkgerrors "github.com/marisolvega/funnelmail-backend/pkg/errors"
	"github.com/marisolvega/funnelmail-backend/pkg/logger"
)

type enqueueEmailRequest struct {
	LeadID          *uuid.UUID        `json:"leadId"`
	RecipientEmail  string            `json:"recipientEmail" validate:"required,email"`
	Subject         string            `json:"subject" validate:"required,max=998"`
	HTMLContent     string            `json:"htmlContent" validate:"required"`
	EmailType       string            `json:"emailType" validate:"required,max=100"`
	DelayMinutes    int               `json:"delayMinutes" validate:"gte=0"`
	Priority        string            `json:"priority" validate:"omitempty,oneof=high normal low"`
	Personalization map[string]string `json:"personalization"`
}

// EnqueueEmail accepts one send request from the funnel.
func EnqueueEmail(svc queue.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "queue service unavailable"))
			return
		}

		var body enqueueEmailRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		priority, err := enums.ParsePriority(body.Priority)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid priority"))
			return
		}

		result, err := svc.Enqueue(r.Context(), queue.EnqueueRequest{
			LeadID:          body.LeadID,
			RecipientEmail:  validators.SanitizeString(body.RecipientEmail, 320),
			Subject:         body.Subject,
			HTMLContent:     body.HTMLContent,
			EmailType:       validators.SanitizeString(body.EmailType, 100),
			DelayMinutes:    body.DelayMinutes,
			Priority:        priority,
			Personalization: body.Personalization,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if result.Skipped {
			responses.WriteSuccess(w, result)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// GetEmail returns one queued job by id.
func GetEmail(svc queue.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "queue service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "emailId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid email id"))
			return
		}

		job, err := svc.GetJob(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, job)
	}
}
