package controllers

import (
	"net/http"

	"github.com/marisolvega/funnelmail-backend/api/responses"
	"github.com/marisolvega/funnelmail-backend/internal/queue"
	pkgerrors "github.com/marisolvega/funnelmail-backend/pkg/errors"
	"github.com/marisolvega/funnelmail-backend/pkg/logger"
)

// ProcessQueue triggers one processor batch on demand. The worker normally
// drives batches; this endpoint exists for admin kicks and tests.
func ProcessQueue(proc queue.Processor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if proc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "queue processor unavailable"))
			return
		}

		result, err := proc.ProcessBatch(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// QueueStats reports job counts grouped by status.
func QueueStats(svc queue.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "queue service unavailable"))
			return
		}

		counts, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, counts)
	}
}
