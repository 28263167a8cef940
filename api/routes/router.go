package routes

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/marisolvega/funnelmail-backend/api/controllers"
	"github.com/marisolvega/funnelmail-backend/api/middleware"
	"github.com/marisolvega/funnelmail-backend/internal/deliverylog"
	"github.com/marisolvega/funnelmail-backend/internal/queue"
	"github.com/marisolvega/funnelmail-backend/internal/tracking"
	"github.com/marisolvega/funnelmail-backend/internal/unsubscribes"
	"github.com/marisolvega/funnelmail-backend/pkg/config"
	"github.com/marisolvega/funnelmail-backend/pkg/db"
	"github.com/marisolvega/funnelmail-backend/pkg/logger"
	"github.com/marisolvega/funnelmail-backend/pkg/redis"
)

type RouterParams struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           db.Pinger
	Redis        redis.Pinger
	Queue        queue.Service
	Processor    queue.Processor
	Deliveries   deliverylog.Repository
	Unsubscribes unsubscribes.Service
	Tracking     tracking.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(splitOrigins(cfg.App.CORSOrigins)),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	// Tracking endpoints live outside /api; they are dereferenced by mail
	// clients, not API consumers.
	r.Route("/t", func(r chi.Router) {
		r.Get("/open", controllers.TrackOpen(p.Tracking, logg))
		r.Get("/click", controllers.TrackClick(p.Tracking, logg))
		r.Get("/unsubscribe", controllers.TrackUnsubscribe(p.Tracking, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/emails", func(r chi.Router) {
			r.Post("/", controllers.EnqueueEmail(p.Queue, logg))
			r.Get("/{emailId}", controllers.GetEmail(p.Queue, logg))
			r.Get("/{emailId}/events", controllers.ListEmailEvents(p.Deliveries, logg))
		})
		r.Route("/queue", func(r chi.Router) {
			r.Post("/process", controllers.ProcessQueue(p.Processor, logg))
			r.Get("/stats", controllers.QueueStats(p.Queue, logg))
		})
		r.Get("/deliveries", controllers.ListDeliveries(p.Deliveries, logg))
		r.Route("/unsubscribes", func(r chi.Router) {
			r.Post("/", controllers.Unsubscribe(p.Unsubscribes, logg))
			r.Get("/check", controllers.CheckUnsubscribed(p.Unsubscribes, logg))
		})
	})

	return r
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
