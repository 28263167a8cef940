package controllers

import (
	"net/http"

	"github.com/marisolvega/funnelmail-backend/api/responses"
	"github.com/marisolvega/funnelmail-backend/pkg/config"
	"github.com/marisolvega/funnelmail-backend/pkg/db"
	pkgerrors "github.com/marisolvega/funnelmail-backend/pkg/errors"
	"github.com/marisolvega/funnelmail-backend/pkg/logger"
	"github.com/marisolvega/funnelmail-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FunnelMail-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FunnelMail-Env", cfg.App.Env)

		checks := map[string]string{}
		healthy := true

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				checks["db"] = err.Error()
				healthy = false
			} else {
				checks["db"] = "ok"
			}
		}
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			} else {
				checks["redis"] = "ok"
			}
		}

		if !healthy {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
