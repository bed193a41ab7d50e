package controllers

import (
	"context"
	"net/http"

	"github.com/karibu-app/karibu-backend/api/responses"
	"github.com/karibu-app/karibu-backend/pkg/config"
	pkgerrors "github.com/karibu-app/karibu-backend/pkg/errors"
	"github.com/karibu-app/karibu-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Karibu-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the API can reach its backing services.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Karibu-Env", cfg.App.Env)
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}

// ReadyDeps assembles the named dependency checks for the readiness probe.
func ReadyDeps(dbP pinger, redisP pinger) map[string]pinger {
	deps := map[string]pinger{}
	if dbP != nil {
		deps["database"] = dbP
	}
	if redisP != nil {
		deps["redis"] = redisP
	}
	return deps
}
