package controllers

import (
	"net/http"

	"github.com/vartasolar/fieldops-backend/api/responses"
	"github.com/vartasolar/fieldops-backend/pkg/config"
	"github.com/vartasolar/fieldops-backend/pkg/db"
	pkgerrors "github.com/vartasolar/fieldops-backend/pkg/errors"
	"github.com/vartasolar/fieldops-backend/pkg/logger"
)

const envHeader = "X-FieldOps-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady fails only when the local cache database is unreachable: the
// agent is built to run without the backend, so backend reachability is
// reported, not required.
func HealthReady(cfg *config.Config, logg *logger.Logger, cacheDB db.Pinger, remoteDB db.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		if cacheDB != nil {
			if err := cacheDB.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cache database unavailable"))
				return
			}
		}

		backendOnline := false
		if remoteDB != nil {
			backendOnline = remoteDB.Ping(r.Context()) == nil
		}

		responses.WriteSuccess(w, map[string]any{
			"status":         "ready",
			"backend_online": backendOnline,
		})
	}
}
