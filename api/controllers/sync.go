package controllers

import (
	"net/http"

	"github.com/vartasolar/fieldops-backend/api/responses"
	"github.com/vartasolar/fieldops-backend/internal/syncer"
	"github.com/vartasolar/fieldops-backend/pkg/logger"
)

type syncResponse struct {
	Clean bool             `json:"clean"`
	State syncer.SyncState `json:"state"`
}

// TriggerSync runs one manual drain pass. A dirty drain is not an HTTP
// failure: the failed actions stay queued and the response reports it.
func TriggerSync(coord Coordinator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clean, err := coord.SyncPendingActions(r.Context(), actorID(r), syncer.TriggerManual)
		if err != nil {
			logg.Error(r.Context(), "manual drain finished with failures", err)
		}
		responses.WriteSuccess(w, syncResponse{Clean: clean, State: coord.Status()})
	}
}

func SyncStatus(coord Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, coord.Status())
	}
}
