package api

import (
	"net/http"
	"time"

	"github.com/insectlab/bugradar/internal/sessionlog"
)

// HealthHandler reports liveness plus a quick view of the log state.
type HealthHandler struct {
	Store   *sessionlog.Store
	Started time.Time
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.Started).Seconds()),
	}
	if h.Store != nil {
		body["sessions"] = len(h.Store.Sessions())
	}
	respondJSON(w, http.StatusOK, body)
}
