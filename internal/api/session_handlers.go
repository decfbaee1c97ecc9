package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/insectlab/bugradar/internal/sessionlog"
)

// SessionHandler serves the recorded detection sessions.
type SessionHandler struct {
	Store *sessionlog.Store
}

type sessionListItem struct {
	ID      string         `json:"id"`
	Species map[string]int `json:"species"`
}

// ListSessions returns all sessions, oldest first, with per-species counts.
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	entries := h.Store.Sessions()
	items := make([]sessionListItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, sessionListItem{ID: e.ID, Species: sessionlog.Proportions(e.Session)})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"sessions": items})
}

// GetSession returns the full record of one session by its timestamp ID.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	session, ok := h.Store.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "species": session})
}

// GetRadar returns the polar entry/exit tracks for a session, with angles
// normalized to [-90, 90] for plotting.
func (h *SessionHandler) GetRadar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	session, ok := h.Store.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "tracks": sessionlog.PolarTracks(session)})
}

// GetProportions returns the species counts for one session.
func (h *SessionHandler) GetProportions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	session, ok := h.Store.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "counts": sessionlog.Proportions(session)})
}

// GetNearestEncounter returns the closest approach across all sessions.
func (h *SessionHandler) GetNearestEncounter(w http.ResponseWriter, r *http.Request) {
	nearest, ok := h.Store.Nearest()
	if !ok {
		respondError(w, http.StatusNotFound, "no encounters recorded")
		return
	}
	respondJSON(w, http.StatusOK, nearest)
}

// GetOverallSummary aggregates counts, angles and distances across all
// sessions, the same view the chat context uses.
func (h *SessionHandler) GetOverallSummary(w http.ResponseWriter, r *http.Request) {
	entries := h.Store.Sessions()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": len(entries),
		"species":  sessionlog.OverallSummary(entries),
	})
}
