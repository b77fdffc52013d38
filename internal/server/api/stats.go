package api

import (
	"net/http"

	"github.com/ayusman/proctorvision/internal/store"
)

// StatsHandler handles GET /api/stats.
type StatsHandler struct {
	store *store.Store
}

// NewStatsHandler creates a new StatsHandler with the given store.
func NewStatsHandler(s *store.Store) *StatsHandler {
	return &StatsHandler{store: s}
}

type statsResponse struct {
	store.Stats
	SystemStatus string `json:"system_status"`
}

// ServeHTTP implements the http.Handler interface.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	st, err := h.store.Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get stats")
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Stats: st, SystemStatus: "operational"})
}
