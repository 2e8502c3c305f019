package handler

import (
	"context"
	"net/http"

	"github.com/zahrat-boutique/api/internal/model"
)

// LogStore reads the admin activity trail.
type LogStore interface {
	GetAdminLogs(ctx context.Context) ([]model.AdminLogEntry, error)
}

// LogHandler serves the admin activity log. Admin only.
type LogHandler struct {
	store LogStore
}

func NewLogHandler(store LogStore) *LogHandler {
	return &LogHandler{store: store}
}

// List returns the most recent admin actions, newest first. The store
// caps the trail at 500 entries.
// Endpoint: GET /admin-logs
func (h *LogHandler) List(w http.ResponseWriter, r *http.Request) {
	logs, err := h.store.GetAdminLogs(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to fetch admin logs"})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
