// Package api provides the ambient HTTP handlers for scoutd: health and
// Prometheus metrics only, per the service's minimal operational surface.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kestrelresearch/scout/internal/external"
	"github.com/kestrelresearch/scout/internal/gatherer"
	"github.com/kestrelresearch/scout/internal/store"
)

// connChecker reports an event-bus client's live connection state. Kept
// narrow so this package doesn't need to import the concrete notify.Client
// type just to read one field.
type connChecker interface {
	IsConnected() bool
}

// HealthHandler reports process and dependency health.
type HealthHandler struct {
	db        *store.DB
	gatherers *gatherer.Registry
	notifier  connChecker
	startTime time.Time
}

// NewHealthHandler returns a HealthHandler bound to its dependencies.
// notifier is nil (the external.Notifier zero value) when the event bus is
// unavailable.
func NewHealthHandler(db *store.DB, gatherers *gatherer.Registry, notifier external.Notifier) *HealthHandler {
	checker, _ := notifier.(connChecker)
	return &HealthHandler{
		db:        db,
		gatherers: gatherers,
		notifier:  checker,
		startTime: time.Now(),
	}
}

// Health reports overall service health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dbStatus := "connected"
	if err := h.db.HealthCheck(ctx); err != nil {
		dbStatus = "disconnected"
	}

	notifyStatus := "disconnected"
	if h.notifier != nil && h.notifier.IsConnected() {
		notifyStatus = "connected"
	}

	resp := map[string]any{
		"status":          "healthy",
		"database":        dbStatus,
		"event_bus":       notifyStatus,
		"notebook_count":  len(h.gatherers.NotebookIDs()),
		"uptime_seconds":  int(time.Since(h.startTime).Seconds()),
	}
	if dbStatus == "disconnected" {
		resp["status"] = "degraded"
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
