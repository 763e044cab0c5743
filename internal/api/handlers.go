package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// Triggers is the slice of the producer the API exposes
type Triggers interface {
	TriggerDailyValuations(ctx context.Context) (int, error)
	TriggerPriceAlertScan(ctx context.Context) (int, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	triggers Triggers
}

// NewHandler creates a new Handler
func NewHandler(triggers Triggers) *Handler {
	return &Handler{triggers: triggers}
}

// TriggerDailyValuations handles POST /triggers/daily-valuations
func (h *Handler) TriggerDailyValuations(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.triggers.TriggerDailyValuations(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]int{"jobs_enqueued": jobs})
}

// TriggerPriceAlerts handles POST /triggers/price-alerts
func (h *Handler) TriggerPriceAlerts(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.triggers.TriggerPriceAlertScan(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]int{"jobs_enqueued": jobs})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
