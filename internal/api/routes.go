package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes. The trigger endpoints exist so any
// external cron mechanism can invoke the producer over HTTP.
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/triggers/daily-valuations", handler.TriggerDailyValuations).Methods("POST")
	api.HandleFunc("/triggers/price-alerts", handler.TriggerPriceAlerts).Methods("POST")

	return r
}
