package api

import (
	"net/http"
	"shipment-tracking-service/internal/api/handlers"
	"shipment-tracking-service/internal/platform/obs"
	"shipment-tracking-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete adapters.
func NewRouter(svc *services.ShipmentService) http.Handler {
	mux := http.NewServeMux()

	h := &handlers.ShipmentHandler{Service: svc}

	mux.HandleFunc("GET /health", handlers.Health)
	mux.Handle("GET /metrics", obs.MetricsHandler())

	mux.HandleFunc("POST /shipments", h.Create)
	mux.HandleFunc("GET /shipments", h.List)
	mux.HandleFunc("GET /shipments/{id}", h.Get)
	mux.HandleFunc("PATCH /shipments/{id}", h.UpdateDetails)
	mux.HandleFunc("DELETE /shipments/{id}", h.Delete)
	mux.HandleFunc("POST /shipments/{id}/location", h.UpdateLocation)
	mux.HandleFunc("PUT /shipments/{id}/status", h.SetStatus)
	mux.HandleFunc("DELETE /shipments/{id}/status", h.ReleaseStatus)
	mux.HandleFunc("GET /shipments/{id}/eta", h.GetETA)

	return requestIDMiddleware(loggingMiddleware(mux))
}
