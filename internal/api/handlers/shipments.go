package handlers

import (
	"net/http"
	"shipment-tracking-service/internal/api/dto"
	"shipment-tracking-service/internal/domain"
	"shipment-tracking-service/internal/ports"
	"shipment-tracking-service/internal/services"
	"strconv"
	"strings"
)

type ShipmentHandler struct {
	Service *services.ShipmentService
}

func (h *ShipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateShipmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s, err := h.Service.Create(r.Context(), req.ToService())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", "/shipments/"+s.ID)
	writeJSON(w, r, http.StatusCreated, dto.FromShipment(s))
}

func (h *ShipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.Service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromShipment(s))
}

// List supports ?status=, ?sort=created|eta and ?limit= (max 100).
func (h *ShipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter ports.ShipmentFilter

	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		st, err := domain.ParseStatus(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "unknown status")
			return
		}
		filter.Status = st
	}

	switch sort := ports.SortOrder(strings.ToLower(q.Get("sort"))); sort {
	case "", ports.SortCreatedDesc, ports.SortETAAsc:
		filter.Sort = sort
	default:
		writeError(w, r, http.StatusBadRequest, "sort must be created or eta")
		return
	}

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		filter.Limit = n
	}

	list, err := h.Service.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.ListShipmentResponse{Shipments: make([]dto.ShipmentResponse, 0, len(list))}
	for _, s := range list {
		res.Shipments = append(res.Shipments, dto.FromShipment(s))
	}
	res.Count = len(res.Shipments)
	writeJSON(w, r, http.StatusOK, res)
}

func (h *ShipmentHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req dto.LocationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	update, err := h.Service.UpdateLocation(r.Context(), r.PathValue("id"), req.Sample())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromLocationUpdate(update))
}

func (h *ShipmentHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateDetailsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Cargo == nil && req.WeightKg == nil {
		writeError(w, r, http.StatusBadRequest, "cargo or weightKg is required")
		return
	}

	s, err := h.Service.UpdateDetails(r.Context(), r.PathValue("id"), req.Cargo, req.WeightKg)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromShipment(s))
}

func (h *ShipmentHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.StatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	st, err := domain.ParseStatus(req.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s, err := h.Service.SetStatus(r.Context(), r.PathValue("id"), st)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromShipment(s))
}

func (h *ShipmentHandler) ReleaseStatus(w http.ResponseWriter, r *http.Request) {
	s, err := h.Service.ReleaseOverride(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromShipment(s))
}

func (h *ShipmentHandler) GetETA(w http.ResponseWriter, r *http.Request) {
	view, err := h.Service.GetETA(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromETAView(view))
}

func (h *ShipmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
