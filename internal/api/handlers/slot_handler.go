package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labcita/scheduling/internal/application/services"
	"github.com/labcita/scheduling/internal/domain/entities"
)

// SlotService defines the slot operations the handlers need
type SlotService interface {
	GenerateSlots(ctx context.Context, req services.GenerateSlotsRequest) (int, error)
	ListAvailableSlots(ctx context.Context, filter services.AvailabilityFilter) ([]*entities.Slot, error)
	GetSlot(ctx context.Context, id string) (*entities.Slot, error)
	DeactivateSlot(ctx context.Context, id string) error
}

// SlotHandler handles slot requests
type SlotHandler struct {
	service SlotService
}

// NewSlotHandler creates a new slot handler
func NewSlotHandler(service SlotService) *SlotHandler {
	return &SlotHandler{
		service: service,
	}
}

type generateSlotsRequest struct {
	ServiceID       string                   `json:"service_id"`
	LocationID      string                   `json:"location_id"`
	DateFrom        string                   `json:"date_from"`
	DateTo          string                   `json:"date_to"`
	StepMinutes     int                      `json:"step_minutes"`
	CapacityPerSlot int                      `json:"capacity_per_slot"`
	Template        *entities.WeeklyTemplate `json:"template,omitempty"`
}

// GenerateSlots handles POST /api/slots/generate
func (h *SlotHandler) GenerateSlots(w http.ResponseWriter, r *http.Request) {
	var req generateSlotsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	inserted, err := h.service.GenerateSlots(r.Context(), services.GenerateSlotsRequest{
		ServiceID:       req.ServiceID,
		LocationID:      req.LocationID,
		DateFrom:        req.DateFrom,
		DateTo:          req.DateTo,
		StepMinutes:     req.StepMinutes,
		CapacityPerSlot: req.CapacityPerSlot,
		Template:        req.Template,
	})
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"inserted": inserted,
	})
}

// ListSlots handles GET /api/slots
func (h *SlotHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := services.AvailabilityFilter{
		ServiceID:  query.Get("service_id"),
		LocationID: query.Get("location_id"),
		DateFrom:   query.Get("date_from"),
		DateTo:     query.Get("date_to"),
	}
	if limit := query.Get("limit"); limit != "" {
		if parsed, err := strconv.Atoi(limit); err == nil {
			filter.Limit = parsed
		}
	}
	if offset := query.Get("offset"); offset != "" {
		if parsed, err := strconv.Atoi(offset); err == nil {
			filter.Offset = parsed
		}
	}

	slots, err := h.service.ListAvailableSlots(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"slots": slots,
		"count": len(slots),
	})
}

// GetSlot handles GET /api/slots/{id}
func (h *SlotHandler) GetSlot(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "slot ID is required")
		return
	}

	slot, err := h.service.GetSlot(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, slot)
}

// DeleteSlot handles DELETE /api/slots/{id}
func (h *SlotHandler) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "slot ID is required")
		return
	}

	if err := h.service.DeactivateSlot(r.Context(), id); err != nil {
		respondWithAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
