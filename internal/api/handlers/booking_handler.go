package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labcita/scheduling/internal/application/services"
	"github.com/labcita/scheduling/internal/domain/entities"
	"github.com/labcita/scheduling/internal/domain/repositories"
)

// BookingService defines the booking operations the handlers need
type BookingService interface {
	Create(ctx context.Context, req services.CreateBookingRequest) (*entities.Booking, error)
	Cancel(ctx context.Context, bookingID, reason, actor string) (*entities.Booking, error)
	Reschedule(ctx context.Context, bookingID, newSlotID string) (*entities.Booking, error)
	Confirm(ctx context.Context, bookingID string) (*entities.Booking, error)
	GetBooking(ctx context.Context, id string) (*entities.Booking, error)
	ListPatientBookings(ctx context.Context, patientID string, filter repositories.BookingFilter) ([]*entities.Booking, error)
}

// BookingHandler handles booking requests
type BookingHandler struct {
	service BookingService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(service BookingService) *BookingHandler {
	return &BookingHandler{
		service: service,
	}
}

type createBookingRequest struct {
	SlotID    string `json:"slot_id"`
	PatientID string `json:"patient_id"`
	Notes     string `json:"notes,omitempty"`
}

// CreateBooking handles POST /api/bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	booking, err := h.service.Create(r.Context(), services.CreateBookingRequest{
		SlotID:    req.SlotID,
		PatientID: req.PatientID,
		Notes:     req.Notes,
	})
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, booking)
}

// GetBooking handles GET /api/bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "booking ID is required")
		return
	}

	booking, err := h.service.GetBooking(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, booking)
}

type cancelBookingRequest struct {
	Reason string `json:"reason,omitempty"`
	Actor  string `json:"actor,omitempty"`
}

// CancelBooking handles POST /api/bookings/{id}/cancel
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "booking ID is required")
		return
	}

	// The body is optional; cancelling without a reason is allowed.
	var req cancelBookingRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	booking, err := h.service.Cancel(r.Context(), id, req.Reason, req.Actor)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, booking)
}

type rescheduleBookingRequest struct {
	NewSlotID string `json:"new_slot_id"`
}

// RescheduleBooking handles POST /api/bookings/{id}/reschedule
func (h *BookingHandler) RescheduleBooking(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "booking ID is required")
		return
	}

	var req rescheduleBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	booking, err := h.service.Reschedule(r.Context(), id, req.NewSlotID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, booking)
}

// ConfirmBooking handles POST /api/bookings/{id}/confirm
func (h *BookingHandler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "booking ID is required")
		return
	}

	booking, err := h.service.Confirm(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, booking)
}

// ListPatientBookings handles GET /api/patients/{id}/bookings
func (h *BookingHandler) ListPatientBookings(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("id")
	if patientID == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	query := r.URL.Query()
	filter := repositories.BookingFilter{
		Status: entities.BookingStatus(query.Get("status")),
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

	bookings, err := h.service.ListPatientBookings(r.Context(), patientID, filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": bookings,
		"count":    len(bookings),
	})
}
