package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/labcita/scheduling/internal/api/handlers"
	"github.com/labcita/scheduling/internal/application/services"
	"github.com/labcita/scheduling/internal/domain/entities"
	apperrors "github.com/labcita/scheduling/pkg/errors"
)

type stubSlotService struct {
	inserted int
	slots    []*entities.Slot
	slot     *entities.Slot
	err      error

	lastGenerate services.GenerateSlotsRequest
	lastFilter   services.AvailabilityFilter
	deactivated  []string
}

func (s *stubSlotService) GenerateSlots(ctx context.Context, req services.GenerateSlotsRequest) (int, error) {
	s.lastGenerate = req
	return s.inserted, s.err
}

func (s *stubSlotService) ListAvailableSlots(ctx context.Context, filter services.AvailabilityFilter) ([]*entities.Slot, error) {
	s.lastFilter = filter
	return s.slots, s.err
}

func (s *stubSlotService) GetSlot(ctx context.Context, id string) (*entities.Slot, error) {
	return s.slot, s.err
}

func (s *stubSlotService) DeactivateSlot(ctx context.Context, id string) error {
	s.deactivated = append(s.deactivated, id)
	return s.err
}

func TestSlotHandler_GenerateSlots(t *testing.T) {
	t.Run("returns the inserted count", func(t *testing.T) {
		service := &stubSlotService{inserted: 90}
		handler := handlers.NewSlotHandler(service)

		body := `{"service_id":"svc-1","location_id":"loc-1","date_from":"2025-01-01","date_to":"2025-01-07","step_minutes":30,"capacity_per_slot":3}`
		req := httptest.NewRequest("POST", "/api/slots/generate", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler.GenerateSlots(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "svc-1", service.lastGenerate.ServiceID)
		assert.Equal(t, 30, service.lastGenerate.StepMinutes)

		var response map[string]int
		assert.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, 90, response["inserted"])
	})

	t.Run("maps invalid range to 400", func(t *testing.T) {
		service := &stubSlotService{err: apperrors.NewSchedulingError(apperrors.ErrorTypeInvalidRange, "date_from must be before date_to")}
		handler := handlers.NewSlotHandler(service)

		body := `{"service_id":"svc-1","location_id":"loc-1","date_from":"2025-02-01","date_to":"2025-01-01","step_minutes":30,"capacity_per_slot":1}`
		req := httptest.NewRequest("POST", "/api/slots/generate", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler.GenerateSlots(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("maps unknown service to 404", func(t *testing.T) {
		service := &stubSlotService{err: apperrors.NewSchedulingError(apperrors.ErrorTypeUnknownService, "service ghost does not exist")}
		handler := handlers.NewSlotHandler(service)

		body := `{"service_id":"ghost","location_id":"loc-1","date_from":"2025-01-01","date_to":"2025-01-07","step_minutes":30,"capacity_per_slot":1}`
		req := httptest.NewRequest("POST", "/api/slots/generate", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler.GenerateSlots(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("accepts an inline template", func(t *testing.T) {
		service := &stubSlotService{inserted: 1}
		handler := handlers.NewSlotHandler(service)

		body := `{"service_id":"svc-1","location_id":"loc-1","date_from":"2025-01-06","date_to":"2025-01-06","step_minutes":45,"capacity_per_slot":1,"template":{"days":{"1":[{"start":"09:00","end":"10:15"}]}}}`
		req := httptest.NewRequest("POST", "/api/slots/generate", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler.GenerateSlots(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotNil(t, service.lastGenerate.Template)
	})
}

func TestSlotHandler_ListSlots(t *testing.T) {
	service := &stubSlotService{slots: []*entities.Slot{{ID: "slot-1"}, {ID: "slot-2"}}}
	handler := handlers.NewSlotHandler(service)

	req := httptest.NewRequest("GET", "/api/slots?service_id=svc-1&location_id=loc-1&date_from=2025-01-01&date_to=2025-01-07&limit=50", nil)
	w := httptest.NewRecorder()

	handler.ListSlots(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "svc-1", service.lastFilter.ServiceID)
	assert.Equal(t, "2025-01-07", service.lastFilter.DateTo)
	assert.Equal(t, 50, service.lastFilter.Limit)

	var response map[string]interface{}
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, float64(2), response["count"])
}

func TestSlotHandler_DeleteSlot(t *testing.T) {
	t.Run("returns 204 on success", func(t *testing.T) {
		service := &stubSlotService{}
		handler := handlers.NewSlotHandler(service)

		req := httptest.NewRequest("DELETE", "/api/slots/slot-1", nil)
		req.SetPathValue("id", "slot-1")
		w := httptest.NewRecorder()

		handler.DeleteSlot(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, []string{"slot-1"}, service.deactivated)
	})

	t.Run("maps not found to 404", func(t *testing.T) {
		service := &stubSlotService{err: apperrors.NewNotFoundError("slot not found")}
		handler := handlers.NewSlotHandler(service)

		req := httptest.NewRequest("DELETE", "/api/slots/ghost", nil)
		req.SetPathValue("id", "ghost")
		w := httptest.NewRecorder()

		handler.DeleteSlot(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
