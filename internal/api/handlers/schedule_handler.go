package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labcita/scheduling/internal/domain/entities"
)

// ScheduleService defines the template and holiday operations the handlers need
type ScheduleService interface {
	SaveWeeklyTemplate(ctx context.Context, serviceID, locationID string, template *entities.WeeklyTemplate) error
	GetWeeklyTemplate(ctx context.Context, serviceID, locationID string) (*entities.WeeklyTemplate, error)
	UpsertHoliday(ctx context.Context, date, label string, scope entities.HolidayScope) error
	ListHolidays(ctx context.Context, from, to string) ([]*entities.HolidayEntry, error)
}

// ScheduleHandler handles weekly template and holiday calendar requests
type ScheduleHandler struct {
	service ScheduleService
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(service ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{
		service: service,
	}
}

type saveTemplateRequest struct {
	ServiceID  string                   `json:"service_id,omitempty"`
	LocationID string                   `json:"location_id,omitempty"`
	Template   *entities.WeeklyTemplate `json:"template"`
}

// SaveTemplate handles PUT /api/schedule/template. Omitting service_id and
// location_id updates the global default template.
func (h *ScheduleHandler) SaveTemplate(w http.ResponseWriter, r *http.Request) {
	var req saveTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if req.Template == nil {
		respondWithError(w, http.StatusBadRequest, "template is required")
		return
	}

	if err := h.service.SaveWeeklyTemplate(r.Context(), req.ServiceID, req.LocationID, req.Template); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"status": "saved",
	})
}

// GetTemplate handles GET /api/schedule/template
func (h *ScheduleHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	template, err := h.service.GetWeeklyTemplate(r.Context(), query.Get("service_id"), query.Get("location_id"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, template)
}

type upsertHolidayRequest struct {
	Date  string                `json:"date"`
	Label string                `json:"label"`
	Scope entities.HolidayScope `json:"scope,omitempty"`
}

// UpsertHoliday handles POST /api/schedule/holidays
func (h *ScheduleHandler) UpsertHoliday(w http.ResponseWriter, r *http.Request) {
	var req upsertHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if err := h.service.UpsertHoliday(r.Context(), req.Date, req.Label, req.Scope); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"status": "saved",
	})
}

// ListHolidays handles GET /api/schedule/holidays. Without an explicit range
// it returns the next twelve months.
func (h *ScheduleHandler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	from := query.Get("from")
	to := query.Get("to")
	if from == "" {
		from = time.Now().Format(entities.CivilDateLayout)
	}
	if to == "" {
		to = time.Now().AddDate(1, 0, 0).Format(entities.CivilDateLayout)
	}

	holidays, err := h.service.ListHolidays(r.Context(), from, to)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"holidays": holidays,
		"count":    len(holidays),
	})
}
