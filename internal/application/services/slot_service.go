package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/labcita/scheduling/internal/domain/entities"
	"github.com/labcita/scheduling/internal/domain/repositories"
	"github.com/labcita/scheduling/pkg/config"
	apperrors "github.com/labcita/scheduling/pkg/errors"
)

// GenerateSlotsRequest describes one slot materialization call. Dates are
// civil dates (entities.CivilDateLayout) and the range is inclusive on both
// ends. Template, when nil, falls back to the persisted template for the
// service/location pair, then the persisted global default, then the
// built-in default.
type GenerateSlotsRequest struct {
	ServiceID       string
	LocationID      string
	DateFrom        string
	DateTo          string
	StepMinutes     int
	CapacityPerSlot int
	Template        *entities.WeeklyTemplate
}

// AvailabilityFilter restricts an availability listing
type AvailabilityFilter struct {
	ServiceID  string
	LocationID string
	DateFrom   string
	DateTo     string
	Limit      int
	Offset     int
}

// SlotService generates bookable slots from the weekly template and the
// holiday calendar, and serves slot listings and slot administration.
type SlotService struct {
	slotRepo     repositories.SlotRepository
	scheduleRepo repositories.ScheduleRepository
	serviceRepo  repositories.ServiceRepository
	locationRepo repositories.LocationRepository
	cfg          config.SchedulingConfig
}

// NewSlotService creates a new slot service
func NewSlotService(
	slotRepo repositories.SlotRepository,
	scheduleRepo repositories.ScheduleRepository,
	serviceRepo repositories.ServiceRepository,
	locationRepo repositories.LocationRepository,
	cfg config.SchedulingConfig,
) *SlotService {
	return &SlotService{
		slotRepo:     slotRepo,
		scheduleRepo: scheduleRepo,
		serviceRepo:  serviceRepo,
		locationRepo: locationRepo,
		cfg:          cfg,
	}
}

// GenerateSlots expands the request into discrete slot records and persists
// the ones that do not exist yet. It returns how many slots were actually
// inserted; re-running over an overlapping range inserts nothing new.
//
// Days are iterated on the civil calendar on purpose: slot boundaries must
// stay aligned to the clinic's local calendar regardless of the server's
// time zone.
func (s *SlotService) GenerateSlots(ctx context.Context, req GenerateSlotsRequest) (int, error) {
	from, err := time.ParseInLocation(entities.CivilDateLayout, req.DateFrom, time.Local)
	if err != nil {
		return 0, apperrors.NewValidationError(fmt.Sprintf("invalid date_from %q: expected %s", req.DateFrom, entities.CivilDateLayout))
	}
	to, err := time.ParseInLocation(entities.CivilDateLayout, req.DateTo, time.Local)
	if err != nil {
		return 0, apperrors.NewValidationError(fmt.Sprintf("invalid date_to %q: expected %s", req.DateTo, entities.CivilDateLayout))
	}
	if !from.Before(to) {
		return 0, apperrors.NewSchedulingError(apperrors.ErrorTypeInvalidRange,
			fmt.Sprintf("date_from %s must be before date_to %s", req.DateFrom, req.DateTo))
	}
	if req.StepMinutes < 1 {
		return 0, apperrors.NewValidationError("step_minutes must be at least 1")
	}
	if req.CapacityPerSlot < 1 {
		return 0, apperrors.NewValidationError("capacity_per_slot must be at least 1")
	}

	if err := s.resolveService(ctx, req); err != nil {
		return 0, err
	}
	if err := s.resolveLocation(ctx, req); err != nil {
		return 0, err
	}

	template, err := s.resolveTemplate(ctx, req)
	if err != nil {
		return 0, err
	}

	holidays, err := s.holidaySet(ctx, req.DateFrom, req.DateTo)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	var candidates []*entities.Slot
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if _, isHoliday := holidays[day.Format(entities.CivilDateLayout)]; isHoliday {
			continue
		}

		for _, tr := range template.RangesFor(day.Weekday()) {
			startMin, endMin, err := tr.Minutes()
			if err != nil {
				return 0, apperrors.NewInternalError("invalid time range in template", err)
			}

			// A trailing period shorter than the step is dropped,
			// never padded past the range end. Boundaries are built
			// as wall-clock times, not offsets from midnight, so a
			// 07:00 range still opens at 07:00 on DST transition
			// days.
			for m := startMin; m+req.StepMinutes <= endMin; m += req.StepMinutes {
				candidates = append(candidates, &entities.Slot{
					ID:         uuid.New().String(),
					ServiceID:  req.ServiceID,
					LocationID: req.LocationID,
					StartTime:  time.Date(day.Year(), day.Month(), day.Day(), 0, m, 0, 0, day.Location()),
					EndTime:    time.Date(day.Year(), day.Month(), day.Day(), 0, m+req.StepMinutes, 0, 0, day.Location()),
					Capacity:   req.CapacityPerSlot,
					Reserved:   0,
					Active:     true,
					CreatedAt:  now,
					UpdatedAt:  now,
				})
			}
		}

		if max := s.cfg.MaxSlotsPerGeneration; max > 0 && len(candidates) > max {
			return 0, apperrors.NewValidationError(
				fmt.Sprintf("range would materialize more than %d slots, narrow the date range", max))
		}
	}

	return s.slotRepo.InsertNew(ctx, candidates)
}

func (s *SlotService) resolveService(ctx context.Context, req GenerateSlotsRequest) error {
	_, err := s.serviceRepo.GetByID(ctx, req.ServiceID)
	if err == nil {
		return nil
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		return err
	}
	if !s.cfg.AutoProvisionCatalog {
		return apperrors.NewSchedulingError(apperrors.ErrorTypeUnknownService,
			fmt.Sprintf("service %s does not exist", req.ServiceID))
	}

	now := time.Now()
	return s.serviceRepo.Create(ctx, &entities.Service{
		ID:                 req.ServiceID,
		Name:               fmt.Sprintf("Service %s", req.ServiceID),
		DefaultStepMinutes: req.StepMinutes,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
}

func (s *SlotService) resolveLocation(ctx context.Context, req GenerateSlotsRequest) error {
	_, err := s.locationRepo.GetByID(ctx, req.LocationID)
	if err == nil {
		return nil
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		return err
	}
	if !s.cfg.AutoProvisionCatalog {
		return apperrors.NewSchedulingError(apperrors.ErrorTypeUnknownLocation,
			fmt.Sprintf("location %s does not exist", req.LocationID))
	}

	now := time.Now()
	return s.locationRepo.Create(ctx, &entities.Location{
		ID:        req.LocationID,
		Name:      fmt.Sprintf("Location %s", req.LocationID),
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *SlotService) resolveTemplate(ctx context.Context, req GenerateSlotsRequest) (*entities.WeeklyTemplate, error) {
	if req.Template != nil {
		if err := req.Template.Validate(); err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("invalid template: %v", err))
		}
		return req.Template, nil
	}

	template, err := s.scheduleRepo.GetWeeklyTemplate(ctx, req.ServiceID, req.LocationID)
	if err != nil {
		return nil, err
	}
	if template != nil {
		return template, nil
	}

	template, err = s.scheduleRepo.GetWeeklyTemplate(ctx, "", "")
	if err != nil {
		return nil, err
	}
	if template != nil {
		return template, nil
	}

	return entities.DefaultWeeklyTemplate(), nil
}

func (s *SlotService) holidaySet(ctx context.Context, from, to string) (map[string]struct{}, error) {
	entries, err := s.scheduleRepo.ListHolidays(ctx, from, to)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		set[entry.Date] = struct{}{}
	}
	return set, nil
}

// ListAvailableSlots returns active, future slots with remaining capacity
func (s *SlotService) ListAvailableSlots(ctx context.Context, filter AvailabilityFilter) ([]*entities.Slot, error) {
	if filter.ServiceID == "" {
		return nil, apperrors.NewValidationError("service_id is required")
	}

	repoFilter := repositories.SlotFilter{
		ServiceID:     filter.ServiceID,
		LocationID:    filter.LocationID,
		OnlyAvailable: true,
		Limit:         filter.Limit,
		Offset:        filter.Offset,
	}

	if filter.DateFrom != "" {
		from, err := time.ParseInLocation(entities.CivilDateLayout, filter.DateFrom, time.Local)
		if err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("invalid date_from %q", filter.DateFrom))
		}
		repoFilter.From = &from
	}
	if filter.DateTo != "" {
		to, err := time.ParseInLocation(entities.CivilDateLayout, filter.DateTo, time.Local)
		if err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("invalid date_to %q", filter.DateTo))
		}
		end := to.AddDate(0, 0, 1)
		repoFilter.To = &end
	}

	return s.slotRepo.List(ctx, repoFilter)
}

// GetSlot retrieves a slot by ID
func (s *SlotService) GetSlot(ctx context.Context, id string) (*entities.Slot, error) {
	return s.slotRepo.GetByID(ctx, id)
}

// DeactivateSlot removes a slot from availability. Slots with booking history
// are soft-deleted so the history survives; slots nothing ever referenced are
// hard-deleted.
func (s *SlotService) DeactivateSlot(ctx context.Context, id string) error {
	hasBookings, err := s.slotRepo.HasBookings(ctx, id)
	if err != nil {
		return err
	}
	if hasBookings {
		return s.slotRepo.Deactivate(ctx, id)
	}
	return s.slotRepo.Delete(ctx, id)
}

// SaveWeeklyTemplate validates and persists a weekly template. Already
// generated slots are not recomputed.
func (s *SlotService) SaveWeeklyTemplate(ctx context.Context, serviceID, locationID string, template *entities.WeeklyTemplate) error {
	if err := template.Validate(); err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("invalid template: %v", err))
	}
	return s.scheduleRepo.SaveWeeklyTemplate(ctx, serviceID, locationID, template)
}

// GetWeeklyTemplate returns the effective template for a service/location
// pair: the persisted pair template, the persisted global default, or the
// built-in default, in that order.
func (s *SlotService) GetWeeklyTemplate(ctx context.Context, serviceID, locationID string) (*entities.WeeklyTemplate, error) {
	template, err := s.scheduleRepo.GetWeeklyTemplate(ctx, serviceID, locationID)
	if err != nil {
		return nil, err
	}
	if template != nil {
		return template, nil
	}

	template, err = s.scheduleRepo.GetWeeklyTemplate(ctx, "", "")
	if err != nil {
		return nil, err
	}
	if template != nil {
		return template, nil
	}

	return entities.DefaultWeeklyTemplate(), nil
}

// UpsertHoliday inserts or updates a holiday calendar entry
func (s *SlotService) UpsertHoliday(ctx context.Context, date, label string, scope entities.HolidayScope) error {
	if _, err := time.ParseInLocation(entities.CivilDateLayout, date, time.Local); err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("invalid date %q: expected %s", date, entities.CivilDateLayout))
	}
	if label == "" {
		return apperrors.NewValidationError("label is required")
	}
	if scope == "" {
		scope = entities.HolidayScopeGlobal
	}

	return s.scheduleRepo.UpsertHoliday(ctx, &entities.HolidayEntry{
		Date:  date,
		Label: label,
		Scope: scope,
	})
}

// ListHolidays returns the holiday entries in [from, to]
func (s *SlotService) ListHolidays(ctx context.Context, from, to string) ([]*entities.HolidayEntry, error) {
	if _, err := time.ParseInLocation(entities.CivilDateLayout, from, time.Local); err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid from date %q", from))
	}
	if _, err := time.ParseInLocation(entities.CivilDateLayout, to, time.Local); err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid to date %q", to))
	}
	return s.scheduleRepo.ListHolidays(ctx, from, to)
}
