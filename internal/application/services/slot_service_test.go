package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/labcita/scheduling/internal/application/services"
	"github.com/labcita/scheduling/internal/domain/entities"
	"github.com/labcita/scheduling/internal/domain/repositories"
	"github.com/labcita/scheduling/pkg/config"
	apperrors "github.com/labcita/scheduling/pkg/errors"
)

func newSlotService(slotRepo *MockSlotRepository, scheduleRepo *MockScheduleRepository, serviceRepo *MockServiceRepository, locationRepo *MockLocationRepository, cfg config.SchedulingConfig) *services.SlotService {
	return services.NewSlotService(slotRepo, scheduleRepo, serviceRepo, locationRepo, cfg)
}

func defaultSchedulingConfig() config.SchedulingConfig {
	return config.SchedulingConfig{
		TxTimeout:             10 * time.Second,
		MaxSlotsPerGeneration: 5000,
		CreateRetryAttempts:   3,
	}
}

func TestSlotService_GenerateSlots(t *testing.T) {
	service := &entities.Service{ID: "svc-1", Name: "Blood Panel", DefaultStepMinutes: 30}
	location := &entities.Location{ID: "loc-1", Name: "Downtown Lab"}

	t.Run("generates a week of slots skipping the holiday", func(t *testing.T) {
		// Arrange
		slotRepo := new(MockSlotRepository)
		scheduleRepo := new(MockScheduleRepository)
		serviceRepo := new(MockServiceRepository)
		locationRepo := new(MockLocationRepository)
		svc := newSlotService(slotRepo, scheduleRepo, serviceRepo, locationRepo, defaultSchedulingConfig())

		serviceRepo.On("GetByID", mock.Anything, "svc-1").Return(service, nil)
		locationRepo.On("GetByID", mock.Anything, "loc-1").Return(location, nil)
		scheduleRepo.On("GetWeeklyTemplate", mock.Anything, "svc-1", "loc-1").Return(nil, nil)
		scheduleRepo.On("GetWeeklyTemplate", mock.Anything, "", "").Return(nil, nil)
		scheduleRepo.On("ListHolidays", mock.Anything, "2025-01-01", "2025-01-07").Return([]*entities.HolidayEntry{
			{Date: "2025-01-01", Label: "New Year's Day", Scope: entities.HolidayScopeGlobal},
		}, nil)

		// 2025-01-01 is a Wednesday. With the built-in template and a 30
		// minute step: Thu, Fri, Sat, Mon, Tue contribute 16 slots each,
		// Sunday 10, the holiday Wednesday none. 5*16 + 10 = 90.
		slotRepo.On("InsertNew", mock.Anything, mock.MatchedBy(func(slots []*entities.Slot) bool {
			if len(slots) != 90 {
				return false
			}
			first := slots[0]
			return first.StartTime.Format("2006-01-02 15:04") == "2025-01-02 07:00" &&
				first.EndTime.Sub(first.StartTime) == 30*time.Minute &&
				first.Capacity == 3 &&
				first.Reserved == 0 &&
				first.Active
		})).Return(90, nil)

		// Act
		inserted, err := svc.GenerateSlots(context.Background(), services.GenerateSlotsRequest{
			ServiceID:       "svc-1",
			LocationID:      "loc-1",
			DateFrom:        "2025-01-01",
			DateTo:          "2025-01-07",
			StepMinutes:     30,
			CapacityPerSlot: 3,
		})

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, 90, inserted)
		slotRepo.AssertExpectations(t)
	})

	t.Run("drops trailing period shorter than the step", func(t *testing.T) {
		slotRepo := new(MockSlotRepository)
		scheduleRepo := new(MockScheduleRepository)
		serviceRepo := new(MockServiceRepository)
		locationRepo := new(MockLocationRepository)
		svc := newSlotService(slotRepo, scheduleRepo, serviceRepo, locationRepo, defaultSchedulingConfig())

		serviceRepo.On("GetByID", mock.Anything, "svc-1").Return(service, nil)
		locationRepo.On("GetByID", mock.Anything, "loc-1").Return(location, nil)
		scheduleRepo.On("ListHolidays", mock.Anything, "2025-01-06", "2025-01-06").Return([]*entities.HolidayEntry{}, nil)

		// Monday 09:00-10:15 with a 45 minute step yields exactly one
		// slot; 09:45-10:30 would overrun the range end.
		template := &entities.WeeklyTemplate{Days: map[time.Weekday][]entities.TimeRange{
			time.Monday: {{Start: "09:00", End: "10:15"}},
		}}

		slotRepo.On("InsertNew", mock.Anything, mock.MatchedBy(func(slots []*entities.Slot) bool {
			return len(slots) == 1 &&
				slots[0].StartTime.Format("15:04") == "09:00" &&
				slots[0].EndTime.Format("15:04") == "09:45"
		})).Return(1, nil)

		inserted, err := svc.GenerateSlots(context.Background(), services.GenerateSlotsRequest{
			ServiceID:       "svc-1",
			LocationID:      "loc-1",
			DateFrom:        "2025-01-06",
			DateTo:          "2025-01-06",
			StepMinutes:     45,
			CapacityPerSlot: 1,
			Template:        template,
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, inserted)
		slotRepo.AssertExpectations(t)
	})

	t.Run("keeps wall-clock boundaries on a DST transition day", func(t *testing.T) {
		loc, err := time.LoadLocation("America/New_York")
		require.NoError(t, err)
		previous := time.Local
		time.Local = loc
		defer func() { time.Local = previous }()

		slotRepo := new(MockSlotRepository)
		scheduleRepo := new(MockScheduleRepository)
		serviceRepo := new(MockServiceRepository)
		locationRepo := new(MockLocationRepository)
		svc := newSlotService(slotRepo, scheduleRepo, serviceRepo, locationRepo, defaultSchedulingConfig())

		serviceRepo.On("GetByID", mock.Anything, "svc-1").Return(service, nil)
		locationRepo.On("GetByID", mock.Anything, "loc-1").Return(location, nil)
		scheduleRepo.On("ListHolidays", mock.Anything, "2025-03-09", "2025-03-09").Return([]*entities.HolidayEntry{}, nil)

		// 2025-03-09 springs forward at 02:00 in New York. The 07:00
		// range must still open at 07:00 local, not drift to 08:00 by
		// counting elapsed hours from midnight.
		template := &entities.WeeklyTemplate{Days: map[time.Weekday][]entities.TimeRange{
			time.Sunday: {{Start: "07:00", End: "09:00"}},
		}}

		slotRepo.On("InsertNew", mock.Anything, mock.MatchedBy(func(slots []*entities.Slot) bool {
			return len(slots) == 2 &&
				slots[0].StartTime.Format("2006-01-02 15:04") == "2025-03-09 07:00" &&
				slots[0].EndTime.Format("15:04") == "08:00" &&
				slots[1].StartTime.Format("15:04") == "08:00" &&
				slots[1].EndTime.Format("15:04") == "09:00"
		})).Return(2, nil)

		inserted, err := svc.GenerateSlots(context.Background(), services.GenerateSlotsRequest{
			ServiceID:       "svc-1",
			LocationID:      "loc-1",
			DateFrom:        "2025-03-09",
			DateTo:          "2025-03-09",
			StepMinutes:     60,
			CapacityPerSlot: 1,
			Template:        template,
		})

		assert.NoError(t, err)
		assert.Equal(t, 2, inserted)
		slotRepo.AssertExpectations(t)
	})

	t.Run("rejects inverted date range", func(t *testing.T) {
		svc := newSlotService(new(MockSlotRepository), new(MockScheduleRepository), new(MockServiceRepository), new(MockLocationRepository), defaultSchedulingConfig())

		_, err := svc.GenerateSlots(context.Background(), services.GenerateSlotsRequest{
			ServiceID:       "svc-1",
			LocationID:      "loc-1",
			DateFrom:        "2025-02-01",
			DateTo:          "2025-01-01",
			StepMinutes:     30,
			CapacityPerSlot: 1,
		})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidRange))
	})

	t.Run("rejects malformed date", func(t *testing.T) {
		svc := newSlotService(new(MockSlotRepository), new(MockScheduleRepository), new(MockServiceRepository), new(MockLocationRepository), defaultSchedulingConfig())

		_, err := svc.GenerateSlots(context.Background(), services.GenerateSlotsRequest{
			ServiceID:       "svc-1",
			LocationID:      "loc-1",
			DateFrom:        "01/01/2025",
			DateTo:          "2025-01-07",
			StepMinutes:     30,
			CapacityPerSlot: 1,
		})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("rejects unknown service when auto provisioning is off", func(t *testing.T) {
		slotRepo := new(MockSlotRepository)
		serviceRepo := new(MockServiceRepository)
		svc := newSlotService(slotRepo, new(MockScheduleRepository), serviceRepo, new(MockLocationRepository), defaultSchedulingConfig())

		serviceRepo.On("GetByID", mock.Anything, "ghost").Return(nil, apperrors.NewNotFoundError("service not found"))

		_, err := svc.GenerateSlots(context.Background(), services.GenerateSlotsRequest{
			ServiceID:       "ghost",
			LocationID:      "loc-1",
			DateFrom:        "2025-01-01",
			DateTo:          "2025-01-07",
			StepMinutes:     30,
			CapacityPerSlot: 1,
		})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnknownService))
		slotRepo.AssertNotCalled(t, "InsertNew", mock.Anything, mock.Anything)
	})

	t.Run("provisions missing catalog rows when enabled", func(t *testing.T) {
		slotRepo := new(MockSlotRepository)
		scheduleRepo := new(MockScheduleRepository)
		serviceRepo := new(MockServiceRepository)
		locationRepo := new(MockLocationRepository)
		cfg := defaultSchedulingConfig()
		cfg.AutoProvisionCatalog = true
		svc := newSlotService(slotRepo, scheduleRepo, serviceRepo, locationRepo, cfg)

		serviceRepo.On("GetByID", mock.Anything, "new-svc").Return(nil, apperrors.NewNotFoundError("service not found"))
		serviceRepo.On("Create", mock.Anything, mock.MatchedBy(func(s *entities.Service) bool {
			return s.ID == "new-svc" && s.DefaultStepMinutes == 30
		})).Return(nil)
		locationRepo.On("GetByID", mock.Anything, "loc-1").Return(location, nil)
		scheduleRepo.On("GetWeeklyTemplate", mock.Anything, "new-svc", "loc-1").Return(nil, nil)
		scheduleRepo.On("GetWeeklyTemplate", mock.Anything, "", "").Return(nil, nil)
		scheduleRepo.On("ListHolidays", mock.Anything, "2025-01-06", "2025-01-06").Return([]*entities.HolidayEntry{}, nil)
		slotRepo.On("InsertNew", mock.Anything, mock.Anything).Return(16, nil)

		inserted, err := svc.GenerateSlots(context.Background(), services.GenerateSlotsRequest{
			ServiceID:       "new-svc",
			LocationID:      "loc-1",
			DateFrom:        "2025-01-06",
			DateTo:          "2025-01-06",
			StepMinutes:     30,
			CapacityPerSlot: 2,
		})

		assert.NoError(t, err)
		assert.Equal(t, 16, inserted)
		serviceRepo.AssertExpectations(t)
	})

	t.Run("reports zero inserted on an already generated range", func(t *testing.T) {
		slotRepo := new(MockSlotRepository)
		scheduleRepo := new(MockScheduleRepository)
		serviceRepo := new(MockServiceRepository)
		locationRepo := new(MockLocationRepository)
		svc := newSlotService(slotRepo, scheduleRepo, serviceRepo, locationRepo, defaultSchedulingConfig())

		serviceRepo.On("GetByID", mock.Anything, "svc-1").Return(service, nil)
		locationRepo.On("GetByID", mock.Anything, "loc-1").Return(location, nil)
		scheduleRepo.On("GetWeeklyTemplate", mock.Anything, "svc-1", "loc-1").Return(nil, nil)
		scheduleRepo.On("GetWeeklyTemplate", mock.Anything, "", "").Return(nil, nil)
		scheduleRepo.On("ListHolidays", mock.Anything, "2025-01-06", "2025-01-06").Return([]*entities.HolidayEntry{}, nil)
		slotRepo.On("InsertNew", mock.Anything, mock.Anything).Return(0, nil)

		inserted, err := svc.GenerateSlots(context.Background(), services.GenerateSlotsRequest{
			ServiceID:       "svc-1",
			LocationID:      "loc-1",
			DateFrom:        "2025-01-06",
			DateTo:          "2025-01-06",
			StepMinutes:     30,
			CapacityPerSlot: 2,
		})

		assert.NoError(t, err)
		assert.Equal(t, 0, inserted)
	})

	t.Run("caps how many slots one call can materialize", func(t *testing.T) {
		slotRepo := new(MockSlotRepository)
		scheduleRepo := new(MockScheduleRepository)
		serviceRepo := new(MockServiceRepository)
		locationRepo := new(MockLocationRepository)
		cfg := defaultSchedulingConfig()
		cfg.MaxSlotsPerGeneration = 50
		svc := newSlotService(slotRepo, scheduleRepo, serviceRepo, locationRepo, cfg)

		serviceRepo.On("GetByID", mock.Anything, "svc-1").Return(service, nil)
		locationRepo.On("GetByID", mock.Anything, "loc-1").Return(location, nil)
		scheduleRepo.On("GetWeeklyTemplate", mock.Anything, "svc-1", "loc-1").Return(nil, nil)
		scheduleRepo.On("GetWeeklyTemplate", mock.Anything, "", "").Return(nil, nil)
		scheduleRepo.On("ListHolidays", mock.Anything, "2025-01-01", "2025-01-07").Return([]*entities.HolidayEntry{}, nil)

		_, err := svc.GenerateSlots(context.Background(), services.GenerateSlotsRequest{
			ServiceID:       "svc-1",
			LocationID:      "loc-1",
			DateFrom:        "2025-01-01",
			DateTo:          "2025-01-07",
			StepMinutes:     30,
			CapacityPerSlot: 2,
		})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		slotRepo.AssertNotCalled(t, "InsertNew", mock.Anything, mock.Anything)
	})
}

func TestSlotService_ListAvailableSlots(t *testing.T) {
	t.Run("requires a service filter", func(t *testing.T) {
		svc := newSlotService(new(MockSlotRepository), new(MockScheduleRepository), new(MockServiceRepository), new(MockLocationRepository), defaultSchedulingConfig())

		_, err := svc.ListAvailableSlots(context.Background(), services.AvailabilityFilter{})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("converts civil dates to a half-open window", func(t *testing.T) {
		slotRepo := new(MockSlotRepository)
		svc := newSlotService(slotRepo, new(MockScheduleRepository), new(MockServiceRepository), new(MockLocationRepository), defaultSchedulingConfig())

		expected := []*entities.Slot{{ID: "slot-1"}}
		slotRepo.On("List", mock.Anything, mock.MatchedBy(func(f repositories.SlotFilter) bool {
			return f.OnlyAvailable &&
				f.ServiceID == "svc-1" &&
				f.From != nil && f.From.Format("2006-01-02") == "2025-03-01" &&
				f.To != nil && f.To.Format("2006-01-02") == "2025-03-03"
		})).Return(expected, nil)

		slots, err := svc.ListAvailableSlots(context.Background(), services.AvailabilityFilter{
			ServiceID: "svc-1",
			DateFrom:  "2025-03-01",
			DateTo:    "2025-03-02",
		})

		assert.NoError(t, err)
		assert.Equal(t, expected, slots)
		slotRepo.AssertExpectations(t)
	})
}

func TestSlotService_DeactivateSlot(t *testing.T) {
	t.Run("soft deletes slots with booking history", func(t *testing.T) {
		slotRepo := new(MockSlotRepository)
		svc := newSlotService(slotRepo, new(MockScheduleRepository), new(MockServiceRepository), new(MockLocationRepository), defaultSchedulingConfig())

		slotRepo.On("HasBookings", mock.Anything, "slot-1").Return(true, nil)
		slotRepo.On("Deactivate", mock.Anything, "slot-1").Return(nil)

		err := svc.DeactivateSlot(context.Background(), "slot-1")

		assert.NoError(t, err)
		slotRepo.AssertNotCalled(t, "Delete", mock.Anything, "slot-1")
	})

	t.Run("hard deletes slots nothing references", func(t *testing.T) {
		slotRepo := new(MockSlotRepository)
		svc := newSlotService(slotRepo, new(MockScheduleRepository), new(MockServiceRepository), new(MockLocationRepository), defaultSchedulingConfig())

		slotRepo.On("HasBookings", mock.Anything, "slot-2").Return(false, nil)
		slotRepo.On("Delete", mock.Anything, "slot-2").Return(nil)

		err := svc.DeactivateSlot(context.Background(), "slot-2")

		assert.NoError(t, err)
		slotRepo.AssertNotCalled(t, "Deactivate", mock.Anything, "slot-2")
	})
}

func TestSlotService_GetWeeklyTemplate(t *testing.T) {
	t.Run("falls back to the built-in default", func(t *testing.T) {
		scheduleRepo := new(MockScheduleRepository)
		svc := newSlotService(new(MockSlotRepository), scheduleRepo, new(MockServiceRepository), new(MockLocationRepository), defaultSchedulingConfig())

		scheduleRepo.On("GetWeeklyTemplate", mock.Anything, "svc-1", "loc-1").Return(nil, nil)
		scheduleRepo.On("GetWeeklyTemplate", mock.Anything, "", "").Return(nil, nil)

		template, err := svc.GetWeeklyTemplate(context.Background(), "svc-1", "loc-1")

		assert.NoError(t, err)
		assert.Len(t, template.RangesFor(time.Monday), 2)
		assert.Len(t, template.RangesFor(time.Sunday), 1)
	})

	t.Run("prefers the pair template over the global", func(t *testing.T) {
		scheduleRepo := new(MockScheduleRepository)
		svc := newSlotService(new(MockSlotRepository), scheduleRepo, new(MockServiceRepository), new(MockLocationRepository), defaultSchedulingConfig())

		pair := &entities.WeeklyTemplate{Days: map[time.Weekday][]entities.TimeRange{
			time.Friday: {{Start: "08:00", End: "11:00"}},
		}}
		scheduleRepo.On("GetWeeklyTemplate", mock.Anything, "svc-1", "loc-1").Return(pair, nil)

		template, err := svc.GetWeeklyTemplate(context.Background(), "svc-1", "loc-1")

		assert.NoError(t, err)
		assert.Equal(t, pair, template)
		scheduleRepo.AssertNotCalled(t, "GetWeeklyTemplate", mock.Anything, "", "")
	})
}

func TestSlotService_SaveWeeklyTemplate(t *testing.T) {
	t.Run("rejects overlapping ranges", func(t *testing.T) {
		scheduleRepo := new(MockScheduleRepository)
		svc := newSlotService(new(MockSlotRepository), scheduleRepo, new(MockServiceRepository), new(MockLocationRepository), defaultSchedulingConfig())

		template := &entities.WeeklyTemplate{Days: map[time.Weekday][]entities.TimeRange{
			time.Monday: {
				{Start: "08:00", End: "12:00"},
				{Start: "11:00", End: "15:00"},
			},
		}}

		err := svc.SaveWeeklyTemplate(context.Background(), "svc-1", "loc-1", template)

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		scheduleRepo.AssertNotCalled(t, "SaveWeeklyTemplate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSlotService_UpsertHoliday(t *testing.T) {
	t.Run("defaults scope to global", func(t *testing.T) {
		scheduleRepo := new(MockScheduleRepository)
		svc := newSlotService(new(MockSlotRepository), scheduleRepo, new(MockServiceRepository), new(MockLocationRepository), defaultSchedulingConfig())

		scheduleRepo.On("UpsertHoliday", mock.Anything, mock.MatchedBy(func(e *entities.HolidayEntry) bool {
			return e.Date == "2025-12-25" && e.Scope == entities.HolidayScopeGlobal
		})).Return(nil)

		err := svc.UpsertHoliday(context.Background(), "2025-12-25", "Christmas Day", "")

		assert.NoError(t, err)
		scheduleRepo.AssertExpectations(t)
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		svc := newSlotService(new(MockSlotRepository), new(MockScheduleRepository), new(MockServiceRepository), new(MockLocationRepository), defaultSchedulingConfig())

		err := svc.UpsertHoliday(context.Background(), "25-12-2025", "Christmas Day", entities.HolidayScopeGlobal)

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}
