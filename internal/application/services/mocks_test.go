package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/labcita/scheduling/internal/domain/entities"
	"github.com/labcita/scheduling/internal/domain/repositories"
)

// Mocks

type MockSlotRepository struct {
	mock.Mock
}

func (m *MockSlotRepository) InsertNew(ctx context.Context, slots []*entities.Slot) (int, error) {
	args := m.Called(ctx, slots)
	return args.Int(0), args.Error(1)
}

func (m *MockSlotRepository) GetByID(ctx context.Context, id string) (*entities.Slot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Slot), args.Error(1)
}

func (m *MockSlotRepository) List(ctx context.Context, filter repositories.SlotFilter) ([]*entities.Slot, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Slot), args.Error(1)
}

func (m *MockSlotRepository) Reserve(ctx context.Context, id string, now time.Time) (bool, error) {
	args := m.Called(ctx, id, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockSlotRepository) Release(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSlotRepository) Deactivate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSlotRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSlotRepository) HasBookings(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *entities.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*entities.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, id string, status entities.BookingStatus, cancelReason *string) error {
	args := m.Called(ctx, id, status, cancelReason)
	return args.Error(0)
}

func (m *MockBookingRepository) UpdateSlot(ctx context.Context, id string, slotID string) error {
	args := m.Called(ctx, id, slotID)
	return args.Error(0)
}

func (m *MockBookingRepository) FindOverlapping(ctx context.Context, patientID string, start, end time.Time, excludeBookingID string) (*repositories.BookingConflict, error) {
	args := m.Called(ctx, patientID, start, end, excludeBookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.BookingConflict), args.Error(1)
}

func (m *MockBookingRepository) ListByPatient(ctx context.Context, patientID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	args := m.Called(ctx, patientID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Booking), args.Error(1)
}

type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) SaveWeeklyTemplate(ctx context.Context, serviceID, locationID string, template *entities.WeeklyTemplate) error {
	args := m.Called(ctx, serviceID, locationID, template)
	return args.Error(0)
}

func (m *MockScheduleRepository) GetWeeklyTemplate(ctx context.Context, serviceID, locationID string) (*entities.WeeklyTemplate, error) {
	args := m.Called(ctx, serviceID, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WeeklyTemplate), args.Error(1)
}

func (m *MockScheduleRepository) UpsertHoliday(ctx context.Context, entry *entities.HolidayEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockScheduleRepository) ListHolidays(ctx context.Context, from, to string) ([]*entities.HolidayEntry, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.HolidayEntry), args.Error(1)
}

type MockServiceRepository struct {
	mock.Mock
}

func (m *MockServiceRepository) GetByID(ctx context.Context, id string) (*entities.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Service), args.Error(1)
}

func (m *MockServiceRepository) Create(ctx context.Context, service *entities.Service) error {
	args := m.Called(ctx, service)
	return args.Error(0)
}

type MockLocationRepository struct {
	mock.Mock
}

func (m *MockLocationRepository) GetByID(ctx context.Context, id string) (*entities.Location, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Location), args.Error(1)
}

func (m *MockLocationRepository) Create(ctx context.Context, location *entities.Location) error {
	args := m.Called(ctx, location)
	return args.Error(0)
}

// passthroughTxManager runs the function without a real transaction so
// service logic can be tested against mocked repositories.
type passthroughTxManager struct{}

func (passthroughTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.BookingEvent) error {
	args := m.Called(ctx, channel, event)
	return args.Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.BookingEvent, error) {
	args := m.Called(ctx, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan *entities.BookingEvent), args.Error(1)
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	args := m.Called(ctx, channel)
	return args.Error(0)
}

func (m *MockEventBus) Close() error {
	args := m.Called()
	return args.Error(0)
}
