package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/labcita/scheduling/internal/api/handlers"
	"github.com/labcita/scheduling/internal/domain/entities"
)

type stubEventBus struct {
	mu           sync.Mutex
	events       chan *entities.BookingEvent
	subscribed   []string
	unsubscribed []string
}

func newStubEventBus() *stubEventBus {
	return &stubEventBus{events: make(chan *entities.BookingEvent)}
}

func (s *stubEventBus) Publish(ctx context.Context, channel string, event *entities.BookingEvent) error {
	s.events <- event
	return nil
}

func (s *stubEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.BookingEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribed = append(s.subscribed, channel)
	return s.events, nil
}

func (s *stubEventBus) Unsubscribe(ctx context.Context, channel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsubscribed = append(s.unsubscribed, channel)
	return nil
}

func (s *stubEventBus) Close() error { return nil }

func (s *stubEventBus) unsubscribeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.unsubscribed)
}

func TestSSEHandler_StreamBookingUpdates(t *testing.T) {
	t.Run("forwards events and leaves the channel subscribed on disconnect", func(t *testing.T) {
		bus := newStubEventBus()
		handler := handlers.NewSSEHandler(bus)

		ctx, cancel := context.WithCancel(context.Background())
		req := httptest.NewRequest(http.MethodGet, "/api/stream/bookings", nil).WithContext(ctx)
		rec := httptest.NewRecorder()

		done := make(chan struct{})
		go func() {
			handler.StreamBookingUpdates(rec, req)
			close(done)
		}()

		// The unbuffered send completes only once the stream loop is
		// draining the subscription.
		bus.events <- &entities.BookingEvent{
			ID:        "evt-1",
			EventType: entities.BookingEventTypeCreated,
			BookingID: "bkg-1",
			PatientID: "pat-1",
		}
		cancel()
		<-done

		body := rec.Body.String()
		assert.Contains(t, body, "event: connected")
		assert.Contains(t, body, "event: booking.created")
		assert.Contains(t, body, "evt-1")

		// A client disconnect must not tear down the shared channel;
		// other clients keep their subscription.
		assert.Equal(t, 0, bus.unsubscribeCount())
	})

	t.Run("returns 503 when streaming is disabled", func(t *testing.T) {
		handler := handlers.NewSSEHandler(nil)

		req := httptest.NewRequest(http.MethodGet, "/api/stream/bookings", nil)
		rec := httptest.NewRecorder()

		handler.StreamBookingUpdates(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestSSEHandler_StreamPatientUpdates(t *testing.T) {
	t.Run("requires a patient ID", func(t *testing.T) {
		handler := handlers.NewSSEHandler(newStubEventBus())

		req := httptest.NewRequest(http.MethodGet, "/api/stream/patients/", nil)
		rec := httptest.NewRecorder()

		handler.StreamPatientUpdates(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("subscribes to the patient channel", func(t *testing.T) {
		bus := newStubEventBus()
		handler := handlers.NewSSEHandler(bus)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		req := httptest.NewRequest(http.MethodGet, "/api/stream/patients/pat-1", nil).WithContext(ctx)
		req.SetPathValue("id", "pat-1")
		rec := httptest.NewRecorder()

		handler.StreamPatientUpdates(rec, req)

		bus.mu.Lock()
		subscribed := append([]string(nil), bus.subscribed...)
		bus.mu.Unlock()
		assert.Equal(t, []string{"patient:pat-1"}, subscribed)
		assert.Equal(t, 0, bus.unsubscribeCount())
	})
}
