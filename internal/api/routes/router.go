package routes

import (
	"net/http"

	"github.com/labcita/scheduling/internal/api/handlers"
	"github.com/labcita/scheduling/internal/api/middleware"
	"github.com/labcita/scheduling/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	slotHandler     *handlers.SlotHandler
	bookingHandler  *handlers.BookingHandler
	scheduleHandler *handlers.ScheduleHandler
	sseHandler      *handlers.SSEHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	slotHandler *handlers.SlotHandler,
	bookingHandler *handlers.BookingHandler,
	scheduleHandler *handlers.ScheduleHandler,
	sseHandler *handlers.SSEHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux: http.NewServeMux(),

		slotHandler:     slotHandler,
		bookingHandler:  bookingHandler,
		scheduleHandler: scheduleHandler,
		sseHandler:      sseHandler,

		cacheMiddleware: cacheMiddleware,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)

		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Slot endpoints
	r.mux.HandleFunc("POST /api/slots/generate", r.slotHandler.GenerateSlots)
	r.mux.HandleFunc("GET /api/slots", r.slotHandler.ListSlots)
	r.mux.HandleFunc("GET /api/slots/{id}", r.slotHandler.GetSlot)
	r.mux.HandleFunc("DELETE /api/slots/{id}", r.slotHandler.DeleteSlot)

	// Booking endpoints
	r.mux.HandleFunc("POST /api/bookings", r.bookingHandler.CreateBooking)
	r.mux.HandleFunc("GET /api/bookings/{id}", r.bookingHandler.GetBooking)
	r.mux.HandleFunc("POST /api/bookings/{id}/cancel", r.bookingHandler.CancelBooking)
	r.mux.HandleFunc("POST /api/bookings/{id}/reschedule", r.bookingHandler.RescheduleBooking)
	r.mux.HandleFunc("POST /api/bookings/{id}/confirm", r.bookingHandler.ConfirmBooking)
	r.mux.HandleFunc("GET /api/patients/{id}/bookings", r.bookingHandler.ListPatientBookings)

	// Schedule administration endpoints
	r.mux.HandleFunc("PUT /api/schedule/template", r.scheduleHandler.SaveTemplate)
	r.mux.HandleFunc("GET /api/schedule/template", r.scheduleHandler.GetTemplate)
	r.mux.HandleFunc("POST /api/schedule/holidays", r.scheduleHandler.UpsertHoliday)
	r.mux.HandleFunc("GET /api/schedule/holidays", r.scheduleHandler.ListHolidays)

	// Real-time booking event streams
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/stream/bookings", r.sseHandler.StreamBookingUpdates)
		r.mux.HandleFunc("GET /api/stream/patients/{id}", r.sseHandler.StreamPatientUpdates)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	// Apply cache middleware if available
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
