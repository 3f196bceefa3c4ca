package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labcita/scheduling/internal/domain/providers"
	"github.com/labcita/scheduling/internal/infrastructure/observability"
)

// SSEHandler streams booking events over Server-Sent Events
type SSEHandler struct {
	eventBus providers.EventBus
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.EventBus) *SSEHandler {
	return &SSEHandler{
		eventBus: eventBus,
	}
}

// StreamBookingUpdates handles GET /api/stream/bookings. Every booking event
// in the system is forwarded to the client until it disconnects.
func (h *SSEHandler) StreamBookingUpdates(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, providers.EventChannelBookingUpdates, map[string]interface{}{
		"channel":   "bookings",
		"timestamp": time.Now(),
	})
}

// StreamPatientUpdates handles GET /api/stream/patients/{id}, forwarding only
// the events of one patient
func (h *SSEHandler) StreamPatientUpdates(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("id")
	if patientID == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	h.stream(w, r, providers.GetPatientChannel(patientID), map[string]interface{}{
		"patient_id": patientID,
		"timestamp":  time.Now(),
	})
}

func (h *SSEHandler) stream(w http.ResponseWriter, r *http.Request, channel string, hello map[string]interface{}) {
	if h.eventBus == nil {
		respondWithError(w, http.StatusServiceUnavailable, "event streaming is not enabled")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Set headers for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	log := observability.LoggerFromContext(r.Context())

	// Subscribe ties the subscriber's lifetime to the request context;
	// Unsubscribe would tear down every other client on the channel.
	eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("Failed to subscribe to channel")
		respondWithError(w, http.StatusInternalServerError, "failed to subscribe")
		return
	}

	sendEvent(w, "connected", hello)
	flusher.Flush()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Str("channel", channel).Msg("SSE client disconnected")
			return
		case <-heartbeat.C:
			sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			sendEvent(w, string(event.EventType), event)
			flusher.Flush()
		}
	}
}

// sendEvent writes a single SSE frame
func sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload)
}
