package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tiendalink/wabot-server-go/internal/middleware"
	"github.com/tiendalink/wabot-server-go/internal/sse"
)

// EventsHandler streams tenant connection-status events (pairing issued,
// paired, connected, disconnected) to operator dashboards over SSE.
type EventsHandler struct {
	broker *sse.Broker
}

func NewEventsHandler(broker *sse.Broker) *EventsHandler {
	return &EventsHandler{broker: broker}
}

// GET /v1/events
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.GetTenant(r.Context())
	if tenant == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	client := h.broker.Subscribe(tenant.ID)
	defer h.broker.Unsubscribe(client)

	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(sse.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case <-client.Done:
			return

		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()

		case event := <-client.Events:
			data, err := json.Marshal(event)
			if err != nil {
				log.Error().Err(err).Msg("failed to marshal sse event")
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
