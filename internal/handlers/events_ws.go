package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/zenjournal/zenjournal-backend/internal/auth"
	"github.com/zenjournal/zenjournal-backend/internal/metrics"
	"github.com/zenjournal/zenjournal-backend/internal/services"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// EventSubscriber hands out a per-owner event stream.
type EventSubscriber interface {
	Subscribe(ownerID string) (<-chan services.EntryEvent, func())
}

type EventsHandler struct {
	hub      EventSubscriber
	upgrader websocket.Upgrader
}

// NewEventsHandler only accepts upgrades from the allowed frontend origins.
func NewEventsHandler(hub EventSubscriber, allowedOrigins []string) *EventsHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &EventsHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
	}
}

// Stream handles GET /ws/entries: the caller's own entry events, one JSON
// message each. The client only needs to answer pings.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	defer metrics.StreamOpened()()

	events, unsubscribe := h.hub.Subscribe(userID)
	defer unsubscribe()

	// Reader: consume control frames so pongs arrive and closes are noticed.
	done := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(evt); err != nil {
				log.Debug().Err(err).Str("user_id", userID).Msg("entry event write failed")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
