package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

// ActivityEvent announces an admin catalog change to connected clients so
// open back-office views can refresh.
type ActivityEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// ActivityHub fans admin events out to every websocket client on /ws/activity.
type ActivityHub struct {
	logger *slog.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewActivityHub(logger *slog.Logger) *ActivityHub {
	return &ActivityHub{
		logger: logger,
		conns:  make(map[*websocket.Conn]struct{}),
	}
}

func (h *ActivityHub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *ActivityHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
}

// Broadcast writes the event to every connected client. Write failures only
// log; the read loop in handleActivityFeed owns connection teardown.
func (h *ActivityHub) Broadcast(event ActivityEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("activity event marshal failed", "error", err)
		return
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
			h.logger.Debug("activity write failed", "error", err)
		}
		cancel()
	}
}

func handleActivityFeed(logger *slog.Logger, hub *ActivityHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		hub.add(conn)
		defer hub.remove(conn)

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
		defer cancel()

		// Clients only listen; reads drain control frames and detect close.
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				logger.Debug("websocket read ended", "error", err)
				return
			}
		}
	}
}
