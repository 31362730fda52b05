// Package ws streams committed contract events to websocket watchers.
package ws

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"alpha-duel/internal/eventfeed"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
)

// Handler upgrades GET /events and writes one JSON message per event.
// The optional "session" query parameter restricts the stream to one session.
type Handler struct {
	feed     *eventfeed.Feed
	log      *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler returns a handler over feed. A nil logger disables logging.
func NewHandler(feed *eventfeed.Feed, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		feed: feed,
		log:  log,
		upgrader: websocket.Upgrader{
			// watchers are read-only
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var filter eventfeed.Filter
	if session := strings.TrimSpace(r.URL.Query().Get("session")); session != "" {
		filter = eventfeed.SessionFilter(session)
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	msgs, cancel := h.feed.Subscribe(filter)
	defer cancel()

	// the read side only handles control frames and notices disconnects
	readDone := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-readDone:
			return
		case <-r.Context().Done():
			return
		case msg, ok := <-msgs:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "event feed closed"))
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("websocket write", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
