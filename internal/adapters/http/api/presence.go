package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/okian/hangman/pkg/logger"
)

type presenceResponse struct {
	Online int `json:"online"`
}

type presenceCountResponse struct {
	Online  int `json:"online"`
	Players int `json:"players"`
}

// PresenceHandler reports how many users are online.
type PresenceHandler struct {
	deps   PresenceDependencies
	logger logger.Logger

	// conns counts open sockets per presence id; Leave runs on the last one.
	mu    sync.Mutex
	conns map[string]int
}

// NewPresenceHandler creates a new presence handler.
func NewPresenceHandler(deps PresenceDependencies, log logger.Logger) *PresenceHandler {
	return &PresenceHandler{deps: deps, logger: log, conns: make(map[string]int)}
}

// HandleCount handles GET /presence. players counts users who saved a score.
func (h *PresenceHandler) HandleCount(w http.ResponseWriter, r *http.Request) {
	const op = "api.presence"
	online := 0
	if c := h.deps.Presence(); c != nil {
		online = c.Online()
	}
	players, err := h.deps.TotalPlayers(r.Context())
	if err != nil {
		fail(w, r, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, presenceCountResponse{Online: online, Players: players})
}

func (h *PresenceHandler) join(id string) {
	h.mu.Lock()
	h.conns[id]++
	h.mu.Unlock()
}

// leave reports whether id has no open connections left.
func (h *PresenceHandler) leave(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[id]--
	if h.conns[id] > 0 {
		return false
	}
	delete(h.conns, id)
	return true
}

// HandleStream handles GET /presence/ws. The connection itself counts as a
// presence: signed-in users by id, guests per connection. Every inbound
// frame is a heartbeat. The server pushes {"online": n} on each change.
func (h *PresenceHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	counter := h.deps.Presence()
	if counter == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", nil)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "presence ws upgrade failed", logger.Error(err))
		return
	}

	id := userID(r)
	if id == "" {
		id = "guest:" + uuid.NewString()
	}

	counts := make(chan int, 1)
	h.join(id)
	counter.Touch(id)
	unsubscribe := counter.Subscribe(func(n int) {
		// Keep only the latest count for slow readers.
		select {
		case counts <- n:
		default:
			select {
			case <-counts:
			default:
			}
			select {
			case counts <- n:
			default:
			}
		}
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(maxMessageSize)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			counter.Touch(id)
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			counter.Touch(id)
		}
	}()

	defer func() {
		unsubscribe()
		if h.leave(id) {
			counter.Leave(id)
		}
		_ = conn.Close()
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case n := <-counts:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(presenceResponse{Online: n}); err != nil {
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
