package api

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/insectlab/bugradar/internal/live"
	"github.com/insectlab/bugradar/internal/metrics"
	"github.com/insectlab/bugradar/internal/tokens"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // LAN deployment; the browse page may load from file://
	},
}

// LiveHandler serves the current rig view: a polled snapshot from the
// Redis cache and a websocket feed bridged from the broker.
type LiveHandler struct {
	Cache  *live.Cache // nil when Redis is not configured
	Tokens *tokens.Manager
	RigID  string

	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
}

func NewLiveHandler(cache *live.Cache, tm *tokens.Manager, rigID string) *LiveHandler {
	return &LiveHandler{
		Cache:   cache,
		Tokens:  tm,
		RigID:   rigID,
		clients: map[*websocket.Conn]chan []byte{},
	}
}

// Latest returns the most recent cached frame, or 204 when the rig has
// not published within the cache TTL.
func (h *LiveHandler) Latest(w http.ResponseWriter, r *http.Request) {
	if h.Cache == nil {
		respondError(w, http.StatusServiceUnavailable, "live cache not configured")
		return
	}
	payload, err := h.Cache.Get(r.Context(), h.RigID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "cache read failed")
		return
	}
	if payload == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, payload)
}

// Broadcast fans a raw detection message out to all connected websocket
// clients. Wired as the broker subscription callback; slow clients are
// dropped rather than allowed to stall the feed.
func (h *LiveHandler) Broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- data:
		default:
			log.Printf("[Live] dropping slow websocket client %s", conn.RemoteAddr())
			close(ch)
			delete(h.clients, conn)
		}
	}
}

// ServeWS upgrades the connection and streams detection frames until the
// client goes away. Auth rides the query string, standard for websockets.
func (h *LiveHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	if _, err := h.Tokens.ValidateToken(tokenStr); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Live] upgrade failed: %v", err)
		return
	}

	ch := make(chan []byte, 16)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()
	metrics.WSClientsConnected.Inc()

	defer func() {
		h.mu.Lock()
		if _, ok := h.clients[conn]; ok {
			close(ch)
			delete(h.clients, conn)
		}
		h.mu.Unlock()
		metrics.WSClientsConnected.Dec()
		conn.Close()
	}()

	// Reader goroutine only watches for close; clients don't send data.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case data, ok := <-ch:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}
