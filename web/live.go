package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dreece2304/EBeamSim-sub000/model"
)

const writeTimeout = 5 * time.Second

// Hub fans live run progress out to websocket listeners. Its Publish
// method satisfies the runner's progress callback, so wiring a run to
// the live channel is one field assignment.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	last    model.Progress
	running bool
}

// NewHub constructor.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			// read-only API, no credentials involved
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: map[*websocket.Conn]bool{},
	}
}

// RunStarted marks a run in flight. It reports false when another run
// already holds the hub; only one run publishes at a time.
func (h *Hub) RunStarted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return false
	}
	h.running = true
	h.last = model.Progress{}
	return true
}

// RunFinished marks the run done.
func (h *Hub) RunFinished() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.running = false
}

// Current returns the latest snapshot and whether a run is in flight.
func (h *Hub) Current() (model.Progress, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last, h.running
}

// Publish pushes a progress snapshot to every connected listener.
// Listeners that cannot keep up are dropped.
func (h *Hub) Publish(p model.Progress) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = p
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(p); err != nil {
			log.Debugf("dropping live listener [%s]", err.Error())
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// ServeHTTP upgrades the connection and registers it as a listener. The
// latest snapshot is sent immediately so late joiners see state at once.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("websocket upgrade failed [%s]", err.Error())
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	last, running := h.last, h.running
	h.mu.Unlock()

	if running {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(last); err != nil {
			h.remove(conn)
			return
		}
	}

	// the read loop only detects disconnects; listeners never send
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.remove(conn)
				return
			}
		}
	}()
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn.Close()
	delete(h.clients, conn)
}
