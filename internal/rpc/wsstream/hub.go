// Package wsstream broadcasts tick results to subscribed websocket
// clients, grounded on the teacher's internal/rpc/websocket.go
// (WebSocketServer: an Upgrader plus a mutex-guarded map of connections,
// each connection owning a buffered send channel drained by its own
// writer goroutine so one slow reader cannot block the publisher).
// It is the live-view boundary spec §1 carves out of the core ("3D
// rendering, mouse/VR input, CSS, DOM" are out of scope, but the core
// still needs a narrow, testable surface to publish snapshots over).
package wsstream

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/xln-finance/xln/internal/environment"
)

// SnapshotMessage is the JSON envelope sent to every subscriber after a
// tick, carrying enough of environment.Snapshot for a view to render
// height/time-travel controls without re-deriving state itself.
type SnapshotMessage struct {
	Height      uint64            `json:"height"`
	Timestamp   int64             `json:"timestamp"`
	Description string            `json:"description,omitempty"`
	Title       string            `json:"title,omitempty"`
	JReplicas   []json.RawMessage `json:"jurisdictions"`
	GossipCount int               `json:"gossipProfileCount"`
}

// Hub manages websocket subscribers and fans a Snapshot out to all of
// them on Publish.
type Hub struct {
	upgrader websocket.Upgrader

	mu          sync.RWMutex
	connections map[uint64]*connection
	nextID      uint64
}

type connection struct {
	id   uint64
	conn *websocket.Conn
	send chan []byte
}

// NewHub constructs a Hub. CheckOrigin is permissive, matching the
// teacher's WebSocketServer (real origin policy is a deployment concern,
// not something the core enforces).
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		connections: make(map[uint64]*connection),
	}
}

// ServeHTTP upgrades the request to a websocket connection and registers
// it as a subscriber until the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("wsstream: upgrade failed: %v", err)
		return
	}

	id := atomic.AddUint64(&h.nextID, 1)
	c := &connection{id: id, conn: conn, send: make(chan []byte, 32)}

	h.mu.Lock()
	h.connections[id] = c
	h.mu.Unlock()

	go h.writePump(c)
	go h.readPump(c)
}

// writePump drains c.send to the underlying connection, run on its own
// goroutine so a slow client never blocks Publish.
func (h *Hub) writePump(c *connection) {
	defer h.remove(c.id)
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// readPump discards inbound frames (this hub is publish-only) and closes
// the connection once the client closes it; writePump then unregisters it
// when its next write fails.
func (h *Hub) readPump(c *connection) {
	defer c.conn.Close()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.connections[id]; ok {
		delete(h.connections, id)
		close(c.send)
	}
}

// Publish encodes snap and fans it out to every connected subscriber.
// A subscriber whose send buffer is full misses this snapshot rather than
// stalling the publisher; it stays subscribed (spec §5: the core's per-tick function must
// never block on I/O).
func (h *Hub) Publish(snap environment.Snapshot) error {
	msg, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.connections {
		select {
		case c.send <- msg:
		default:
			log.Printf("wsstream: subscriber %d send buffer full, dropping snapshot", c.id)
		}
	}
	return nil
}

// Count returns the number of currently connected subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

func encodeSnapshot(snap environment.Snapshot) ([]byte, error) {
	jReplicas := make([]json.RawMessage, 0, len(snap.JReplicas))
	for _, jr := range snap.JReplicas {
		b, err := json.Marshal(jr)
		if err != nil {
			return nil, err
		}
		jReplicas = append(jReplicas, b)
	}

	return json.Marshal(SnapshotMessage{
		Height:      snap.Height,
		Timestamp:   snap.Timestamp,
		Description: snap.Description,
		Title:       snap.Title,
		JReplicas:   jReplicas,
		GossipCount: len(snap.GossipProfiles),
	})
}
