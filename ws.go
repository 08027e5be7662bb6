package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"transporte-admin/tracking"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// markerEvent is what browser clients receive for each marker change.
type markerEvent struct {
	Type  string             `json:"type"`
	ID    tracking.VehicleID `json:"id"`
	Lat   float64            `json:"lat"`
	Lng   float64            `json:"lng"`
	Color string             `json:"color,omitempty"`
	Label string             `json:"label,omitempty"`
}

func addEvent(m tracking.MarkerState) markerEvent {
	return markerEvent{Type: "add", ID: m.ID, Lat: m.Position.Lat, Lng: m.Position.Lng, Color: m.Color, Label: m.Label}
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// wsHub is the rendering surface of the live map: it keeps the current
// markers and pushes every change to the connected browsers.
type wsHub struct {
	log *slog.Logger

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	markers map[tracking.VehicleID]tracking.MarkerState
	order   []tracking.VehicleID
	closed  bool
}

func newHub(log *slog.Logger) *wsHub {
	return &wsHub{
		log:     log.With("component", "hub"),
		clients: make(map[*wsClient]struct{}),
		markers: make(map[tracking.VehicleID]tracking.MarkerState),
	}
}

func (h *wsHub) AddMarker(m tracking.MarkerState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	if _, ok := h.markers[m.ID]; !ok {
		h.order = append(h.order, m.ID)
	}
	h.markers[m.ID] = m
	h.broadcastLocked(addEvent(m))
}

func (h *wsHub) MoveMarker(id tracking.VehicleID, p tracking.GeoPoint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.markers[id]
	if h.closed || !ok {
		return
	}
	m.Position = p
	h.markers[id] = m
	h.broadcastLocked(markerEvent{Type: "move", ID: id, Lat: p.Lat, Lng: p.Lng})
}

// Close disconnects every browser and drops the markers. Later changes are
// ignored and new connections refused.
func (h *wsHub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	h.markers = make(map[tracking.VehicleID]tracking.MarkerState)
	h.order = nil
	return nil
}

// snapshot returns the current markers in first-seen order.
func (h *wsHub) snapshot() []tracking.MarkerState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snapshotLocked()
}

func (h *wsHub) snapshotLocked() []tracking.MarkerState {
	out := make([]tracking.MarkerState, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.markers[id])
	}
	return out
}

// broadcastLocked queues ev for every client; a client that cannot keep up
// is disconnected.
func (h *wsHub) broadcastLocked(ev markerEvent) {
	if len(h.clients) == 0 {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("encode marker event", "error", err)
		return
	}
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			close(c.send)
			delete(h.clients, c)
			h.log.Warn("dropping slow client", "remote", c.conn.RemoteAddr().String())
		}
	}
}

func (h *wsHub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
	}
}

// ServeHTTP upgrades the request and sends the current markers as "add"
// events before any later change.
func (h *wsHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "live map stopped", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	snap := h.snapshotLocked()
	c := &wsClient{conn: conn, send: make(chan []byte, sendBuffer+len(snap))}
	for _, m := range snap {
		data, err := json.Marshal(addEvent(m))
		if err == nil {
			c.send <- data
		}
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.log.Debug("browser connected", "remote", conn.RemoteAddr().String(), "markers", len(snap))
	go h.writePump(c)
	go h.readPump(c)
}

// readPump only watches for pongs and the peer going away.
func (h *wsHub) readPump(c *wsClient) {
	defer func() {
		h.remove(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
	}
}

func (h *wsHub) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
