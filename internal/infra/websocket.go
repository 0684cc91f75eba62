package infra

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsSendBuffer = 32
)

// WSHub manages WebSocket connections and room-based message delivery.
type WSHub struct {
	mu       sync.RWMutex
	rooms    map[string]map[string]*WSConn // room -> connID -> conn
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// WSConn is one subscribed client. Send is closed when the client leaves.
type WSConn struct {
	ID        string
	Room      string
	Send      chan []byte
	closeOnce sync.Once
}

func (c *WSConn) close() {
	c.closeOnce.Do(func() { close(c.Send) })
}

// WSMessage is the payload sent over WebSocket.
type WSMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// NewWSHub creates a new WebSocket hub. allowedOrigins is the comma-separated
// CORS_ALLOWED_ORIGINS value; "*" accepts any origin.
func NewWSHub(allowedOrigins string, logger *slog.Logger) *WSHub {
	h := &WSHub{
		rooms:  make(map[string]map[string]*WSConn),
		logger: logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed string) func(r *http.Request) bool {
	if allowed == "" || allowed == "*" {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]bool)
	for _, o := range strings.Split(allowed, ",") {
		set[strings.TrimSpace(o)] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// Join adds a connection to its room.
func (h *WSHub) Join(conn *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[conn.Room] == nil {
		h.rooms[conn.Room] = make(map[string]*WSConn)
	}
	h.rooms[conn.Room][conn.ID] = conn
}

// Leave removes a connection from its room and closes its send channel.
func (h *WSHub) Leave(conn *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[conn.Room]; ok {
		delete(conns, conn.ID)
		if len(conns) == 0 {
			delete(h.rooms, conn.Room)
		}
	}
	conn.close()
}

// Publish sends a message to all connections in a room.
func (h *WSHub) Publish(room string, event string, data any) {
	msg := WSMessage{Event: event, Data: data}
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("ws marshal error", "error", err, "room", room, "event", event)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	conns, ok := h.rooms[room]
	if !ok {
		return
	}

	for _, conn := range conns {
		select {
		case conn.Send <- payload:
		default:
			h.logger.Warn("ws send buffer full", "connID", conn.ID, "room", room)
		}
	}
}

// ServeRoom returns a handler that upgrades the request and subscribes the
// client to room. Clients only receive; inbound frames are discarded.
func (h *WSHub) ServeRoom(room string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("ws upgrade failed", "error", err, "room", room)
			return
		}

		conn := &WSConn{ID: uuid.NewString(), Room: room, Send: make(chan []byte, wsSendBuffer)}
		h.Join(conn)
		h.logger.Info("ws client connected", "connID", conn.ID, "room", room)

		go h.writePump(ws, conn)
		h.readPump(ws, conn)
	}
}

func (h *WSHub) readPump(ws *websocket.Conn, conn *WSConn) {
	defer func() {
		h.Leave(conn)
		ws.Close()
		h.logger.Info("ws client disconnected", "connID", conn.ID, "room", conn.Room)
	}()

	ws.SetReadLimit(512)
	_ = ws.SetReadDeadline(time.Now().Add(wsPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *WSHub) writePump(ws *websocket.Conn, conn *WSConn) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case payload, ok := <-conn.Send:
			_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ConnectionCount returns the total number of active connections.
func (h *WSHub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	count := 0
	for _, conns := range h.rooms {
		count += len(conns)
	}
	return count
}

// RoomCount returns the number of active rooms.
func (h *WSHub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// Shutdown closes all connections gracefully.
func (h *WSHub) Shutdown(_ context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, conns := range h.rooms {
		for _, conn := range conns {
			conn.close()
		}
		delete(h.rooms, room)
	}
}
