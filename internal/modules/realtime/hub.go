// Package realtime pushes booking events to customers over websockets.
package realtime

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
	sendBuffer = 64
)

// Message is the only frame the server sends.
type Message struct {
	Event   string `json:"event"`
	Room    string `json:"room"`
	Payload any    `json:"payload,omitempty"`
}

// UserRoom is the private room of one user.
func UserRoom(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}

type connection struct {
	room string
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks open connections by room. One user may hold several
// connections, all of which receive the user's events.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*connection]struct{}
	log   *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		rooms: make(map[string]map[*connection]struct{}),
		log:   log.With(zap.String("module", "realtime")),
	}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.rooms[c.room]
	if !ok {
		set = make(map[*connection]struct{})
		h.rooms[c.room] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.rooms[c.room]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.rooms, c.room)
	}
}

// Deliver sends msg to every local connection in its room and reports how
// many accepted it. Slow clients are skipped.
func (h *Hub) Deliver(msg Message) int {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Warn("realtime marshal failed", zap.String("event", msg.Event), zap.Error(err))
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for c := range h.rooms[msg.Room] {
		select {
		case c.send <- data:
			n++
		default:
		}
	}
	return n
}

// EmitToUser delivers on this instance only.
func (h *Hub) EmitToUser(_ context.Context, userID int64, event string, payload any) error {
	h.Deliver(Message{Event: event, Room: UserRoom(userID), Payload: payload})
	return nil
}

// Online returns the number of local connections in room.
func (h *Hub) Online(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Close drops every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, set := range h.rooms {
		for c := range set {
			close(c.send)
		}
		delete(h.rooms, room)
	}
}

// serve registers conn in the user's room and blocks until it closes.
func (h *Hub) serve(conn *websocket.Conn, userID int64) {
	c := &connection{
		room: UserRoom(userID),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	h.register(c)
	h.log.Debug("websocket connected", zap.Int64("user_id", userID))

	go h.writePump(c)
	h.readPump(c)
	h.log.Debug("websocket disconnected", zap.Int64("user_id", userID))
}

func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var in struct {
			Event string `json:"event"`
		}
		if err := json.Unmarshal(raw, &in); err != nil {
			continue
		}
		if in.Event == "ping" {
			h.replyTo(c, Message{Event: "pong", Room: c.room})
		}
	}
}

// replyTo must not race with unregister closing c.send.
func (h *Hub) replyTo(c *connection, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.rooms[c.room][c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
