package kds

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-app/models"
	"github.com/yeremiapane/cafe-app/utils"
)

const (
	writeWait = 5 * time.Second
	// queued messages per client before it is considered too slow
	sendBuffer = 32
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type client struct {
	conn *websocket.Conn
	role models.Role
	send chan []byte
}

// Hub keeps the live order board connections of staff and admins and fans
// order events out to them. Each connection has its own writer goroutine,
// so a slow board never holds up the caller.
type Hub struct {
	clients map[*websocket.Conn]*client
	mutex   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]*client)}
}

func (h *Hub) RegisterClient(conn *websocket.Conn, role models.Role) {
	c := &client{conn: conn, role: role, send: make(chan []byte, sendBuffer)}
	h.mutex.Lock()
	h.clients[conn] = c
	count := len(h.clients)
	h.mutex.Unlock()

	go h.writePump(c)
	utils.InfoLogger.WithField("clients", count).Info("order board client connected")
}

// UnregisterClient stops the client's writer, which closes the connection.
func (h *Hub) UnregisterClient(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.removeLocked(conn)
}

func (h *Hub) removeLocked(conn *websocket.Conn) {
	if c, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(c.send)
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Publish implements the order event sink.
func (h *Hub) Publish(_ context.Context, ev models.OrderEvent) {
	h.Broadcast(Message{Event: ev.Event, Data: ev})
}

// Broadcast queues msg for every client without blocking. A client whose
// queue is full is dropped.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Errorf("marshal board message: %v", err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	for conn, c := range h.clients {
		select {
		case c.send <- data:
		default:
			utils.ErrorLogger.WithFields(logrus.Fields{
				"role":  c.role,
				"event": msg.Event,
			}).Error("board client too slow, dropping it")
			h.removeLocked(conn)
		}
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.WithField("role", c.role).Errorf("board write failed, dropping client: %v", err)
			h.UnregisterClient(c.conn)
			for range c.send {
			}
			return
		}
	}
}
