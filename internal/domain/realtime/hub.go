// Package realtime fans notification events out to live websocket
// connections, grouped by the authenticated user.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"homefinder/internal/pkg/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024

	defaultSendBuffer = 64
)

// client represents a single websocket connection of one user.
type client struct {
	id     string
	userID int64
	conn   *websocket.Conn
	send   chan []byte

	// done is closed once the client leaves the hub; send is never closed,
	// so publishers holding a stale snapshot cannot panic.
	done     chan struct{}
	doneOnce sync.Once
}

func newClient(userID int64, conn *websocket.Conn, sendBuffer int) *client {
	return &client{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

func (c *client) shutdown() {
	c.doneOnce.Do(func() { close(c.done) })
}

// Hub keeps one group of connections per user. A user may be connected
// from several devices; Publish reaches all of them.
type Hub struct {
	mu         sync.RWMutex
	groups     map[int64]map[*client]struct{}
	sendBuffer int
}

func NewHub(sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}
	return &Hub{
		groups:     make(map[int64]map[*client]struct{}),
		sendBuffer: sendBuffer,
	}
}

func (h *Hub) join(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	group, ok := h.groups[c.userID]
	if !ok {
		group = make(map[*client]struct{})
		h.groups[c.userID] = group
	}
	group[c] = struct{}{}
	metrics.LiveConnections.Inc()
}

func (h *Hub) leave(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	group, ok := h.groups[c.userID]
	if !ok {
		return
	}
	if _, member := group[c]; !member {
		return
	}
	delete(group, c)
	c.shutdown()
	metrics.LiveConnections.Dec()
	if len(group) == 0 {
		delete(h.groups, c.userID)
	}
}

// Publish delivers event to every connection in the user's group. With no
// connections the event is dropped and nil is returned; clients pull
// missed notifications on reconnect. The group is snapshotted and the hub
// lock released before sending, so a connection whose buffer stays full
// only delays this call, never publishes to other users. Such a
// connection is skipped once ctx expires and reported in the error.
func (h *Hub) Publish(ctx context.Context, userID int64, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	targets := h.snapshot(userID)
	if len(targets) == 0 {
		return nil
	}

	skipped := 0
	for _, c := range targets {
		select {
		case c.send <- data:
			continue
		case <-c.done:
			continue
		default:
		}
		select {
		case c.send <- data:
		case <-c.done:
		case <-ctx.Done():
			skipped++
		}
	}

	if skipped > 0 {
		return fmt.Errorf("user %d: %d of %d connections did not accept the event: %w",
			userID, skipped, len(targets), ctx.Err())
	}
	return nil
}

func (h *Hub) snapshot(userID int64) []*client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	group := h.groups[userID]
	out := make([]*client, 0, len(group))
	for c := range group {
		out = append(out, c)
	}
	return out
}

// ConnectionCount returns how many live connections the user has.
func (h *Hub) ConnectionCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[userID])
}

func (h *Hub) IsOnline(userID int64) bool {
	return h.ConnectionCount(userID) > 0
}

// Close disconnects everyone. Write pumps see the done channel and send
// a close frame.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, group := range h.groups {
		for c := range group {
			c.shutdown()
			metrics.LiveConnections.Dec()
		}
		delete(h.groups, userID)
	}
}

// ServeWS joins the connection to the user's group and runs its pumps.
// It blocks until the connection is closed.
func (h *Hub) ServeWS(conn *websocket.Conn, userID int64) {
	c := newClient(userID, conn, h.sendBuffer)

	h.join(c)
	log.Printf("ws_connected user_id=%d conn_id=%s", userID, c.id)

	go h.writePump(c)
	h.readPump(c)

	log.Printf("ws_disconnected user_id=%d conn_id=%s", userID, c.id)
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws_read_error user_id=%d conn_id=%s error=%q", c.userID, c.id, err)
			}
			return
		}

		var in clientMessage
		if err := json.Unmarshal(msg, &in); err != nil {
			h.reply(c, errorEvent("INVALID_JSON", "Failed to parse message"))
			continue
		}

		switch in.Type {
		case "ping":
			h.reply(c, pongEvent())
		default:
			h.reply(c, errorEvent("UNKNOWN_TYPE", "Unknown message type: "+in.Type))
		}
	}
}

// reply queues an event for a single connection without blocking.
func (h *Hub) reply(c *client, event serverEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	select {
	case <-c.done:
	case c.send <- data:
	default:
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			flush(c)
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// flush writes whatever is still buffered for a departing client.
func flush(c *client) {
	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}
