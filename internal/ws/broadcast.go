package ws

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/tank-rc/tank/internal/config"
)

var ErrTooManyConnections = errors.New("too many websocket connections")

var (
	errClientClosed = errors.New("client closed")
	errSendFull     = errors.New("send buffer full")
)

type client struct {
	id   string
	conn *websocket.Conn
	hub  *Hub
	send chan []byte

	mu     sync.Mutex
	closed bool
}

// enqueue hands data to the write pump without blocking.
func (c *client) enqueue(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClientClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errSendFull
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.hub.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.hub.RemoveClient(c)
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Hub is the transport's table of open connections keyed by session ID. It
// is the control loop's Notifier.
type Hub struct {
	clients      cmap.ConcurrentMap[string, *client]
	addMu        sync.Mutex
	maxConns     int
	sendBuffer   int
	pingInterval time.Duration
	writeTimeout time.Duration
}

func NewHub(cfg *config.Config) *Hub {
	return &Hub{
		clients:      cmap.New[*client](),
		maxConns:     cfg.Server.MaxConnections,
		sendBuffer:   cfg.Transport.SendBuffer,
		pingInterval: cfg.Transport.PingInterval,
		writeTimeout: cfg.Transport.WriteTimeout,
	}
}

// AddClient registers conn under id and starts its write pump.
func (h *Hub) AddClient(id string, conn *websocket.Conn) (*client, error) {
	h.addMu.Lock()
	defer h.addMu.Unlock()

	if h.Full() {
		return nil, ErrTooManyConnections
	}
	c := &client{
		id:   id,
		conn: conn,
		hub:  h,
		send: make(chan []byte, h.sendBuffer),
	}
	if !h.clients.SetIfAbsent(id, c) {
		return nil, errors.New("duplicate connection id " + id)
	}
	go c.writePump()
	return c, nil
}

// RemoveClient drops c from the table and stops its write pump. Safe to
// call more than once.
func (h *Hub) RemoveClient(c *client) {
	h.clients.RemoveCb(c.id, func(_ string, v *client, exists bool) bool {
		return exists && v == c
	})
	c.close()
}

// Send implements control.Notifier.
func (h *Hub) Send(sessionID, event string, data any) {
	c, ok := h.clients.Get(sessionID)
	if !ok {
		return
	}

	payload, err := json.Marshal(WSMessage{Event: event, Data: data})
	if err != nil {
		log.Printf("ws marshal %s error: %v", event, err)
		return
	}

	// errClientClosed means c was removed after the lookup; drop silently.
	if err := c.enqueue(payload); errors.Is(err, errSendFull) {
		log.Printf("ws client %s too slow, disconnecting", sessionID)
		h.RemoveClient(c)
	}
}

func (h *Hub) Full() bool {
	return h.maxConns > 0 && h.clients.Count() >= h.maxConns
}

func (h *Hub) ClientCount() int {
	return h.clients.Count()
}

// Close disconnects every client.
func (h *Hub) Close() {
	for _, c := range h.clients.Items() {
		h.RemoveClient(c)
	}
}
