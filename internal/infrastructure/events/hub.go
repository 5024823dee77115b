package events

import (
	"context"
	"encoding/json"
	"net/http"
	"price-chain-service/internal/application/dto"
	"price-chain-service/internal/domain/entities"
	"price-chain-service/internal/infrastructure/logging"
	"price-chain-service/internal/infrastructure/metrics"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// HubConfig tunes the audit event stream.
type HubConfig struct {
	SendBuffer     int
	AllowedOrigins []string
}

// Hub streams audit events to websocket clients. It implements
// interfaces.EventSink and http.Handler.
type Hub struct {
	mapper   *dto.RecordMapper
	upgrader websocket.Upgrader
	buffer   int

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

// client is one websocket subscriber. Until it subscribes it receives every
// event. Once a dimension is filtered it stays filtered, even after its last
// entry is removed; only a bare unsubscribe resets it.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu               sync.RWMutex
	variants         map[entities.Variant]bool
	pairs            map[entities.PairKey]bool
	filteredVariants bool
	filteredPairs    bool
}

// ClientMessage is what subscribers send.
type ClientMessage struct {
	Type     string   `json:"type"` // "subscribe", "unsubscribe", "ping"
	Variants []string `json:"variants,omitempty"`
	Pairs    []string `json:"pairs,omitempty"`
}

// EventMessage is pushed for every accepted update.
type EventMessage struct {
	Type  string                 `json:"type"`
	Event dto.AuditEventResponse `json:"event"`
}

func NewHub(mapper *dto.RecordMapper, cfg HubConfig) *Hub {
	buffer := cfg.SendBuffer
	if buffer <= 0 {
		buffer = 256
	}
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[o] = true
	}

	return &Hub{
		mapper: mapper,
		buffer: buffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed["*"] || allowed[origin]
			},
		},
		clients: make(map[*client]struct{}),
	}
}

// Publish queues an event for every interested client. Slow clients lose
// events instead of blocking the publisher.
func (h *Hub) Publish(ctx context.Context, ev *entities.AuditEvent) error {
	data, err := json.Marshal(EventMessage{Type: "audit_event", Event: h.mapper.ToAuditEventResponse(ev)})
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if !c.wants(ev.Variant, ev.Pair) {
			continue
		}
		select {
		case c.send <- data:
		default:
			metrics.RecordEventStreamDrop()
			logging.Warn(ctx, "Event stream client buffer full, dropping event", logging.Fields{
				logging.FieldVariant:  string(ev.Variant),
				logging.FieldPair:     string(ev.Pair),
				logging.FieldSequence: ev.Sequence,
			})
		}
	}
	return nil
}

// ServeHTTP upgrades the connection and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.WarnWithError(r.Context(), "Failed to upgrade event stream connection", err, nil)
		return
	}

	c := &client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, h.buffer),
		variants: make(map[entities.Variant]bool),
		pairs:    make(map[entities.PairKey]bool),
	}
	if !h.register(c) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()

	logging.Info(r.Context(), "Event stream client connected", logging.Fields{
		logging.FieldHTTPRemoteIP: conn.RemoteAddr().String(),
	})
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	metrics.SetEventStreamClients(0)
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	metrics.SetEventStreamClients(len(h.clients))
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		metrics.SetEventStreamClients(len(h.clients))
	}
}

func (c *client) wants(variant entities.Variant, pair entities.PairKey) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.filteredVariants && !c.variants[variant] {
		return false
	}
	if c.filteredPairs && !c.pairs[pair] {
		return false
	}
	return true
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.WarnWithError(context.Background(), "Event stream read failed", err, nil)
			}
			return
		}
		c.handleMessage(message)
	}
}

func (c *client) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.reply(map[string]string{"type": "error", "message": "invalid message"})
		return
	}

	switch msg.Type {
	case "subscribe":
		c.setFilters(msg.Variants, msg.Pairs, true)
		c.reply(map[string]string{"type": "subscribed"})
	case "unsubscribe":
		c.setFilters(msg.Variants, msg.Pairs, false)
		c.reply(map[string]string{"type": "unsubscribed"})
	case "ping":
		c.reply(map[string]string{"type": "pong"})
	default:
		c.reply(map[string]string{"type": "error", "message": "unknown message type " + msg.Type})
	}
}

// setFilters adds or removes filter entries. Unsubscribing with no entries
// clears all filters, so the client receives everything again. Removing
// entries from a dimension that was never subscribed has no effect.
func (c *client) setFilters(variants, pairs []string, add bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !add && len(variants) == 0 && len(pairs) == 0 {
		c.variants = make(map[entities.Variant]bool)
		c.pairs = make(map[entities.PairKey]bool)
		c.filteredVariants = false
		c.filteredPairs = false
		return
	}
	if add && len(variants) > 0 {
		c.filteredVariants = true
	}
	if add && len(pairs) > 0 {
		c.filteredPairs = true
	}
	for _, v := range variants {
		if variant, ok := entities.ParseVariant(v); ok {
			if add {
				c.variants[variant] = true
			} else {
				delete(c.variants, variant)
			}
		}
	}
	for _, p := range pairs {
		if add {
			c.pairs[entities.PairKey(p)] = true
		} else {
			delete(c.pairs, entities.PairKey(p))
		}
	}
}

// reply queues a control message. The hub lock guards against a concurrent
// close of the send channel.
func (c *client) reply(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
