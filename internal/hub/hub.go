// Package hub fans committed shift changes out to every connected client.
package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/shiftsync/backend/internal/domain"
)

// Client is one subscriber. The transport reads encoded events from Send and
// stops once Done is closed.
type Client struct {
	ID       string
	Username string

	send     chan []byte
	done     chan struct{}
	doneOnce sync.Once
}

func NewClient(id, username string, buffer int) *Client {
	return &Client{
		ID:       id,
		Username: username,
		send:     make(chan []byte, buffer),
		done:     make(chan struct{}),
	}
}

func (c *Client) Send() <-chan []byte {
	return c.send
}

func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) close() {
	c.doneOnce.Do(func() { close(c.done) })
}

// Hub delivers events in the order Broadcast was called. Broadcast only
// enqueues, so callers holding locks are never blocked by slow clients.
type Hub struct {
	sendTimeout time.Duration

	mu      sync.RWMutex
	clients map[*Client]struct{}

	queueMu sync.Mutex
	queue   []domain.ChangeEvent
	notify  chan struct{}
}

func New(sendTimeout time.Duration) *Hub {
	return &Hub{
		sendTimeout: sendTimeout,
		clients:     make(map[*Client]struct{}),
		notify:      make(chan struct{}, 1),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	slog.Info("client connected", "client", c.ID, "username", c.Username)
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	c.close()
	if ok {
		slog.Info("client disconnected", "client", c.ID, "username", c.Username)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Broadcast(event domain.ChangeEvent) {
	h.queueMu.Lock()
	h.queue = append(h.queue, event)
	h.queueMu.Unlock()

	select {
	case h.notify <- struct{}{}:
	default:
	}
}

// Run delivers queued events until ctx is cancelled, then disconnects every
// client.
func (h *Hub) Run(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.notify:
			for _, event := range h.drain() {
				h.deliver(event)
			}
		}
	}
}

func (h *Hub) drain() []domain.ChangeEvent {
	h.queueMu.Lock()
	defer h.queueMu.Unlock()

	events := h.queue
	h.queue = nil
	return events
}

func (h *Hub) deliver(event domain.ChangeEvent) {
	message, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to encode change event", "action", event.Action, "shift", event.TargetID(), "error", err)
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !h.send(c, message) {
			slog.Warn("dropping unresponsive client", "client", c.ID, "username", c.Username, "action", event.Action)
			h.Unregister(c)
		}
	}
}

func (h *Hub) send(c *Client, message []byte) bool {
	select {
	case c.send <- message:
		return true
	case <-c.done:
		return true
	default:
	}

	timer := time.NewTimer(h.sendTimeout)
	defer timer.Stop()

	select {
	case c.send <- message:
		return true
	case <-c.done:
		return true
	case <-timer.C:
		return false
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.close()
	}
}
