package feed

import (
	"context"
	"sync"
	"time"

	"github.com/okian/pitchtag/pkg/logger"
	"github.com/okian/pitchtag/pkg/metrics"
)

const defaultBroadcastBuffer = 1024

// Hub maintains the set of active clients and fans messages out to the
// ones watching the message's session.
type Hub struct {
	clients   map[*Client]struct{}
	clientsMu sync.RWMutex

	// events carries broadcasts and membership changes in one queue so a
	// client registered after a broadcast never receives it.
	events chan event
	done   chan struct{}

	logger logger.Logger
}

type eventKind int

const (
	eventBroadcast eventKind = iota
	eventRegister
	eventUnregister
)

type event struct {
	kind   eventKind
	msg    Message
	client *Client
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHubLogger sets the hub logger.
func WithHubLogger(l logger.Logger) HubOption {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithBroadcastBuffer sets how many pending broadcasts the hub holds.
func WithBroadcastBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.events = make(chan event, n)
		}
	}
}

// NewHub creates a hub. Call Run to start it.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		clients: make(map[*Client]struct{}),
		events:  make(chan event, defaultBroadcastBuffer),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Get().Named("feed")
	}
	return h
}

// Run processes registrations and broadcasts until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	h.logger.Info(ctx, "feed hub started")
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return
		case ev := <-h.events:
			switch ev.kind {
			case eventRegister:
				h.registerClient(ctx, ev.client)
			case eventUnregister:
				h.unregisterClient(ctx, ev.client)
			default:
				h.fanOut(ctx, ev.msg)
			}
		}
	}
}

// Register adds a client. It is queued behind every earlier broadcast, so
// the client only receives messages broadcast after Register returns.
func (h *Hub) Register(c *Client) error {
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}
	select {
	case h.events <- event{kind: eventRegister, client: c}:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.events <- event{kind: eventUnregister, client: c}:
	case <-h.done:
	}
}

// Broadcast queues msg for delivery. It never blocks; when the hub is
// saturated the message is dropped.
func (h *Hub) Broadcast(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	select {
	case h.events <- event{kind: eventBroadcast, msg: msg}:
	default:
		metrics.RecordFeedDropped()
		h.logger.Warn(context.Background(), "broadcast buffer full, dropping message",
			logger.String("session", msg.SessionID),
			logger.String("type", string(msg.Type)),
		)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) registerClient(ctx context.Context, c *Client) {
	h.clientsMu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.clientsMu.Unlock()

	metrics.UpdateFeedClients(n)
	h.logger.Debug(ctx, "client connected",
		logger.String("client", c.ID),
		logger.String("session", c.SessionID),
		logger.Int("clients", n),
	)
}

func (h *Hub) unregisterClient(ctx context.Context, c *Client) {
	h.clientsMu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.clientsMu.Unlock()

	if ok {
		metrics.UpdateFeedClients(n)
		h.logger.Debug(ctx, "client disconnected",
			logger.String("client", c.ID),
			logger.Int("clients", n),
		)
	}
}

func (h *Hub) fanOut(ctx context.Context, msg Message) {
	h.clientsMu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		if c.SessionID == msg.SessionID {
			targets = append(targets, c)
		}
	}
	h.clientsMu.RUnlock()

	for _, c := range targets {
		if c.trySend(msg) {
			metrics.RecordFeedMessage()
			continue
		}
		// Slow consumer: its buffer is full, disconnect it.
		metrics.RecordFeedDropped()
		h.logger.Warn(ctx, "client buffer full, disconnecting", logger.String("client", c.ID))
		h.unregisterClient(ctx, c)
	}
}

func (h *Hub) shutdown(ctx context.Context) {
	h.clientsMu.Lock()
	n := len(h.clients)
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	h.clientsMu.Unlock()

	metrics.UpdateFeedClients(0)
	h.logger.Info(ctx, "feed hub stopped", logger.Int("clients", n))
}
