package feed

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/okian/pitchtag/pkg/logger"
)

const defaultClientBuffer = 64

// SubscribeFunc calls attach with the initial message of a session while
// no change to that session can be broadcast, or returns an error when the
// session does not exist. Errors from attach are returned unchanged.
type SubscribeFunc func(ctx context.Context, sessionID string, attach func(Message) error) error

// Handler upgrades requests to websocket subscriptions.
type Handler struct {
	hub       *Hub
	subscribe SubscribeFunc
	buffer   int
	upgrader websocket.Upgrader
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithClientBuffer sets the per-client outbound buffer.
func WithClientBuffer(n int) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// WithCheckOrigin overrides the upgrader origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) HandlerOption {
	return func(h *Handler) {
		if fn != nil {
			h.upgrader.CheckOrigin = fn
		}
	}
}

// AllowOrigins returns an origin check accepting requests without an
// Origin header, same-host requests and the listed origins. "*" accepts
// every origin.
func AllowOrigins(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := allowed[strings.ToLower(origin)]; ok {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// NewHandler creates a handler registering clients with hub. subscribe is
// consulted before the upgrade so unknown sessions get a plain 404. Origins
// are checked with AllowOrigins(nil) unless WithCheckOrigin says otherwise.
func NewHandler(hub *Hub, subscribe SubscribeFunc, opts ...HandlerOption) *Handler {
	h := &Handler{
		hub:       hub,
		subscribe: subscribe,
		buffer:    defaultClientBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     AllowOrigins(nil),
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Serve subscribes the caller to sessionID. The client is registered
// together with its snapshot, so every later change reaches it in order.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request, sessionID string) {
	ctx := r.Context()
	if !h.upgrader.CheckOrigin(r) {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	c := newClient(uuid.NewString(), sessionID, nil, h.hub, h.buffer)
	err := h.subscribe(ctx, sessionID, func(first Message) error {
		c.trySend(first)
		return h.hub.Register(c)
	})
	switch {
	case errors.Is(err, ErrHubStopped):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.hub.logger.Warn(ctx, "websocket upgrade failed", logger.Error(err))
		h.hub.Unregister(c)
		return
	}
	c.conn = conn

	// The request context ends when the handler returns.
	bg := context.WithoutCancel(ctx)
	go c.writePump(bg)
	go c.readPump(bg)
}
