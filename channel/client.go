// Package channel maintains the single persistent bidirectional
// connection to the chat server. It emits user actions and fans
// server-pushed events into registered sinks.
//
// The source of truth for the wire contract is domain/event. The
// reconnect policy is deliberate client behavior: capped exponential
// backoff, a fresh join of the self room on every connect, and a
// resync hook so the session can refetch history and roster instead of
// assuming at-least-once delivery.
package channel

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"chat-console/contract"
	"chat-console/domain/event"
	gerrors "chat-console/errors"

	"github.com/gorilla/websocket"
)

const (
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 30 * time.Second
)

// Client implements contract.Worker (the read loop) and
// contract.Emitter (Send). Run it under a Supervisor.
type Client struct {
	url    string
	self   string
	log    *slog.Logger
	dialer *websocket.Dialer
	header http.Header

	mu   sync.Mutex // guards conn writes and replacement
	conn *websocket.Conn

	sinks  []contract.EventSink
	resync func(ctx context.Context) error
}

// Option tweaks the client at construction time.
type Option func(*Client)

// WithResync installs the hook run after every successful (re)connect,
// once the self room has been joined.
func WithResync(fn func(ctx context.Context) error) Option {
	return func(c *Client) { c.resync = fn }
}

// WithHeader adds connection headers (e.g. a session cookie).
func WithHeader(h http.Header) Option {
	return func(c *Client) { c.header = h }
}

func NewClient(wsURL, self string, log *slog.Logger, opts ...Option) *Client {
	c := &Client{
		url:    wsURL,
		self:   self,
		log:    log,
		dialer: websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddSinks registers consumers of decoded server events. Not safe to
// call once Run has started.
func (c *Client) AddSinks(sinks ...contract.EventSink) *Client {
	c.sinks = append(c.sinks, sinks...)
	return c
}

// Send emits a named client event. Concurrent callers are serialized;
// sending on a disconnected channel fails fast so the action that
// triggered it can surface the failure locally.
func (c *Client) Send(name string, payload any) error {
	raw, err := event.Encode(name, payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return gerrors.ErrChannelClosed
	}
	if err = c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		return fmt.Errorf("%w: %v", gerrors.ErrChannelClosed, err)
	}
	return nil
}

// Run dials, joins the self identity room, resyncs, then pumps events
// until the connection drops; it then reconnects with backoff. Returns
// nil only when ctx is canceled.
func (c *Client) Run(ctx context.Context) error {
	backoff := initialBackoff
	for {
		if ctx.Err() != nil {
			return nil
		}

		conn, err := c.connect(ctx)
		if err != nil {
			c.log.Warn("Event channel dial failed", "error", err, "retry_in", backoff)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = initialBackoff

		err = c.pump(ctx, conn)
		c.drop()
		if ctx.Err() != nil {
			return nil
		}
		c.log.Warn("Event channel lost, reconnecting", "error", err)
	}
}

// connect dials, stores the connection, joins the self room and runs
// the resync hook. Any failure tears the connection back down.
func (c *Client) connect(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := c.dialer.DialContext(ctx, c.url, c.header)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	if err = c.Send(event.JoinName, event.Join{Room: c.self}); err != nil {
		c.drop()
		return nil, err
	}
	if c.resync != nil {
		if err = c.resync(ctx); err != nil {
			c.log.Warn("Resync after connect failed", "error", err)
		}
	}
	c.log.Info("Event channel connected", "room", c.self)
	return conn, nil
}

// pump reads frames until the connection fails. Decode problems are
// per-event: they are logged and the frame is dropped, the channel
// itself stays up.
func (c *Client) pump(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		// Unblock ReadMessage when the context is canceled; exit with
		// the pump so watchers do not pile up across reconnects.
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		name, payload, err := event.Decode(raw)
		if err != nil {
			c.log.Debug("Dropping event", "event", name, "error", err)
			continue
		}
		for _, sink := range c.sinks {
			if err := sink.Consume(ctx, name, payload); err != nil {
				c.log.Error("Event sink failed", "event", name, "error", err)
			}
		}
	}
}

func (c *Client) drop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}
