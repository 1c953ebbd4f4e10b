// Package bridge implements the telegram.Client interface over a websocket
// connection to an external MTProto bridge process. The bridge owns the
// Telegram session; this client only speaks a small JSON call/event protocol
// with it.
//
// The bridge delivers chat identifiers in their marked form on every
// surface, so document keys computed from pushed and polled messages agree.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/leefowlercu/chatwatcher/internal/telegram"
)

const (
	defaultDialTimeout  = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second
)

// ErrNotConnected is returned by calls made while the bridge connection is
// down.
var ErrNotConnected = errors.New("bridge connection is down")

// Client talks to the bridge process. It satisfies telegram.Client.
type Client struct {
	url     string
	session string
	dialer  *websocket.Dialer
	logger  *slog.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	pending   map[string]chan frame
	handler   telegram.Handler
	warnHook  func(string)

	writeMu sync.Mutex
}

var _ telegram.Client = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a bridge client for the given websocket URL. No connection is
// made until Connect or Reconnect is called.
func New(url, session string, opts ...Option) *Client {
	c := &Client{
		url:     url,
		session: session,
		dialer: &websocket.Dialer{
			HandshakeTimeout: defaultDialTimeout,
		},
		logger:  slog.Default(),
		pending: make(map[string]chan frame),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect establishes the websocket connection and starts the read loop.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected {
		return nil
	}
	return c.dialLocked(ctx)
}

// dialLocked dials the bridge. Caller holds c.mu.
func (c *Client) dialLocked(ctx context.Context) error {
	header := map[string][]string{"X-Chatwatcher-Session": {c.session}}
	conn, _, err := c.dialer.DialContext(ctx, c.url, header)
	if err != nil {
		return fmt.Errorf("failed to dial bridge at %s; %w", c.url, err)
	}

	c.conn = conn
	c.connected = true
	go c.readLoop(conn)

	c.logger.Info("connected to bridge", "url", c.url, "session", c.session)
	return nil
}

// readLoop reads frames from one connection until it fails, routing
// responses to pending calls and events to the subscribed handler.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.connectionLost(conn, err)
			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.logger.Warn("dropping malformed bridge frame", "error", err)
			continue
		}

		switch {
		case f.ID != "":
			c.mu.Lock()
			ch, ok := c.pending[f.ID]
			if ok {
				delete(c.pending, f.ID)
			}
			c.mu.Unlock()
			if ok {
				ch <- f
			}
		case f.Event != "":
			c.dispatchEvent(f)
		}
	}
}

// connectionLost marks the client disconnected and fails all in-flight
// calls, but only if conn is still the active connection.
func (c *Client) connectionLost(conn *websocket.Conn, err error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.connected = false
	c.conn = nil
	pending := c.pending
	c.pending = make(map[string]chan frame)
	c.mu.Unlock()

	for _, ch := range pending {
		close(ch)
	}

	c.logger.Warn("bridge connection lost", "error", err)
}

// dispatchEvent delivers a push event. Handler callbacks run on the read
// loop goroutine; the engine's listener is safe for that.
func (c *Client) dispatchEvent(f frame) {
	c.mu.Lock()
	handler := c.handler
	warnHook := c.warnHook
	c.mu.Unlock()

	switch f.Event {
	case eventNewMessage:
		if handler == nil {
			return
		}
		var msg telegram.Message
		if err := json.Unmarshal(f.Data, &msg); err != nil {
			c.logger.Warn("dropping malformed new_message event", "error", err)
			return
		}
		handler.OnNewMessage(context.Background(), msg)

	case eventDeletedMessages:
		if handler == nil {
			return
		}
		var ev deletedMessagesEvent
		if err := json.Unmarshal(f.Data, &ev); err != nil {
			c.logger.Warn("dropping malformed deleted_messages event", "error", err)
			return
		}
		handler.OnMessagesDeleted(context.Background(), ev.ChatID, ev.MessageIDs)

	case eventStreamWarning:
		var ev streamWarningEvent
		if err := json.Unmarshal(f.Data, &ev); err != nil {
			c.logger.Warn("dropping malformed stream_warning event", "error", err)
			return
		}
		if warnHook != nil {
			warnHook(ev.Reason)
		}

	default:
		c.logger.Debug("ignoring unknown bridge event", "event", f.Event)
	}
}

// call performs one request/response round trip.
func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	var rawParams []byte
	if params != nil {
		var err error
		rawParams, err = json.Marshal(params)
		if err != nil {
			return fmt.Errorf("failed to marshal %s params; %w", method, err)
		}
	}

	req := request{
		ID:     uuid.NewString(),
		Method: method,
		Params: rawParams,
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request; %w", method, err)
	}

	c.mu.Lock()
	if !c.connected || c.conn == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	conn := c.conn
	ch := make(chan frame, 1)
	c.pending[req.ID] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
	err = conn.WriteMessage(websocket.TextMessage, payload)
	c.writeMu.Unlock()
	if err != nil {
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
		return fmt.Errorf("failed to send %s request; %w", method, err)
	}

	select {
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
		return ctx.Err()
	case f, ok := <-ch:
		if !ok {
			return ErrNotConnected
		}
		if f.Error != nil {
			return f.Error
		}
		if result != nil && f.Result != nil {
			if err := json.Unmarshal(f.Result, result); err != nil {
				return fmt.Errorf("failed to decode %s result; %w", method, err)
			}
		}
		return nil
	}
}

// ListDialogs returns every dialog visible to the bridge session.
func (c *Client) ListDialogs(ctx context.Context) ([]telegram.RawChat, error) {
	var out []telegram.RawChat
	if err := c.call(ctx, methodListDialogs, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ResolvePeer resolves a raw chat identifier to a fetch handle.
func (c *Client) ResolvePeer(ctx context.Context, rawID int64) (telegram.Peer, error) {
	var out telegram.Peer
	if err := c.call(ctx, methodResolvePeer, resolvePeerParams{ChatID: rawID}, &out); err != nil {
		return telegram.Peer{}, err
	}
	return out, nil
}

// FetchLatest returns up to limit most recent messages, newest first.
func (c *Client) FetchLatest(ctx context.Context, peer telegram.Peer, limit int) ([]telegram.Message, error) {
	var out []telegram.Message
	if err := c.call(ctx, methodFetchLatest, fetchLatestParams{Peer: peer, Limit: limit}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchSince returns up to limit messages with id strictly greater than
// minID, ascending.
func (c *Client) FetchSince(ctx context.Context, peer telegram.Peer, minID uint64, limit int) ([]telegram.Message, error) {
	var out []telegram.Message
	if err := c.call(ctx, methodFetchSince, fetchSinceParams{Peer: peer, MinID: minID, Limit: limit}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Subscribe registers the push-path handler, replacing any previous one.
func (c *Client) Subscribe(h telegram.Handler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

// IsConnected reports whether the websocket connection is up.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Reconnect tears down any existing connection and dials again.
func (c *Client) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
		c.connected = false
	}
	err := c.dialLocked(ctx)
	c.mu.Unlock()
	return err
}

// CatchUp asks the bridge to replay updates missed during an inconsistent
// stream. Bridges without the method map to ErrCatchUpUnsupported.
func (c *Client) CatchUp(ctx context.Context) error {
	err := c.call(ctx, methodCatchUp, nil, nil)
	var we *wireError
	if errors.As(err, &we) && we.Code == errCodeMethodNotFound {
		return telegram.ErrCatchUpUnsupported
	}
	return err
}

// Ping performs a cheap bridge round trip.
func (c *Client) Ping(ctx context.Context) error {
	return c.call(ctx, methodPing, nil, nil)
}

// SetWarningHook installs the stream warning hook.
func (c *Client) SetWarningHook(fn func(reason string)) {
	c.mu.Lock()
	c.warnHook = fn
	c.mu.Unlock()
}

// ClearWarningHook removes the stream warning hook.
func (c *Client) ClearWarningHook() {
	c.mu.Lock()
	c.warnHook = nil
	c.mu.Unlock()
}

// Run blocks until ctx is cancelled, keeping the connection available for
// push delivery. A dropped connection does not end Run; the engine's
// watchdog drives reconnection.
func (c *Client) Run(ctx context.Context) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// Close tears down the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}
