// Package transport maintains exactly one logical websocket connection to the
// server, reconnecting automatically, and delivers parsed inbound frames to
// registered handlers in arrival order. It has no domain knowledge beyond its
// own auth/ping vocabulary; chat and entity-feed frames pass through as raw
// JSON for the registered handlers to interpret.
package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/taskdeck/taskdeck-go/pkg/wire"
)

// Default timings. The reconnect delay is fixed (no backoff); the keepalive
// ping fires immediately on open and then on every interval.
const (
	DefaultReconnectDelay = 3 * time.Second
	DefaultPingInterval   = 30 * time.Second

	// reauthTimeout bounds the credential replay after a redial so a mute
	// server cannot pin the reconnect goroutine.
	reauthTimeout = 10 * time.Second
)

// State is the connection lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "disconnected"
	}
}

// Handler receives one inbound frame. Handlers run on the read loop
// goroutine, so frames are delivered in the order the connection produced
// them; every registered handler is invoked exactly once per frame.
type Handler func(frame json.RawMessage)

// Client is the reconnecting websocket transport. One logical connection per
// client; a close on an established connection schedules a redial after the
// reconnect delay unless Disconnect was called.
type Client struct {
	addr   string
	log    *slog.Logger
	dialer *websocket.Dialer

	reconnectDelay time.Duration
	pingInterval   time.Duration
	onOpen         func()

	// done is closed by Disconnect and releases anything blocked on the
	// client's lifetime.
	done chan struct{}

	mu          sync.Mutex
	state       State
	conn        *websocket.Conn
	epoch       int
	apiKey      string
	handlers    map[int]Handler
	nextHandler int
	reconnect   *time.Timer
	pingDone    chan struct{}
	dialDone    chan struct{}
	closed      bool

	// writeMu serializes socket writes across the ping loop and callers.
	writeMu sync.Mutex
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithReconnectDelay overrides the delay between a close and the redial.
func WithReconnectDelay(d time.Duration) Option {
	return func(c *Client) { c.reconnectDelay = d }
}

// WithPingInterval overrides the keepalive interval.
func WithPingInterval(d time.Duration) Option {
	return func(c *Client) { c.pingInterval = d }
}

// WithOnOpen registers a callback invoked after every Open transition,
// including reconnects. Feeds use it to replay their subscribe message so a
// new connection epoch starts from known state.
func WithOnOpen(fn func()) Option {
	return func(c *Client) { c.onOpen = fn }
}

// New creates a client for the given websocket address. No connection is
// attempted until Connect.
func New(addr string, opts ...Option) *Client {
	c := &Client{
		addr:           addr,
		log:            slog.Default(),
		dialer:         websocket.DefaultDialer,
		reconnectDelay: DefaultReconnectDelay,
		pingInterval:   DefaultPingInterval,
		handlers:       make(map[int]Handler),
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect dials the server and resolves once the socket is open. It is
// idempotent: while open it returns nil immediately, and while a dial is
// already in flight it waits for that dial to settle rather than racing a
// second one. A failed explicit Connect returns a TransportError and does not
// schedule a retry.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return &TransportError{Op: "connect", Err: ErrClosed}
	}
	if c.state == StateOpen || c.state == StateAuthenticated {
		c.mu.Unlock()
		return nil
	}
	if c.state == StateConnecting {
		wait := c.dialDone
		c.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		}
		c.mu.Lock()
		open := c.state == StateOpen || c.state == StateAuthenticated
		c.mu.Unlock()
		if !open {
			return &NotConnectedError{Op: "connect"}
		}
		return nil
	}
	c.state = StateConnecting
	c.dialDone = make(chan struct{})
	c.mu.Unlock()

	conn, _, err := c.dialer.DialContext(ctx, c.addr, nil)
	if err != nil {
		c.mu.Lock()
		if c.state == StateConnecting {
			c.state = StateDisconnected
		}
		c.settleDialLocked()
		c.mu.Unlock()
		return &TransportError{Op: "connect", Err: err}
	}

	c.adopt(conn)
	return nil
}

// settleDialLocked releases callers waiting on an in-flight dial.
func (c *Client) settleDialLocked() {
	if c.dialDone != nil {
		close(c.dialDone)
		c.dialDone = nil
	}
}

// adopt installs a freshly dialed connection and starts its read and ping
// loops under a new epoch.
func (c *Client) adopt(conn *websocket.Conn) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.epoch++
	epoch := c.epoch
	c.conn = conn
	c.state = StateOpen
	pingDone := make(chan struct{})
	c.pingDone = pingDone
	c.settleDialLocked()
	c.mu.Unlock()

	c.log.Info("Connection open", "addr", c.addr, "epoch", epoch)
	go c.readLoop(conn, epoch)
	go c.pingLoop(pingDone)
	if c.onOpen != nil {
		c.onOpen()
	}
}

// Authenticate sends an auth frame and settles on the first auth_success or
// auth_error frame. Only frame arrival settles it with a verdict; ctx
// cancellation and Disconnect release the caller without one. The temporary
// listener is removed after settling exactly once.
func (c *Client) Authenticate(ctx context.Context, apiKey string) error {
	c.mu.Lock()
	open := c.state == StateOpen || c.state == StateAuthenticated
	c.mu.Unlock()
	if !open {
		return &NotConnectedError{Op: "authenticate"}
	}

	result := make(chan error, 1)
	var once sync.Once
	handle := c.AddHandler(func(frame json.RawMessage) {
		parsed, err := wire.ParseServerFrame(frame)
		if err != nil {
			return
		}
		switch parsed.Type {
		case wire.FrameAuthSuccess:
			once.Do(func() { result <- nil })
		case wire.FrameAuthError:
			authErr := &AuthenticationError{Message: parsed.AuthError.Error}
			once.Do(func() { result <- authErr })
		}
	})
	defer c.RemoveHandler(handle)

	if err := c.Send(wire.AuthFrame{Type: wire.TypeAuth, APIKey: apiKey}); err != nil {
		return err
	}

	select {
	case err := <-result:
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.apiKey = apiKey
		if c.state == StateOpen {
			c.state = StateAuthenticated
		}
		c.mu.Unlock()
		return nil
	case <-c.done:
		return &TransportError{Op: "authenticate", Err: ErrClosed}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Send writes one outbound frame. It fails synchronously with
// NotConnectedError when the socket is not open; nothing is queued.
func (c *Client) Send(v any) error {
	c.mu.Lock()
	conn := c.conn
	open := c.state == StateOpen || c.state == StateAuthenticated
	c.mu.Unlock()
	if !open || conn == nil {
		return &NotConnectedError{Op: "send"}
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteJSON(v); err != nil {
		return &TransportError{Op: "send", Err: err}
	}
	return nil
}

// AddHandler registers a frame listener and returns its handle. Delivery
// order among listeners is unspecified.
func (c *Client) AddHandler(h Handler) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextHandler++
	id := c.nextHandler
	c.handlers[id] = h
	return id
}

// RemoveHandler deregisters a listener. Removing an unknown handle is a
// no-op.
func (c *Client) RemoveHandler(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, id)
}

// Disconnect closes the socket, cancels the keepalive and any pending
// reconnect, and clears the authenticated state. It is terminal for this
// client and safe to call multiple times.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
	c.settleDialLocked()
	if c.reconnect != nil {
		c.reconnect.Stop()
		c.reconnect = nil
	}
	if c.pingDone != nil {
		close(c.pingDone)
		c.pingDone = nil
	}
	conn := c.conn
	c.conn = nil
	c.state = StateDisconnected
	// Bump the epoch so the dying read loop cannot schedule a reconnect.
	c.epoch++
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Ready reports whether the connection is open and authenticated.
func (c *Client) Ready() bool {
	return c.State() == StateAuthenticated
}

func (c *Client) readLoop(conn *websocket.Conn, epoch int) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(epoch, err)
			return
		}
		if !json.Valid(data) {
			c.log.Warn("Dropping malformed frame", "bytes", len(data))
			continue
		}
		for _, h := range c.snapshotHandlers() {
			h(json.RawMessage(data))
		}
	}
}

func (c *Client) snapshotHandlers() []Handler {
	c.mu.Lock()
	defer c.mu.Unlock()
	handlers := make([]Handler, 0, len(c.handlers))
	for _, h := range c.handlers {
		handlers = append(handlers, h)
	}
	return handlers
}

func (c *Client) handleClose(epoch int, cause error) {
	c.mu.Lock()
	if epoch != c.epoch {
		// A newer connection (or Disconnect) already superseded this one.
		c.mu.Unlock()
		return
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	if c.pingDone != nil {
		close(c.pingDone)
		c.pingDone = nil
	}
	c.state = StateDisconnected
	if !c.closed {
		c.reconnect = time.AfterFunc(c.reconnectDelay, c.redial)
	}
	c.mu.Unlock()

	c.log.Info("Connection closed", "epoch", epoch, "error", cause)
}

// redial re-establishes the connection after a close. A failed attempt
// schedules another after the same fixed delay; a successful one replays
// authentication with the stored credential so reconnects are transparent to
// callers.
func (c *Client) redial() {
	c.mu.Lock()
	if c.closed || c.conn != nil {
		c.mu.Unlock()
		return
	}
	c.state = StateConnecting
	c.dialDone = make(chan struct{})
	c.mu.Unlock()

	conn, _, err := c.dialer.Dial(c.addr, nil)
	if err != nil {
		c.log.Warn("Reconnect failed", "addr", c.addr, "error", err)
		c.mu.Lock()
		c.state = StateDisconnected
		c.settleDialLocked()
		if !c.closed {
			c.reconnect = time.AfterFunc(c.reconnectDelay, c.redial)
		}
		c.mu.Unlock()
		return
	}

	c.adopt(conn)

	c.mu.Lock()
	apiKey := c.apiKey
	c.mu.Unlock()
	if apiKey != "" {
		ctx, cancel := context.WithTimeout(context.Background(), reauthTimeout)
		defer cancel()
		if err := c.Authenticate(ctx, apiKey); err != nil {
			c.log.Warn("Reauthentication failed", "error", err)
		}
	}
}

// pingLoop emits a keepalive ping immediately and then on every interval
// until the connection it belongs to goes away.
func (c *Client) pingLoop(done chan struct{}) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		if err := c.Send(wire.ControlFrame{Type: wire.TypePing}); err != nil {
			return
		}
		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}
