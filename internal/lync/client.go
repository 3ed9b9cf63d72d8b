package lync

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// closeOnce wraps a channel with sync.Once to prevent double-close panics.
type closeOnce struct {
	ch   chan struct{}
	once sync.Once
}

func newCloseOnce() *closeOnce {
	return &closeOnce{ch: make(chan struct{})}
}

func (c *closeOnce) Close() {
	c.once.Do(func() { close(c.ch) })
}

func (c *closeOnce) Done() <-chan struct{} {
	return c.ch
}

// Default timeouts and intervals for controller communication.
const (
	defaultConnectTimeout    = 10 * time.Second
	defaultWriteTimeout      = 5 * time.Second
	defaultReconnectInterval = 5 * time.Second
	maxReconnectInterval     = 2 * time.Minute

	// eventQueueSize buffers decoded events between the socket reader and
	// the consumer. A full-status refresh produces roughly 40 frames.
	eventQueueSize = 256
)

// Config holds controller connection settings.
type Config struct {
	// Address is the controller's host:port.
	Address string

	// ConnectTimeout bounds a single dial. Default: 10 seconds.
	ConnectTimeout time.Duration

	// WriteTimeout bounds a single frame write. Default: 5 seconds.
	WriteTimeout time.Duration

	// ReconnectInterval is the first delay after a failed dial or a dropped
	// link. It grows by half on each consecutive failure. Default: 5 seconds.
	ReconnectInterval time.Duration

	// MaxReconnectInterval caps the backoff. Default: 2 minutes.
	MaxReconnectInterval time.Duration
}

// Stats holds operational statistics.
type Stats struct {
	FramesTx        uint64
	FramesRx        uint64
	FramesInvalid   uint64
	ErrorsTotal     uint64
	ReconnectsTotal uint64
	LastActivity    time.Time
	Connected       bool
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Connector is the controller link as seen by the bridge.
type Connector interface {
	Send(ctx context.Context, cmd Command) error
	Events() <-chan Event
	IsConnected() bool
	Stats() Stats
}

var _ Connector = (*Client)(nil)

// Client maintains a TCP connection to the controller.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Frames from concurrent Send calls are never interleaved.
//
// Auto-Reconnection:
//   - Dial failures and dropped links are reported as ConnectionError
//     events and retried with exponential backoff (x1.5, capped).
//   - Every successful dial is reported as a Connected event.
//   - Reconnection stops only when Close is called or the Run context ends.
type Client struct {
	cfg Config

	conn      net.Conn
	connected bool
	connMu    sync.RWMutex

	// writeMu serialises frames on the socket.
	writeMu sync.Mutex

	events chan Event

	done *closeOnce
	wg   sync.WaitGroup

	logger   Logger
	loggerMu sync.RWMutex

	framesTx        atomic.Uint64
	framesRx        atomic.Uint64
	framesInvalid   atomic.Uint64
	errorsTotal     atomic.Uint64
	reconnectsTotal atomic.Uint64
	lastActivity    atomic.Int64
}

// NewClient creates a client. Call Run to start connecting.
func NewClient(cfg Config) *Client {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.ReconnectInterval == 0 {
		cfg.ReconnectInterval = defaultReconnectInterval
	}
	if cfg.MaxReconnectInterval == 0 {
		cfg.MaxReconnectInterval = maxReconnectInterval
	}

	return &Client{
		cfg:    cfg,
		events: make(chan Event, eventQueueSize),
		done:   newCloseOnce(),
	}
}

// Events returns the stream of connection and controller events. The
// channel is closed after Run returns.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Run dials the controller and keeps the link up until ctx is cancelled or
// Close is called. It always returns nil after shutdown; connection
// failures are delivered as events, never as a return value.
func (c *Client) Run(ctx context.Context) error {
	c.wg.Add(1)
	defer c.wg.Done()
	defer close(c.events)

	stop := context.AfterFunc(ctx, c.done.Close)
	defer stop()

	// runCtx ends on Close as well as on ctx, so a pending dial is aborted.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-c.done.Done():
			cancel()
		case <-runCtx.Done():
		}
	}()

	backoff := c.cfg.ReconnectInterval
	everConnected := false

	for !c.isClosed() {
		conn, err := c.dial(runCtx)
		if err != nil {
			c.errorsTotal.Add(1)
			c.logWarn("controller dial failed", "address", c.cfg.Address, "error", err, "retry_in", backoff.String())
			c.emit(ConnectionError{Err: err})
			if !c.sleep(backoff) {
				return nil
			}
			backoff = c.nextBackoff(backoff)
			continue
		}

		if !c.attach(conn) {
			return nil
		}
		if everConnected {
			c.reconnectsTotal.Add(1)
		}
		everConnected = true
		backoff = c.cfg.ReconnectInterval

		c.logInfo("controller connected", "address", c.cfg.Address)
		c.emit(Connected{Address: c.cfg.Address})

		err = c.receive(conn)
		c.detach(conn)

		if c.isClosed() {
			return nil
		}

		c.errorsTotal.Add(1)
		c.logWarn("controller connection lost", "error", err)
		c.emit(ConnectionError{Err: fmt.Errorf("%w: %w", ErrConnectionFailed, err)})
		if !c.sleep(backoff) {
			return nil
		}
		backoff = c.nextBackoff(backoff)
	}
	return nil
}

// dial opens a TCP connection with the configured timeout.
func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", c.cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrConnectionFailed, c.cfg.Address, err)
	}
	return conn, nil
}

// receive decodes frames until the connection fails.
func (c *Client) receive(conn net.Conn) error {
	dec := NewDecoder(conn)
	for {
		ev, err := dec.Next()
		if err != nil {
			if errors.Is(err, ErrInvalidFrame) {
				c.framesInvalid.Add(1)
				c.logDebug("dropping invalid frame", "error", err)
				continue
			}
			return err
		}

		c.framesRx.Add(1)
		c.lastActivity.Store(time.Now().Unix())
		c.emit(ev)
	}
}

// emit hands an event to the consumer, giving up only on shutdown.
func (c *Client) emit(ev Event) {
	select {
	case c.events <- ev:
	case <-c.done.Done():
	}
}

// attach publishes conn for Send. It refuses once Close has begun, since
// Close only tears down the connection it can see.
func (c *Client) attach(conn net.Conn) bool {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.isClosed() {
		conn.Close()
		return false
	}
	c.conn = conn
	c.connected = true
	c.lastActivity.Store(time.Now().Unix())
	return true
}

func (c *Client) detach(conn net.Conn) {
	c.connMu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.connected = false
	c.connMu.Unlock()
	conn.Close()
}

// sleep waits for d or shutdown. It reports false on shutdown.
func (c *Client) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-c.done.Done():
		return false
	case <-t.C:
		return true
	}
}

// nextBackoff grows the delay by half, capped at MaxReconnectInterval.
func (c *Client) nextBackoff(d time.Duration) time.Duration {
	next := time.Duration(float64(d) * 1.5)
	if next > c.cfg.MaxReconnectInterval {
		next = c.cfg.MaxReconnectInterval
	}
	return next
}

func (c *Client) isClosed() bool {
	select {
	case <-c.done.Done():
		return true
	default:
		return false
	}
}

// Send writes one command frame.
//
// Returns ErrNotConnected while the link is down and an error wrapping
// ErrWriteFailed if the socket write fails. Send does not retry.
func (c *Client) Send(ctx context.Context, cmd Command) error {
	if c.isClosed() {
		return ErrClosed
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrWriteFailed, ctx.Err())
	default:
	}

	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}

	deadline := time.Now().Add(c.cfg.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	frame := cmd.Encode()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("%w: set deadline: %w", ErrWriteFailed, err)
	}
	if _, err := conn.Write(frame); err != nil {
		c.errorsTotal.Add(1)
		return fmt.Errorf("%w: %s: %w", ErrWriteFailed, cmd.Op, err)
	}

	c.framesTx.Add(1)
	c.lastActivity.Store(time.Now().Unix())
	c.logDebug("frame sent", "command", cmd.String())
	return nil
}

// Close stops reconnecting, closes the socket and waits for Run to return.
// Safe to call multiple times.
func (c *Client) Close() error {
	c.done.Close()

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.connected = false
	c.connMu.Unlock()

	c.wg.Wait()
	return nil
}

// IsConnected returns true while the TCP link is up.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected
}

// Stats returns current operational statistics.
func (c *Client) Stats() Stats {
	return Stats{
		FramesTx:        c.framesTx.Load(),
		FramesRx:        c.framesRx.Load(),
		FramesInvalid:   c.framesInvalid.Load(),
		ErrorsTotal:     c.errorsTotal.Load(),
		ReconnectsTotal: c.reconnectsTotal.Load(),
		LastActivity:    time.Unix(c.lastActivity.Load(), 0),
		Connected:       c.IsConnected(),
	}
}

// SetLogger sets the logger for this client.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

func (c *Client) logDebug(msg string, keysAndValues ...any) {
	if logger := c.getLogger(); logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}

func (c *Client) logInfo(msg string, keysAndValues ...any) {
	if logger := c.getLogger(); logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

func (c *Client) logWarn(msg string, keysAndValues ...any) {
	if logger := c.getLogger(); logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}
