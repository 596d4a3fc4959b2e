// Package wsclient is the persistent WebSocket channel to the suggestion
// service. It reconnects with exponential backoff and never blocks the
// caller of Send.
package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iw2rmb/quire/internal/logging"
	"github.com/iw2rmb/quire/suggest"
)

var (
	// ErrNotConnected is returned by Send while no connection is up.
	ErrNotConnected = errors.New("wsclient: not connected")
	// ErrQueueFull is returned by Send when the send queue is full.
	ErrQueueFull = errors.New("wsclient: send queue full")
)

const (
	DefaultQueueSize      = 64
	DefaultInitialBackoff = 250 * time.Millisecond
	DefaultMaxBackoff     = 10 * time.Second
	DefaultPingInterval   = 30 * time.Second

	writeWait = 10 * time.Second
)

// Options configures a Client.
type Options struct {
	URL string
	// Handler receives every decoded response on the reader goroutine.
	Handler func(suggest.Response)
	// OnConnect runs after each successful dial, once Send works.
	OnConnect func()

	QueueSize      int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	PingInterval   time.Duration
	// PongWait bounds the silence after which the connection counts as
	// dead. Zero means PingInterval plus 10s.
	PongWait time.Duration

	Dialer  *websocket.Dialer
	Metrics *Metrics
	Logger  *slog.Logger
}

// Client is a reconnecting suggestion channel. It implements
// suggest.Sender.
type Client struct {
	opts    Options
	dialer  *websocket.Dialer
	metrics *Metrics
	log     *slog.Logger

	queue     chan []byte
	connected atomic.Bool

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
	closed bool
}

// New creates a client. Nothing is dialed until Run.
func New(opts Options) *Client {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = DefaultInitialBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = DefaultMaxBackoff
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = DefaultPingInterval
	}
	if opts.PongWait <= 0 {
		opts.PongWait = opts.PingInterval + writeWait
	}
	c := &Client{
		opts:    opts,
		dialer:  opts.Dialer,
		metrics: opts.Metrics,
		log:     logging.OrNop(opts.Logger),
		queue:   make(chan []byte, opts.QueueSize),
	}
	if c.dialer == nil {
		c.dialer = websocket.DefaultDialer
	}
	if c.metrics == nil {
		c.metrics = NewMetrics(nil)
	}
	return c
}

// Connected reports whether a connection is up.
func (c *Client) Connected() bool { return c.connected.Load() }

// Send queues req for the writer. It never blocks: while disconnected or
// when the queue is full the request is dropped and an error returned.
func (c *Client) Send(req suggest.Request) error {
	if !c.connected.Load() {
		c.metrics.Dropped.Inc()
		return ErrNotConnected
	}
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	select {
	case c.queue <- data:
		return nil
	default:
		c.metrics.Dropped.Inc()
		return ErrQueueFull
	}
}

// Dial opens one connection to the service.
func (c *Client) Dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := c.dialer.DialContext(ctx, c.opts.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.opts.URL, err)
	}
	return conn, nil
}

// Run keeps a connection up until ctx is done or Close is called. Failed
// dials and dropped connections are retried with exponential backoff and
// jitter. It returns nil on shutdown.
func (c *Client) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.cancel = cancel
	c.mu.Unlock()

	backoff := c.opts.InitialBackoff
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			c.metrics.Reconnects.Inc()
		}
		conn, err := c.Dial(ctx)
		if err == nil {
			// A connection that came up resets the backoff.
			backoff = c.opts.InitialBackoff
			if serr := c.serve(ctx, conn); ctx.Err() == nil {
				c.log.Debug("suggestion channel dropped", "error", serr)
			}
		} else if ctx.Err() == nil {
			c.log.Debug("suggestion channel dial failed", "error", err, "retry_in", backoff)
		}
		if ctx.Err() != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(jitter(backoff)):
		}
		if err != nil {
			backoff = min(backoff*2, c.opts.MaxBackoff)
		}
	}
}

// jitter spreads d over [d/2, d].
func jitter(d time.Duration) time.Duration {
	half := d / 2
	if half <= 0 {
		return d
	}
	return half + rand.N(half+1)
}

func (c *Client) serve(ctx context.Context, conn *websocket.Conn) error {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	defer func() {
		c.connected.Store(false)
		c.metrics.Connected.Set(0)
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
	}()

	// Requests queued for an earlier connection are stale.
	for drained := false; !drained; {
		select {
		case <-c.queue:
			c.metrics.Dropped.Inc()
		default:
			drained = true
		}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writeLoop(ctx, conn, done)
	}()
	defer func() {
		close(done)
		wg.Wait()
	}()

	c.connected.Store(true)
	c.metrics.Connected.Set(1)
	c.log.Debug("suggestion channel connected", "url", c.opts.URL)
	if c.opts.OnConnect != nil {
		c.opts.OnConnect()
	}

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	// Every pong or message extends the deadline; a half-open connection
	// fails the read once it passes.
	alive := func() error { return conn.SetReadDeadline(time.Now().Add(c.opts.PongWait)) }
	alive()
	conn.SetPongHandler(func(string) error { return alive() })
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		alive()
		var resp suggest.Response
		if err := json.Unmarshal(data, &resp); err != nil {
			c.log.Debug("bad suggestion response", "error", err)
			continue
		}
		c.metrics.Received.Inc()
		if c.opts.Handler != nil {
			c.opts.Handler(resp)
		}
	}
}

func (c *Client) writeLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ping := time.NewTicker(c.opts.PingInterval)
	defer ping.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case data := <-c.queue:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.metrics.Dropped.Inc()
				conn.Close()
				return
			}
			c.metrics.Sent.Inc()
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				conn.Close()
				return
			}
		}
	}
}

// Close stops Run and closes the current connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
	if c.conn == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}
