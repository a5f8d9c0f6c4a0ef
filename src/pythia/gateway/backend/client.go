package backend

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	pythiaerrors "github.com/pythia-ide/pythia/src/pythia/internal/errors"
	"go.uber.org/zap"
)

const (
	_defaultDialTimeout  = 3 * time.Second
	_defaultMaxLineBytes = 8 << 20
	_readBufferSize      = 64 << 10
)

// Client issues requests to one backend worker over its TCP channel.
// Messages are newline delimited JSON objects. The connection is opened
// lazily on the first request and reused while it stays healthy; a timeout
// or protocol violation discards it so a stale in-flight reply can never be
// matched to a later request.
type Client interface {
	// Request sends one message and blocks until its reply line arrives or the
	// timeout elapses. The payload fields are flattened into the message next
	// to the method name.
	Request(ctx context.Context, method string, payload map[string]interface{}, timeout time.Duration) (*Response, error)
	// Close drops the connection if one is open. Safe to call repeatedly.
	Close() error
	// Addr returns the channel's target address.
	Addr() string
}

// Interface compliance checks.
var _ Client = (*client)(nil)

// Option defines options to customize the client's behavior.
type Option func(*client)

// WithLogger overrides the default noop logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *client) {
		c.logger = logger
	}
}

// WithDialTimeout overrides the default connection timeout.
func WithDialTimeout(d time.Duration) Option {
	return func(c *client) {
		c.dialTimeout = d
	}
}

// WithMaxLineBytes overrides the maximum accepted response line length.
func WithMaxLineBytes(n int) Option {
	return func(c *client) {
		c.maxLineBytes = n
	}
}

type client struct {
	addr         string
	dialTimeout  time.Duration
	maxLineBytes int
	logger       *zap.SugaredLogger

	// mu serializes requests: the channel carries one in-flight request at
	// a time and replies are matched to requests purely by order.
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
}

// New returns a Client for the given backend address.
func New(addr string, opts ...Option) Client {
	c := &client{
		addr:         addr,
		dialTimeout:  _defaultDialTimeout,
		maxLineBytes: _defaultMaxLineBytes,
		logger:       zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *client) Request(ctx context.Context, method string, payload map[string]interface{}, timeout time.Duration) (*Response, error) {
	message := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		message[k] = v
	}
	message["method"] = method

	body, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("encoding %q request: %w", method, err)
	}
	body = append(body, '\n')

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureConnLocked(); err != nil {
		return nil, err
	}

	start := time.Now()
	deadline := start.Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	c.conn.SetDeadline(deadline)

	if _, err := c.conn.Write(body); err != nil {
		c.discardLocked()
		return nil, c.requestError(err, start)
	}

	line, err := c.readLineLocked()
	if err != nil {
		c.discardLocked()
		return nil, c.requestError(err, start)
	}

	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		c.discardLocked()
		return nil, &pythiaerrors.ProtocolError{Reason: fmt.Sprintf("malformed response to %q: %v", method, err)}
	}

	c.conn.SetDeadline(time.Time{})
	return &resp, nil
}

func (c *client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.reader = nil
	return err
}

func (c *client) Addr() string {
	return c.addr
}

func (c *client) ensureConnLocked() error {
	if c.conn != nil {
		return nil
	}

	conn, err := net.DialTimeout("tcp", c.addr, c.dialTimeout)
	if err != nil {
		return &pythiaerrors.ConnectionError{Addr: c.addr, Err: err}
	}
	c.conn = conn
	c.reader = bufio.NewReaderSize(conn, _readBufferSize)
	return nil
}

func (c *client) discardLocked() {
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = nil
	c.reader = nil
}

// readLineLocked reads one newline terminated reply, bounded by maxLineBytes.
func (c *client) readLineLocked() ([]byte, error) {
	var line []byte
	for {
		chunk, err := c.reader.ReadSlice('\n')
		line = append(line, chunk...)
		if len(line) > c.maxLineBytes {
			return nil, &pythiaerrors.ProtocolError{Reason: fmt.Sprintf("response line exceeds %d bytes", c.maxLineBytes)}
		}
		if err == nil {
			return line, nil
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		return nil, err
	}
}

func (c *client) requestError(err error, start time.Time) error {
	var protocolErr *pythiaerrors.ProtocolError
	if errors.As(err, &protocolErr) {
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &pythiaerrors.RequestTimeout{Addr: c.addr, Elapsed: time.Since(start)}
	}
	return &pythiaerrors.ConnectionError{Addr: c.addr, Err: err}
}

// WaitReady blocks until addr accepts TCP connections, probing on the given
// interval. Returns once a probe succeeds, or with an error once ctx ends.
func WaitReady(ctx context.Context, addr string, interval time.Duration) error {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		conn, err := net.DialTimeout("tcp", addr, interval)
		if err == nil {
			conn.Close()
			return nil
		}

		select {
		case <-ctx.Done():
			return &pythiaerrors.ConnectionError{Addr: addr, Err: ctx.Err()}
		case <-ticker.C:
		}
	}
}
