// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package synergy

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/proxy"
	"golang.org/x/time/rate"
)

// NetTransport defaults.
const (
	DefaultDialTimeout = 10 * time.Second

	// DefaultPollTimeout is longer than ServerKeepAlivePeriod, so Receive
	// blocks until data arrives on a live session and only reports an empty
	// read once the server has gone quiet.
	DefaultPollTimeout = 5 * time.Second
)

// NetTransportConfig configures a NetTransport.
type NetTransportConfig struct {
	// DialTimeout bounds each connection attempt and each write.
	DialTimeout time.Duration

	// PollTimeout is how long Receive waits for data before reporting a
	// zero-length read. Every empty read costs the client its poll interval,
	// so short timeouts delay input.
	PollTimeout time.Duration

	// SOCKS5Addr, when set, routes the connection through a SOCKS5 proxy.
	SOCKS5Addr string

	// ConnectRate and ConnectBurst limit connection attempts independently
	// of the client's reconnect delay.
	ConnectRate  rate.Limit
	ConnectBurst int

	Logger Logger
}

// NetTransportOption represents a functional option for configuring a NetTransport.
type NetTransportOption func(*NetTransportConfig)

// WithDialTimeout sets the connect and write timeout.
func WithDialTimeout(timeout time.Duration) NetTransportOption {
	return func(cfg *NetTransportConfig) {
		cfg.DialTimeout = timeout
	}
}

// WithPollTimeout sets how long a receive waits for data.
func WithPollTimeout(timeout time.Duration) NetTransportOption {
	return func(cfg *NetTransportConfig) {
		cfg.PollTimeout = timeout
	}
}

// WithSOCKS5 routes connections through the SOCKS5 proxy at addr.
func WithSOCKS5(addr string) NetTransportOption {
	return func(cfg *NetTransportConfig) {
		cfg.SOCKS5Addr = addr
	}
}

// WithConnectRate limits connection attempts to r per second with the given burst.
func WithConnectRate(r rate.Limit, burst int) NetTransportOption {
	return func(cfg *NetTransportConfig) {
		cfg.ConnectRate = r
		cfg.ConnectBurst = burst
	}
}

// WithTransportLogger sets the logger used for transport errors.
func WithTransportLogger(logger Logger) NetTransportOption {
	return func(cfg *NetTransportConfig) {
		cfg.Logger = logger
	}
}

// NetTransport is a TCP Transport, optionally through a SOCKS5 proxy.
// Close may be called from any goroutine and unblocks pending calls.
type NetTransport struct {
	addr    string
	config  NetTransportConfig
	logger  Logger
	limiter *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	conn net.Conn
}

// NewNetTransport creates a transport that connects to addr ("host:port").
// A missing port defaults to DefaultPort.
func NewNetTransport(addr string, options ...NetTransportOption) *NetTransport {
	cfg := NetTransportConfig{
		DialTimeout:  DefaultDialTimeout,
		PollTimeout:  DefaultPollTimeout,
		ConnectRate:  rate.Limit(2),
		ConnectBurst: 1,
	}
	for _, option := range options {
		option(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = &NoOpLogger{}
	}

	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, strconv.Itoa(DefaultPort))
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &NetTransport{
		addr:    addr,
		config:  cfg,
		logger:  cfg.Logger.With(Field{Key: "server", Value: addr}),
		limiter: rate.NewLimiter(cfg.ConnectRate, cfg.ConnectBurst),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Addr returns the server address in host:port form.
func (t *NetTransport) Addr() string {
	return t.addr
}

func (t *NetTransport) dialer() (proxy.ContextDialer, error) {
	direct := &net.Dialer{Timeout: t.config.DialTimeout, KeepAlive: 30 * time.Second}
	if t.config.SOCKS5Addr == "" {
		return direct, nil
	}

	d, err := proxy.SOCKS5("tcp", t.config.SOCKS5Addr, nil, direct)
	if err != nil {
		return nil, errors.Wrap(err, "cannot create SOCKS5 dialer")
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, errors.New("SOCKS5 dialer does not support contexts")
	}
	return cd, nil
}

// Connect dials the server, replacing any previous connection.
func (t *NetTransport) Connect() bool {
	t.dropConn()

	if err := t.limiter.Wait(t.ctx); err != nil {
		return false
	}

	d, err := t.dialer()
	if err != nil {
		t.logger.Error("Connect failed", Field{Key: "error", Value: err})
		return false
	}

	ctx, cancel := context.WithTimeout(t.ctx, t.config.DialTimeout)
	defer cancel()

	conn, err := d.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		t.logger.Debug("Connect failed", Field{Key: "error", Value: errors.Wrap(err, "dial")})
		return false
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ctx.Err() != nil {
		_ = conn.Close()
		return false
	}
	t.conn = conn
	return true
}

func (t *NetTransport) current() net.Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn
}

func (t *NetTransport) dropConn() {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

// Receive blocks until data is available or the poll timeout expires. A
// timeout with no data is a successful zero-length read. Close unblocks it.
func (t *NetTransport) Receive(buf []byte) (int, bool) {
	conn := t.current()
	if conn == nil {
		return 0, false
	}
	if len(buf) == 0 {
		return 0, true
	}

	if err := conn.SetReadDeadline(time.Now().Add(t.config.PollTimeout)); err != nil {
		t.logger.Warn("Receive failed", Field{Key: "error", Value: errors.Wrap(err, "set read deadline")})
		return 0, false
	}

	n, err := conn.Read(buf)
	if n > 0 {
		return n, true
	}
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return 0, true
		}
		t.logger.Debug("Receive failed", Field{Key: "error", Value: errors.Wrap(err, "read")})
		return 0, false
	}
	return 0, true
}

// Send writes buf in full.
func (t *NetTransport) Send(buf []byte) bool {
	conn := t.current()
	if conn == nil {
		return false
	}

	if err := conn.SetWriteDeadline(time.Now().Add(t.config.DialTimeout)); err != nil {
		t.logger.Warn("Send failed", Field{Key: "error", Value: errors.Wrap(err, "set write deadline")})
		return false
	}
	if _, err := conn.Write(buf); err != nil {
		t.logger.Debug("Send failed", Field{Key: "error", Value: errors.Wrapf(err, "write %d bytes", len(buf))})
		return false
	}
	return true
}

// Now returns a monotonic millisecond clock.
func (t *NetTransport) Now() uint32 {
	return monotonicMillis()
}

// Sleep pauses for ms milliseconds or until the transport is closed.
func (t *NetTransport) Sleep(ms uint32) {
	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-t.ctx.Done():
	}
}

// Close closes the connection and makes every later Connect fail. It is
// safe to call Close multiple times.
func (t *NetTransport) Close() error {
	t.cancel()

	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	if conn == nil {
		return nil
	}
	if err := conn.Close(); err != nil {
		return errors.Wrap(err, "close connection")
	}
	return nil
}
