// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package synergy

import (
	"context"
	"fmt"
	"io"
	"time"
	"unicode/utf8"
)

// Defaults applied by New.
const (
	DefaultClientName        = "Android"
	DefaultWidth             = 1024
	DefaultHeight            = 600
	DefaultReceiveBufferSize = 4096
	DefaultReplyBufferSize   = 1024
	DefaultIdleTimeout       = 2 * time.Second
	DefaultReconnectDelay    = time.Second
	DefaultPollInterval      = 500 * time.Millisecond
)

// Config configures a Client. The identity fields are fixed for the life of
// a session; use Reconfigure to change them.
type Config struct {
	// ClientName is the screen name announced in the hello reply. It must
	// match a screen in the server's layout.
	ClientName string

	// Width and Height are the screen size reported in DINF replies and
	// passed to DeviceSink.OnConnected.
	Width  int
	Height int

	// Sink receives input events. Defaults to NopDeviceSink.
	Sink DeviceSink

	// Logger specifies the logger instance to use for protocol traces.
	Logger Logger

	// Metrics specifies the metrics collector to use.
	Metrics MetricsCollector

	// ReceiveBufferSize bounds the largest frame that can be processed.
	// Larger frames are drained and discarded.
	ReceiveBufferSize int

	// ReplyBufferSize bounds the largest reply, and thereby the clipboard
	// text that can be pushed to the server.
	ReplyBufferSize int

	// IdleTimeout is the silence after which a handshaken session is
	// considered dead. Servers send a keepalive well within it.
	IdleTimeout time.Duration

	// ReconnectDelay is the pause after any failure before reconnecting.
	ReconnectDelay time.Duration

	// PollInterval is the pause after a receive that returned no data.
	PollInterval time.Duration
}

// Option represents a functional option for configuring a Client.
type Option func(*Config)

// WithClientName sets the screen name announced to the server.
func WithClientName(name string) Option {
	return func(cfg *Config) {
		cfg.ClientName = name
	}
}

// WithScreenSize sets the screen size reported to the server.
func WithScreenSize(width, height int) Option {
	return func(cfg *Config) {
		cfg.Width = width
		cfg.Height = height
	}
}

// WithDeviceSink sets the receiver of input events.
func WithDeviceSink(sink DeviceSink) Option {
	return func(cfg *Config) {
		cfg.Sink = sink
	}
}

// WithLogger sets the logger for the client.
// Use NoOpLogger to disable logging or provide a custom implementation.
func WithLogger(logger Logger) Option {
	return func(cfg *Config) {
		cfg.Logger = logger
	}
}

// WithMetrics sets the metrics collector for the client.
func WithMetrics(metrics MetricsCollector) Option {
	return func(cfg *Config) {
		cfg.Metrics = metrics
	}
}

// WithReceiveBufferSize sets the receive buffer capacity in bytes.
func WithReceiveBufferSize(size int) Option {
	return func(cfg *Config) {
		cfg.ReceiveBufferSize = size
	}
}

// WithReplyBufferSize sets the reply buffer capacity in bytes.
func WithReplyBufferSize(size int) Option {
	return func(cfg *Config) {
		cfg.ReplyBufferSize = size
	}
}

// WithIdleTimeout sets the keepalive silence threshold.
func WithIdleTimeout(timeout time.Duration) Option {
	return func(cfg *Config) {
		cfg.IdleTimeout = timeout
	}
}

// WithReconnectDelay sets the backoff after a failure.
func WithReconnectDelay(delay time.Duration) Option {
	return func(cfg *Config) {
		cfg.ReconnectDelay = delay
	}
}

// WithPollInterval sets the pause after an empty receive.
func WithPollInterval(interval time.Duration) Option {
	return func(cfg *Config) {
		cfg.PollInterval = interval
	}
}

func (cfg *Config) applyDefaults() {
	if cfg.ClientName == "" {
		cfg.ClientName = DefaultClientName
	}
	if cfg.Width == 0 && cfg.Height == 0 {
		cfg.Width, cfg.Height = DefaultWidth, DefaultHeight
	}
	if cfg.Sink == nil {
		cfg.Sink = NopDeviceSink{}
	}
	if cfg.Logger == nil {
		cfg.Logger = &NoOpLogger{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &NoOpMetrics{}
	}
	if cfg.ReceiveBufferSize == 0 {
		cfg.ReceiveBufferSize = DefaultReceiveBufferSize
	}
	if cfg.ReplyBufferSize == 0 {
		cfg.ReplyBufferSize = DefaultReplyBufferSize
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.ReconnectDelay == 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
}

func (cfg *Config) validate() error {
	validator := newInputValidator()

	if err := validator.ValidateClientName(cfg.ClientName); err != nil {
		return configurationError("New", "invalid client name", err)
	}
	if err := validator.ValidateScreenSize(cfg.Width, cfg.Height); err != nil {
		return configurationError("New", "invalid screen size", err)
	}
	if err := validator.ValidateBufferSizes(cfg.ReceiveBufferSize, cfg.ReplyBufferSize, cfg.ClientName); err != nil {
		return configurationError("New", "invalid buffer sizes", err)
	}
	for name, d := range map[string]time.Duration{
		"idle timeout":    cfg.IdleTimeout,
		"reconnect delay": cfg.ReconnectDelay,
		"poll interval":   cfg.PollInterval,
	} {
		if err := validator.ValidateDuration(name, d); err != nil {
			return configurationError("New", "invalid "+name, err)
		}
	}
	return nil
}

func millis(d time.Duration) uint32 {
	return uint32(d.Milliseconds()) // #nosec G115 - validated by ValidateDuration
}

// Client is a Synergy client session engine. It owns its session state and
// buffers exclusively and is not safe for concurrent use: one goroutine
// calls Update repeatedly, either directly, through Run, or through a Runner.
type Client struct {
	transport Transport
	config    Config
	logger    Logger
	metrics   MetricsCollector
	sink      DeviceSink

	session Session
	frames  *frameReader
	reply   *replyBuffer

	idleMs      uint32
	reconnectMs uint32
	pollMs      uint32

	// clipboard holds the last text-format clipboard received.
	clipboard []byte
	closed    bool
}

// New creates a disconnected client on top of transport. Nothing is sent or
// received until the first Update.
func New(transport Transport, options ...Option) (*Client, error) {
	if transport == nil {
		return nil, configurationError("New", "transport cannot be nil", nil)
	}

	cfg := Config{}
	for _, option := range options {
		option(&cfg)
	}
	return NewWithConfig(transport, cfg)
}

// NewWithConfig creates a client from an explicit configuration record.
// Zero fields take the package defaults.
func NewWithConfig(transport Transport, cfg Config) (*Client, error) {
	if transport == nil {
		return nil, configurationError("New", "transport cannot be nil", nil)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	c := &Client{
		transport:   transport,
		config:      cfg,
		logger:      cfg.Logger.With(Field{Key: "client", Value: cfg.ClientName}),
		metrics:     cfg.Metrics,
		sink:        cfg.Sink,
		frames:      newFrameReader(cfg.ReceiveBufferSize),
		reply:       newReplyBuffer(cfg.ReplyBufferSize),
		idleMs:      millis(cfg.IdleTimeout),
		reconnectMs: millis(cfg.ReconnectDelay),
		pollMs:      millis(cfg.PollInterval),
	}
	c.session.ClientName = cfg.ClientName
	c.session.ClientWidth = cfg.Width
	c.session.ClientHeight = cfg.Height

	return c, nil
}

// Update performs one step of the engine. A disconnected client tries to
// connect; a connected one receives once and dispatches every complete
// frame. All failures are recovered inside Update by returning to the
// disconnected state; the returned error only describes what happened.
func (c *Client) Update() error {
	if c.closed {
		return closedError("Update")
	}
	if !c.session.Connected {
		return c.connect()
	}
	return c.receive()
}

// Run calls Update until ctx is done or the client is closed. When ctx is
// done a transport implementing io.Closer is closed, so that a blocked
// receive or reconnect sleep returns at once; the client cannot reconnect
// afterwards.
func (c *Client) Run(ctx context.Context) error {
	if closer, ok := c.transport.(io.Closer); ok {
		logger := c.logger
		stop := context.AfterFunc(ctx, func() {
			if err := closer.Close(); err != nil {
				logger.Debug("Transport close on cancel", Field{Key: "error", Value: err})
			}
		})
		defer stop()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := c.Update(); err != nil {
			if IsSynergyError(err, ErrClosed) {
				return err
			}
			c.logger.Debug("Update recovered from error", Field{Key: "error", Value: err})
		}
	}
}

func (c *Client) connect() error {
	c.metrics.StateChanged(StateConnecting)

	if !c.transport.Connect() {
		c.metrics.StateChanged(StateDisconnected)
		c.logger.Debug("Connect failed, retrying",
			Field{Key: "retry_ms", Value: c.reconnectMs})
		c.transport.Sleep(c.reconnectMs)
		return networkError("Update", "connect failed", nil)
	}

	c.session.Connected = true
	c.session.LastMessageTime = c.transport.Now()
	c.frames.Reset()
	c.reply.Reset()
	c.metrics.StateChanged(StateConnected)

	c.logger.Info("Connected to server, waiting for hello",
		Field{Key: "width", Value: c.session.ClientWidth},
		Field{Key: "height", Value: c.session.ClientHeight})

	c.sink.OnConnected(c.session.ClientWidth, c.session.ClientHeight)
	return nil
}

func (c *Client) receive() error {
	buf := c.frames.Free()
	n, ok := c.transport.Receive(buf)
	if !ok || n < 0 || n > len(buf) {
		c.logger.Warn("Receive failed, reconnecting",
			Field{Key: "requested", Value: len(buf)},
			Field{Key: "received", Value: n},
			Field{Key: "retry_ms", Value: c.reconnectMs})
		c.disconnect("receive", true)
		return networkError("Update", fmt.Sprintf("receive failed (%d bytes asked, %d received)", len(buf), n), nil)
	}

	c.frames.Commit(n)
	if n > 0 {
		c.metrics.BytesReceived(n)
	} else {
		c.transport.Sleep(c.pollMs)
	}

	if c.session.HandshakeComplete {
		now := c.transport.Now()
		if n > 0 {
			c.session.LastMessageTime = now
		} else if elapsed := now - c.session.LastMessageTime; elapsed > c.idleMs {
			c.logger.Warn("No traffic from server, reconnecting",
				Field{Key: "idle_ms", Value: elapsed},
				Field{Key: "timeout_ms", Value: c.idleMs})
			c.disconnect("idle", true)
			return timeoutError("Update", fmt.Sprintf("no message for %d ms", elapsed), nil)
		}
	}

	var tickErr error
	for body, err := range c.frames.Frames() {
		if err != nil {
			c.reportDesync(err)
			tickErr = err
			continue
		}
		if err := c.dispatch(body); err != nil {
			tickErr = err
		}
		if !c.session.Connected {
			break
		}
	}
	return tickErr
}

func (c *Client) reportDesync(err error) {
	var length uint32
	if oversized, ok := err.(*OversizedFrameError); ok {
		length = oversized.Length
	}
	c.metrics.OversizedFrame(length)
	c.logger.Warn("Oversized packet, discarding",
		Field{Key: "error", Value: err},
		Field{Key: "pending_bytes", Value: c.frames.Discarding()})
}

// disconnect tears the session down. The device sink is only notified when
// a connection was actually up.
func (c *Client) disconnect(reason string, backoff bool) {
	wasConnected := c.session.Connected

	c.session.reset()
	c.frames.Reset()
	c.reply.Reset()
	c.metrics.StateChanged(StateDisconnected)

	if wasConnected {
		c.metrics.Disconnected(reason)
		c.logger.Info("Disconnected", Field{Key: "reason", Value: reason})
		c.sink.OnDisconnected()
	}
	if backoff {
		c.transport.Sleep(c.reconnectMs)
	}
}

// Reset forces the client into the disconnected state without waiting. The
// next Update reconnects. Calling Reset repeatedly is harmless.
func (c *Client) Reset() {
	c.disconnect("reset", false)
}

// Close tears the session down, releases the device sink and closes the
// transport if it implements io.Closer. It is safe to call Close multiple
// times; subsequent calls do nothing. Close must be called from the
// goroutine driving Update; use Runner.Stop to stop a running loop.
func (c *Client) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.disconnect("shutdown", false)

	if closer, ok := c.transport.(io.Closer); ok {
		return WrapError("Close", ErrNetwork, "failed to close transport", closer.Close())
	}
	return nil
}

// Reconfigure replaces the client identity. The current session is torn
// down and the next Update reconnects under the new name and size.
func (c *Client) Reconfigure(name string, width, height int) error {
	if c.closed {
		return closedError("Reconfigure")
	}

	validator := newInputValidator()
	if err := validator.ValidateClientName(name); err != nil {
		return configurationError("Reconfigure", "invalid client name", err)
	}
	if err := validator.ValidateScreenSize(width, height); err != nil {
		return configurationError("Reconfigure", "invalid screen size", err)
	}
	if err := validator.ValidateBufferSizes(c.frames.Capacity(), c.reply.Capacity(), name); err != nil {
		return configurationError("Reconfigure", "client name does not fit the reply buffer", err)
	}

	c.disconnect("reconfigure", false)

	c.config.ClientName = name
	c.config.Width = width
	c.config.Height = height
	c.session.ClientName = name
	c.session.ClientWidth = width
	c.session.ClientHeight = height
	c.logger = c.config.Logger.With(Field{Key: "client", Value: name})

	c.logger.Info("Client reconfigured",
		Field{Key: "width", Value: width},
		Field{Key: "height", Value: height})
	return nil
}

// SendClipboard pushes text to the server as the text clipboard format.
// Text longer than the reply buffer allows is truncated at a character
// boundary and the truncation is logged.
func (c *Client) SendClipboard(text string) error {
	if c.closed {
		return closedError("SendClipboard")
	}
	if !c.session.Connected {
		return networkError("SendClipboard", "not connected", nil)
	}

	validator := newInputValidator()
	if err := validator.ValidateClipboardText(text); err != nil {
		return validationError("SendClipboard", "invalid clipboard text", err)
	}

	limit := maxClipboardText(c.reply.Capacity())
	if len(text) > limit {
		for limit > 0 && !utf8.RuneStart(text[limit]) {
			limit--
		}
		c.logger.Warn("Clipboard buffer too small, clipboard truncated",
			Field{Key: "length", Value: len(text)},
			Field{Key: "truncated_to", Value: limit})
		text = text[:limit]
	}

	if _, err := encodeClipboard(c.reply, 0, c.session.SequenceNumber, text); err != nil {
		c.reply.Reset()
		return err
	}
	return c.send(tagClipboard)
}

// ClipboardText returns the last text clipboard received from the server.
func (c *Client) ClipboardText() string {
	return string(c.clipboard)
}

// Session returns a copy of the current session state.
func (c *Client) Session() Session {
	return c.session
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	return c.session.State()
}

// Config returns the effective configuration, defaults included.
func (c *Client) Config() Config {
	return c.config
}

// send transmits the reply buffer. A failed send is a transport failure:
// the session is torn down and the reconnect backoff applied.
func (c *Client) send(tag string) error {
	msg := c.reply.Finish()
	ok := c.transport.Send(msg)
	c.reply.Reset()

	if !ok {
		c.logger.Warn("Send failed, reconnecting",
			Field{Key: "tag", Value: tag},
			Field{Key: "retry_ms", Value: c.reconnectMs})
		c.disconnect("send", true)
		return networkError("send", fmt.Sprintf("failed to send '%s' reply", tag), nil)
	}

	c.metrics.ReplySent(tag)
	return nil
}

// replyWith encodes a reply with encode and sends it.
func (c *Client) replyWith(tag string, encode func(*replyBuffer) error) error {
	if err := encode(c.reply); err != nil {
		c.reply.Reset()
		c.logger.Error("Failed to encode reply", Field{Key: "tag", Value: tag}, Field{Key: "error", Value: err})
		return err
	}
	return c.send(tag)
}
