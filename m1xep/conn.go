package m1xep

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/arloliu/go-elkm1/dispatch"
	"github.com/arloliu/go-elkm1/frame"
	"github.com/arloliu/go-elkm1/internal/pool"
	"github.com/arloliu/go-elkm1/internal/task"
	"github.com/arloliu/go-elkm1/logger"
	"github.com/arloliu/go-elkm1/message"
)

// Handshake strings of the M1XEP secure login.
const (
	promptUsername = "Username:"
	promptPassword = "Password:"
	loginSuccess   = "Elk-M1XEP: Login successful."
)

// ErrorHandler receives transport, decode and reconnect errors of a connection.
type ErrorHandler func(conn *Connection, err error)

// Connection is a client connection to a panel M1XEP interface.
type Connection struct {
	pctx   context.Context
	cfg    *ConnectionConfig
	logger logger.Logger

	dispatcher *dispatch.Dispatcher
	correlator *Correlator
	stateMgr   *ConnStateMgr
	taskMgr    *task.Manager
	limiter    *rate.Limiter
	handlerCh  chan func() // persistent subscriber deliveries, in wire order

	connMutex sync.Mutex // protects conn
	conn      net.Conn
	writeMu   sync.Mutex // serializes frame writes

	lifeMu       sync.Mutex // protects closeCh
	closeCh      chan struct{}
	shutdown     atomic.Bool
	reconnecting atomic.Bool

	errMu       sync.RWMutex
	errHandlers []ErrorHandler

	metrics ConnectionMetrics
}

var _ Sender = (*Connection)(nil)

// NewConnection creates a connection with the given configuration. The connection is
// established by Open.
func NewConnection(ctx context.Context, cfg *ConnectionConfig) (*Connection, error) {
	if cfg == nil {
		return nil, ErrConnConfigNil
	}

	cfg.mu.RLock()
	l := cfg.logger
	strict := cfg.strictChecksum
	limiter := rate.NewLimiter(cfg.writeLimit, cfg.writeBurst)
	timeout, descTimeout := cfg.requestTimeout, cfg.descriptionTimeout
	cfg.mu.RUnlock()

	c := &Connection{
		pctx:      ctx,
		cfg:       cfg,
		logger:    l,
		taskMgr:   task.NewManager(ctx, l),
		limiter:   limiter,
		handlerCh: make(chan func(), cfg.handlerQueue()),
	}

	dispatchOpts := []dispatch.Option{dispatch.WithLogger(l), dispatch.WithExecutor(c.enqueueDelivery)}
	if strict {
		dispatchOpts = append(dispatchOpts, dispatch.WithStrictChecksum())
	}
	c.dispatcher = dispatch.New(dispatchOpts...)
	c.shutdown.Store(true)
	c.stateMgr = NewConnStateMgr(c, l)
	c.correlator = NewCorrelator(c.dispatcher, c, timeout, descTimeout, &c.metrics, l)
	c.dispatcher.OnError(c.dispatchErrorHandler)

	return c, nil
}

// GetLogger returns the logger of the connection.
func (c *Connection) GetLogger() logger.Logger {
	return c.logger
}

// GetMetrics returns the metrics of the connection.
func (c *Connection) GetMetrics() *ConnectionMetrics {
	return &c.metrics
}

// Dispatcher returns the dispatcher fed by the connection.
func (c *Connection) Dispatcher() *dispatch.Dispatcher {
	return c.dispatcher
}

// Correlator returns the request correlator of the connection.
func (c *Connection) Correlator() *Correlator {
	return c.correlator
}

// State returns the current connection state.
func (c *Connection) State() ConnState {
	return c.stateMgr.State()
}

// Subscribe registers h for messages of key, a type code or dispatch.Wildcard.
//
// Subscribers run on the subscriber goroutine of the connection, one message at a time in
// wire order, and may issue requests.
func (c *Connection) Subscribe(key string, h dispatch.Handler) (unsubscribe func()) {
	return c.dispatcher.Subscribe(key, h)
}

// AddConnStateChangeHandler adds handlers invoked on every connection state change.
// A transition to ConnectedState is a connect, a transition to NotConnectedState a disconnect.
func (c *Connection) AddConnStateChangeHandler(handlers ...ConnStateChangeHandler) {
	c.stateMgr.AddHandler(handlers...)
}

// AddErrorHandler adds handlers invoked on transport, decode and reconnect errors.
func (c *Connection) AddErrorHandler(handlers ...ErrorHandler) {
	c.errMu.Lock()
	defer c.errMu.Unlock()

	for _, h := range handlers {
		if h != nil {
			c.errHandlers = append(c.errHandlers, h)
		}
	}
}

// WaitState blocks until the connection reaches state or ctx is done.
func (c *Connection) WaitState(ctx context.Context, state ConnState) error {
	return c.stateMgr.WaitState(ctx, state)
}

// Open dials the panel, performs the login in secure mode and starts receiving.
//
// The first connection attempt is made synchronously and its error is returned. Connections
// lost afterwards are re-established according to the reconnect policy.
func (c *Connection) Open(ctx context.Context) error {
	if !c.shutdown.CompareAndSwap(true, false) {
		return nil
	}

	c.lifeMu.Lock()
	c.closeCh = make(chan struct{})
	c.lifeMu.Unlock()

	c.drainDeliveries()
	if err := c.taskMgr.Start("handlerTask", c.handlerTask, nil); err != nil {
		c.shutdown.Store(true)
		return err
	}

	err := c.connect(ctx)
	if err != nil {
		c.shutdown.Store(true)
		c.lifeMu.Lock()
		close(c.closeCh)
		c.closeCh = nil
		c.lifeMu.Unlock()
		c.taskMgr.Stop()
		c.waitTasks(c.cfg.closeTimeout())
	}

	return err
}

// Close closes the connection. Outstanding requests fail with ErrConnClosed and no reconnect
// is attempted.
func (c *Connection) Close() error {
	if c.shutdown.Swap(true) {
		return nil
	}

	c.logger.Debug("start close process", "method", "Close")

	c.lifeMu.Lock()
	if c.closeCh != nil {
		close(c.closeCh)
		c.closeCh = nil
	}
	c.lifeMu.Unlock()

	c.connMutex.Lock()
	conn := c.conn
	c.conn = nil
	c.connMutex.Unlock()

	if conn != nil {
		if tcpConn, ok := conn.(*net.TCPConn); ok {
			_ = tcpConn.SetLinger(0)
		}
		if err := conn.Close(); err != nil {
			c.logger.Debug("failed to close connection", "method", "Close", "error", err)
		}
	}

	c.correlator.Close()
	c.taskMgr.Stop()
	c.waitTasks(c.cfg.closeTimeout())
	c.stateMgr.transition(NotConnectedState)

	return nil
}

// Send writes f to the panel, waiting for the write rate limiter first.
func (c *Connection) Send(ctx context.Context, f *frame.Frame) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	c.connMutex.Lock()
	conn := c.conn
	c.connMutex.Unlock()

	if conn == nil || !c.stateMgr.State().IsConnected() {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(c.cfg.writeDeadline())); err != nil {
		return c.writeFailed(conn, err)
	}

	if _, err := io.WriteString(conn, f.Line()); err != nil {
		return c.writeFailed(conn, err)
	}

	c.metrics.incFramesSent()
	if c.logger.Level() == logger.DebugLevel {
		c.logger.Debug("frame sent", "method", "Send", "frame", f.Raw())
	}

	return nil
}

// SendAll writes frames in order and stops at the first error.
func (c *Connection) SendAll(ctx context.Context, frames []*frame.Frame) error {
	for _, f := range frames {
		if err := c.Send(ctx, f); err != nil {
			return err
		}
	}

	return nil
}

// writeFailed closes conn so the receiver observes the failure and reports it.
func (c *Connection) writeFailed(conn net.Conn, err error) error {
	c.metrics.incWriteErrCount()
	err = transportErr("write", err)
	c.logger.Error("failed to write frame", "method", "Send", "error", err)
	_ = conn.Close()

	return err
}

func (c *Connection) connect(ctx context.Context) error {
	c.stateMgr.transition(ConnectingState)

	connectCtx, cancel := context.WithTimeout(ctx, c.cfg.dialTimeout())
	defer cancel()

	conn, err := c.dial(connectCtx)
	if err != nil {
		c.stateMgr.transition(NotConnectedState)
		return transportErr("dial", err)
	}

	var remainder string
	if c.cfg.Secure() {
		c.stateMgr.transition(AuthenticatingState)
		remainder, err = c.authenticate(connectCtx, conn)
		if err != nil {
			_ = conn.Close()
			c.stateMgr.transition(NotConnectedState)

			return err
		}
	}

	c.connMutex.Lock()
	if c.shutdown.Load() {
		c.connMutex.Unlock()
		_ = conn.Close()
		c.stateMgr.transition(NotConnectedState)

		return ErrConnClosed
	}
	c.conn = conn
	c.connMutex.Unlock()

	// the receiver runs before the Connected handlers so they can await replies
	r := &receiver{c: c, conn: conn, buf: pool.GetReadBuffer(), pending: remainder, ready: make(chan struct{})}
	if err := c.taskMgr.Start("receiverTask", r.run, r.exit); err != nil {
		c.logger.Error("failed to start receiver task", "error", err)
		close(r.ready)
		r.exit()

		return err
	}

	c.metrics.resetConnRetryGauge()
	c.stateMgr.transition(ConnectedState)
	close(r.ready)

	c.logger.Info("connected to panel", "address", c.cfg.Address(), "secure", c.cfg.Secure())

	return nil
}

func (c *Connection) dial(ctx context.Context) (net.Conn, error) {
	dialer := &net.Dialer{}
	addr := c.cfg.Address()

	if c.cfg.Secure() {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: c.cfg.tlsClientConfig()}
		return tlsDialer.DialContext(ctx, "tcp", addr)
	}

	return dialer.DialContext(ctx, "tcp", addr)
}

// authenticate answers the login prompts and returns the data received after the success
// banner.
func (c *Connection) authenticate(ctx context.Context, conn net.Conn) (string, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
		defer func() { _ = conn.SetReadDeadline(time.Time{}) }()
	}

	username, password := c.cfg.credentials()

	bufp := pool.GetReadBuffer()
	defer pool.PutReadBuffer(bufp)
	buf := *bufp

	var pending string
	passwordSent := false
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			pending += string(buf[:n])
		}

		for {
			token, idx := firstToken(pending, promptUsername, promptPassword, loginSuccess)
			if idx < 0 {
				break
			}
			pending = pending[idx+len(token):]

			switch token {
			case loginSuccess:
				c.logger.Debug("login successful", "method", "authenticate")
				return strings.TrimLeft(pending, "\r\n"), nil

			case promptUsername:
				if passwordSent {
					return "", fmt.Errorf("%w: credentials rejected", ErrAuthFailed)
				}
				if err := writeLine(conn, username); err != nil {
					return "", fmt.Errorf("%w: %w", ErrAuthFailed, err)
				}

			case promptPassword:
				if err := writeLine(conn, password); err != nil {
					return "", fmt.Errorf("%w: %w", ErrAuthFailed, err)
				}
				passwordSent = true
			}
		}

		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrAuthFailed, err)
		}

		// keep a tail long enough for a prompt split across reads
		if len(pending) > len(loginSuccess) {
			pending = pending[len(pending)-len(loginSuccess):]
		}
	}
}

// onConnLost tears down conn and schedules a reconnect unless the connection is shutting down.
func (c *Connection) onConnLost(conn net.Conn) {
	c.connMutex.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.connMutex.Unlock()
	_ = conn.Close()

	c.stateMgr.transition(NotConnectedState)

	if c.shutdown.Load() || !c.cfg.autoReconnectEnabled() {
		return
	}

	c.scheduleReconnect()
}

func (c *Connection) scheduleReconnect() {
	if !c.reconnecting.CompareAndSwap(false, true) {
		return
	}

	c.lifeMu.Lock()
	closeCh := c.closeCh
	c.lifeMu.Unlock()
	if closeCh == nil {
		c.reconnecting.Store(false)
		return
	}

	go c.reconnectLoop(closeCh)
}

func (c *Connection) reconnectLoop(closeCh <-chan struct{}) {
	policy := c.cfg.ReconnectPolicy()

	for attempt := 1; ; attempt++ {
		if policy.Exhausted(attempt) {
			c.reconnecting.Store(false)
			c.logger.Error("give up reconnecting", "attempts", attempt-1)
			c.reportError(ErrReconnectExhausted)

			return
		}

		delay := policy.Delay(attempt)
		c.logger.Debug("schedule reconnect", "attempt", attempt, "delay", delay)

		timer := pool.GetTimer(delay)
		select {
		case <-c.pctx.Done():
			pool.PutTimer(timer)
			c.reconnecting.Store(false)

			return
		case <-closeCh:
			pool.PutTimer(timer)
			c.reconnecting.Store(false)

			return
		case <-timer.C:
			pool.PutTimer(timer)
		}

		if c.shutdown.Load() {
			c.reconnecting.Store(false)
			return
		}

		c.metrics.incConnRetryGauge()
		err := c.connect(c.pctx)
		if err != nil {
			c.logger.Warn("reconnect failed", "attempt", attempt, "error", err)
			c.reportError(err)

			continue
		}

		c.reconnecting.Store(false)
		// the new connection may have been lost before the flag was cleared
		if c.shutdown.Load() || !c.stateMgr.State().IsNotConnected() || !c.reconnecting.CompareAndSwap(false, true) {
			return
		}
		attempt = 0
	}
}

// enqueueDelivery queues the subscriber calls of one message for handlerTask.
func (c *Connection) enqueueDelivery(deliver func()) {
	ctx := c.taskMgr.Context()
	select {
	case c.handlerCh <- deliver:
	case <-ctx.Done():
		c.logger.Debug("drop message delivery", "method", "enqueueDelivery")
	}
}

func (c *Connection) handlerTask() bool {
	select {
	case <-c.taskMgr.Context().Done():
		return false
	case deliver := <-c.handlerCh:
		deliver()
		return true
	}
}

// drainDeliveries discards deliveries left over from a previous Open.
func (c *Connection) drainDeliveries() {
	for {
		select {
		case <-c.handlerCh:
		default:
			return
		}
	}
}

func (c *Connection) waitTasks(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		c.taskMgr.Wait()
		close(done)
	}()

	timer := pool.GetTimer(timeout)
	defer pool.PutTimer(timer)

	select {
	case <-done:
		c.logger.Debug("close success", "method", "Close")
	case <-timer.C:
		c.logger.Error("close timeout", "method", "Close", "timeout", timeout)
	}
}

func (c *Connection) dispatchErrorHandler(line string, err error) {
	if !errors.Is(err, dispatch.ErrHandlerPanic) {
		c.metrics.incDecodeErrCount()
	}
	c.reportError(fmt.Errorf("frame %q: %w", line, err))
}

func (c *Connection) reportError(err error) {
	c.errMu.RLock()
	handlers := make([]ErrorHandler, len(c.errHandlers))
	copy(handlers, c.errHandlers)
	c.errMu.RUnlock()

	for _, h := range handlers {
		c.taskMgr.CallWithRecover("errorHandler", func() { h(c, err) })
	}
}

// receiver reads chunks from one socket and feeds complete lines to the dispatcher.
type receiver struct {
	c       *Connection
	conn    net.Conn
	buf     *[]byte
	pending string
	fed     bool
	ready   chan struct{} // closed once connect has finished the Connected transition
}

func (r *receiver) run() bool {
	if !r.fed {
		r.fed = true
		r.feed("")
	}

	n, err := r.conn.Read(*r.buf)
	if n > 0 {
		r.feed(string((*r.buf)[:n]))
	}

	if err != nil {
		if !r.c.shutdown.Load() && !errors.Is(err, net.ErrClosed) {
			if !errors.Is(err, io.EOF) {
				r.c.logger.Error("failed to read from panel", "method", "receiverTask", "error", err)
			}
			r.c.reportError(transportErr("read", err))
		}

		return false
	}

	return true
}

// feed dispatches every complete line and keeps an unterminated tail for the next read.
func (r *receiver) feed(data string) {
	data = r.pending + data
	r.pending = ""

	idx := strings.LastIndexByte(data, '\n')
	if idx < 0 && len(data) < pool.ReadBufferSize {
		r.pending = data
		return
	}
	if idx >= 0 && len(data)-idx-1 < pool.ReadBufferSize {
		r.pending = data[idx+1:]
		data = data[:idx+1]
	}

	if data == "" {
		return
	}

	n := r.c.dispatcher.Feed(data)
	r.c.metrics.addFramesRecv(n)
}

func (r *receiver) exit() {
	pool.PutReadBuffer(r.buf)
	<-r.ready
	r.c.onConnLost(r.conn)
}

// firstToken returns the token occurring first in s and its index, or -1.
func firstToken(s string, tokens ...string) (string, int) {
	first, pos := "", -1
	for _, token := range tokens {
		if i := strings.Index(s, token); i >= 0 && (pos < 0 || i < pos) {
			first, pos = token, i
		}
	}

	return first, pos
}

func writeLine(w io.Writer, s string) error {
	_, err := io.WriteString(w, s+"\r\n")
	return err
}

// request sends f and converts the correlated response to T.
func request[T message.Message](ctx context.Context, c *Connection, responseType string, f *frame.Frame, timeout time.Duration) (T, error) {
	msg, err := c.correlator.Request(ctx, responseType, f, timeout)
	if err != nil {
		var zero T
		return zero, err
	}

	return as[T](msg)
}
