package m1xep

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/arloliu/go-elkm1/command"
	"github.com/arloliu/go-elkm1/dispatch"
	"github.com/arloliu/go-elkm1/frame"
	"github.com/arloliu/go-elkm1/internal/pool"
	"github.com/arloliu/go-elkm1/logger"
	"github.com/arloliu/go-elkm1/message"
)

// Sender writes a frame to the panel.
type Sender interface {
	Send(ctx context.Context, f *frame.Frame) error
}

// PendingRequest describes a request waiting for its response.
type PendingRequest struct {
	// ResponseType is the type code the request waits for.
	ResponseType string
	// Command is the command code of the request frame.
	Command   string
	CreatedAt time.Time
}

// Correlator matches requests to the next dispatched message of their response type code.
//
// At most one pending request per response type is tracked. Requests of the same type issued
// concurrently all register a one-shot listener, and the first matching message resolves
// every one of them.
type Correlator struct {
	dispatcher  *dispatch.Dispatcher
	sender      Sender
	pending     *xsync.MapOf[string, *PendingRequest]
	timeout     time.Duration
	descTimeout time.Duration
	metrics     *ConnectionMetrics
	logger      logger.Logger

	closeMu sync.Mutex
	closeCh chan struct{}
}

// NewCorrelator creates a Correlator listening on d and writing through s.
//
// timeout is the default request timeout, descTimeout the timeout of each description request.
// metrics may be nil.
func NewCorrelator(d *dispatch.Dispatcher, s Sender, timeout, descTimeout time.Duration, metrics *ConnectionMetrics, l logger.Logger) *Correlator {
	if metrics == nil {
		metrics = &ConnectionMetrics{}
	}
	if l == nil {
		l = logger.GetLogger()
	}

	return &Correlator{
		dispatcher:  d,
		sender:      s,
		pending:     xsync.NewMapOf[string, *PendingRequest](),
		timeout:     timeout,
		descTimeout: descTimeout,
		metrics:     metrics,
		logger:      l,
		closeCh:     make(chan struct{}),
	}
}

// Request sends f and waits for the next message with type code responseType.
//
// The listener is registered before f is written. If no message arrives within timeout
// (the default request timeout when timeout <= 0) the listener is removed and a *TimeoutError
// is returned; a late message then reaches only the other subscribers.
func (c *Correlator) Request(ctx context.Context, responseType string, f *frame.Frame, timeout time.Duration) (message.Message, error) {
	if timeout <= 0 {
		timeout = c.timeout
	}

	closed := c.closedChan()

	replyCh := make(chan message.Message, 1)
	cancel := c.dispatcher.Once(responseType, func(msg message.Message) {
		replyCh <- msg
	})

	req := &PendingRequest{ResponseType: responseType, Command: f.TypeCode(), CreatedAt: time.Now()}
	c.track(req)
	defer c.untrack(req)

	c.metrics.incRequestCount()

	if err := c.sender.Send(ctx, f); err != nil {
		cancel()
		return nil, err
	}

	timer := pool.GetTimer(timeout)
	defer pool.PutTimer(timer)

	select {
	case msg := <-replyCh:
		return msg, nil

	case <-timer.C:
		cancel()
		c.metrics.incRequestTimeoutCount()
		c.logger.Warn("request timeout", "method", "Request", "command", req.Command, "responseType", responseType, "timeout", timeout)

		return nil, &TimeoutError{Command: req.Command, ResponseType: responseType, Timeout: timeout}

	case <-ctx.Done():
		cancel()
		return nil, ctx.Err()

	case <-closed:
		cancel()
		return nil, ErrConnClosed
	}
}

// RequestAllDescriptions collects the descriptions of every configured object of descType.
//
// It requests id 1 and then, for each answer whose id is above 0 and below the maximum id of
// the type, appends the answer and requests the following id. The panel answers a request for
// an unconfigured id with the next configured one, so the loop skips gaps. Any request error
// aborts the whole sweep.
func (c *Correlator) RequestAllDescriptions(ctx context.Context, descType message.DescriptionType) ([]*message.TextStringDescriptionReport, error) {
	maxID, ok := message.MaxDescriptionID(descType)
	if !ok {
		return nil, fmt.Errorf("%w: unknown description type %d", command.ErrValidation, int(descType))
	}

	var reports []*message.TextStringDescriptionReport
	for id := 1; ; {
		f, err := command.TextDescription(descType, id)
		if err != nil {
			return nil, err
		}

		msg, err := c.Request(ctx, message.TypeTextDescription, f, c.descTimeout)
		if err != nil {
			return nil, err
		}

		report, err := as[*message.TextStringDescriptionReport](msg)
		if err != nil {
			return nil, err
		}

		if report.ID <= 0 || report.ID >= maxID {
			return reports, nil
		}

		reports = append(reports, report)
		id = report.ID + 1
	}
}

// Pending returns the tracked request waiting for responseType, if any.
func (c *Correlator) Pending(responseType string) (PendingRequest, bool) {
	req, ok := c.pending.Load(responseType)
	if !ok {
		return PendingRequest{}, false
	}

	return *req, true
}

// PendingCount returns the number of response types with a pending request.
func (c *Correlator) PendingCount() int {
	return c.pending.Size()
}

// Close fails every outstanding request with ErrConnClosed. The Correlator remains usable.
func (c *Correlator) Close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	close(c.closeCh)
	c.closeCh = make(chan struct{})
}

func (c *Correlator) closedChan() <-chan struct{} {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	return c.closeCh
}

func (c *Correlator) track(req *PendingRequest) {
	c.metrics.incPendingRequests()
	if prev, loaded := c.pending.LoadAndStore(req.ResponseType, req); loaded {
		c.logger.Warn("concurrent request for the same response type",
			"responseType", req.ResponseType, "command", req.Command, "pendingCommand", prev.Command)
	}
}

// untrack removes req only if it is still the tracked request of its type.
func (c *Correlator) untrack(req *PendingRequest) {
	c.metrics.decPendingRequests()
	c.pending.Compute(req.ResponseType, func(cur *PendingRequest, loaded bool) (*PendingRequest, bool) {
		if !loaded {
			return nil, true
		}

		return cur, cur == req
	})
}

// as converts a response message to the expected report type.
func as[T message.Message](msg message.Message) (T, error) {
	report, ok := msg.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %T", ErrUnexpectedMessage, msg)
	}

	return report, nil
}
