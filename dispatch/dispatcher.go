package dispatch

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/arloliu/go-elkm1/logger"
	"github.com/arloliu/go-elkm1/message"
)

// Wildcard is the subscription key that receives every decoded message.
const Wildcard = "*"

// ErrHandlerPanic is reported to the error handlers when a subscriber panics.
var ErrHandlerPanic = errors.New("dispatch: handler panic")

// Handler receives a decoded message.
type Handler func(msg message.Message)

// ErrorHandler receives a line that could not be processed and the reason.
type ErrorHandler func(line string, err error)

// Decoder turns one frame line into a decoded message.
type Decoder func(raw string) (message.Message, error)

// Executor runs the persistent subscribers of one message. Calls must run in submission
// order to keep wire order.
type Executor func(deliver func())

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithDecoder replaces the default decoder, message.Decode.
func WithDecoder(decode Decoder) Option {
	return func(d *Dispatcher) {
		if decode != nil {
			d.decode = decode
		}
	}
}

// WithStrictChecksum makes the dispatcher verify the checksum of every frame.
func WithStrictChecksum() Option {
	return WithDecoder(message.DecodeStrict)
}

// WithExecutor hands the Wildcard and type code subscribers of each message to exec instead
// of invoking them on the goroutine calling Feed or Dispatch. One-shot listeners registered by
// Once are still invoked inline, before exec is called, so a subscriber running on exec can
// wait for a message fed after the one it is handling.
func WithExecutor(exec Executor) Option {
	return func(d *Dispatcher) {
		d.exec = exec
	}
}

// WithLogger sets the logger, the package default logger is used otherwise.
func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

type subscriber struct {
	id      uint64
	handler Handler
	once    bool
}

// Dispatcher is a publish/subscribe registry keyed by type code. It is safe for concurrent use.
type Dispatcher struct {
	mu          sync.Mutex
	nextID      uint64
	subs        map[string][]*subscriber
	errHandlers []ErrorHandler

	decode Decoder
	exec   Executor
	logger logger.Logger
}

// New creates a Dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		subs:   make(map[string][]*subscriber),
		decode: message.Decode,
		logger: logger.GetLogger(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Subscribe registers h for key, a type code or Wildcard. Handlers of the same key are
// invoked in registration order.
//
// The returned function removes the subscription.
func (d *Dispatcher) Subscribe(key string, h Handler) (unsubscribe func()) {
	id := d.add(key, h, false)

	return func() { d.remove(key, id) }
}

// Once registers h to receive the next message of key only.
//
// The returned cancel function removes the listener and reports whether it was still
// registered. A false result means the listener has already been invoked or is being invoked.
func (d *Dispatcher) Once(key string, h Handler) (cancel func() bool) {
	id := d.add(key, h, true)

	return func() bool { return d.remove(key, id) }
}

// OnError registers an error handler for lines that fail to decode and for panicking subscribers.
func (d *Dispatcher) OnError(h ErrorHandler) {
	if h == nil {
		return
	}

	d.mu.Lock()
	d.errHandlers = append(d.errHandlers, h)
	d.mu.Unlock()
}

// SubscriberCount returns the number of subscribers registered for key.
func (d *Dispatcher) SubscriberCount(key string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.subs[key])
}

// Feed splits chunk into lines, decodes each line and dispatches the results in order.
// Carriage returns are dropped and empty lines are skipped.
//
// It returns the number of messages dispatched.
func (d *Dispatcher) Feed(chunk string) int {
	count := 0
	for _, line := range strings.Split(chunk, "\n") {
		line = strings.ReplaceAll(line, "\r", "")
		if line == "" {
			continue
		}

		msg, err := d.decode(line)
		if err != nil {
			d.logger.Warn("failed to decode frame", "method", "Feed", "line", line, "error", err)
			d.reportError(line, err)

			continue
		}

		d.Dispatch(msg)
		count++
	}

	return count
}

// Dispatch emits msg to the Wildcard subscribers and then to the subscribers of its type code.
//
// With an Executor, the one-shot listeners are invoked first on the calling goroutine and the
// remaining subscribers, in the same order, through the Executor.
func (d *Dispatcher) Dispatch(msg message.Message) {
	if msg == nil {
		return
	}

	targets := d.collect(msg.TypeCode())
	if d.exec == nil {
		for _, sub := range targets {
			d.callWithRecover(msg, sub.handler)
		}

		return
	}

	persistent := make([]*subscriber, 0, len(targets))
	for _, sub := range targets {
		if sub.once {
			d.callWithRecover(msg, sub.handler)
		} else {
			persistent = append(persistent, sub)
		}
	}
	if len(persistent) == 0 {
		return
	}

	d.exec(func() {
		for _, sub := range persistent {
			d.callWithRecover(msg, sub.handler)
		}
	})
}

// collect snapshots the subscribers for typeCode and unregisters the one-shot listeners among them.
func (d *Dispatcher) collect(typeCode string) []*subscriber {
	d.mu.Lock()
	defer d.mu.Unlock()

	wildcard := d.subs[Wildcard]
	specific := d.subs[typeCode]
	if typeCode == Wildcard {
		specific = nil
	}

	targets := make([]*subscriber, 0, len(wildcard)+len(specific))
	targets = append(targets, wildcard...)
	targets = append(targets, specific...)

	d.setSubs(Wildcard, dropOnce(wildcard))
	if len(specific) > 0 {
		d.setSubs(typeCode, dropOnce(specific))
	}

	return targets
}

func (d *Dispatcher) add(key string, h Handler, once bool) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	d.subs[key] = append(d.subs[key], &subscriber{id: d.nextID, handler: h, once: once})

	return d.nextID
}

func (d *Dispatcher) remove(key string, id uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	subs := d.subs[key]
	for i, sub := range subs {
		if sub.id != id {
			continue
		}

		kept := make([]*subscriber, 0, len(subs)-1)
		kept = append(kept, subs[:i]...)
		kept = append(kept, subs[i+1:]...)
		d.setSubs(key, kept)

		return true
	}

	return false
}

func (d *Dispatcher) setSubs(key string, subs []*subscriber) {
	if len(subs) == 0 {
		delete(d.subs, key)
		return
	}
	d.subs[key] = subs
}

func (d *Dispatcher) reportError(line string, err error) {
	d.mu.Lock()
	handlers := make([]ErrorHandler, len(d.errHandlers))
	copy(handlers, d.errHandlers)
	d.mu.Unlock()

	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					d.logger.Error("panic in error handler", "panic", r)
				}
			}()
			h(line, err)
		}()
	}
}

func (d *Dispatcher) callWithRecover(msg message.Message, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic in message handler", "type", msg.TypeCode(), "panic", r)
			d.reportError(msg.Frame().Raw(), fmt.Errorf("%w: %v", ErrHandlerPanic, r))
		}
	}()

	h(msg)
}

// dropOnce returns subs without its one-shot entries, sharing nothing with the input slice.
func dropOnce(subs []*subscriber) []*subscriber {
	if len(subs) == 0 {
		return nil
	}

	kept := make([]*subscriber, 0, len(subs))
	for _, sub := range subs {
		if !sub.once {
			kept = append(kept, sub)
		}
	}

	return kept
}
