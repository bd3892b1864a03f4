package m1xep

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/arloliu/go-elkm1/logger"
)

// ConnState represents the stages of a panel connection.
type ConnState uint32

const (
	// NotConnectedState indicates that no socket is established.
	NotConnectedState ConnState = iota
	// ConnectingState indicates that the socket is being dialed.
	ConnectingState
	// AuthenticatingState indicates that the secure login handshake is in progress.
	AuthenticatingState
	// ConnectedState indicates that frames can be exchanged.
	ConnectedState
)

// IsNotConnected returns if the state is not connected.
func (cs ConnState) IsNotConnected() bool { return cs == NotConnectedState }

// IsConnected returns if the state is connected.
func (cs ConnState) IsConnected() bool { return cs == ConnectedState }

// String returns string representation of the state.
func (cs ConnState) String() string {
	switch cs {
	case NotConnectedState:
		return "not-connected"
	case ConnectingState:
		return "connecting"
	case AuthenticatingState:
		return "authenticating"
	case ConnectedState:
		return "connected"
	default:
		return "unknown"
	}
}

// ConnStateChangeHandler is invoked when the state of a connection changes.
//
// Note: the handler is invoked synchronously by the goroutine performing the transition, and
// the transition waits for it. The receiver is already running when ConnectedState is entered,
// so a handler may send commands and await requests. It must not call Connection.Open,
// Connection.Close or Connection.WaitState.
//
// Message subscribers may also send commands and await requests, and must not call
// Connection.Open or Connection.Close. A blocked subscriber delays every later message.
type ConnStateChangeHandler func(conn *Connection, prevState ConnState, newState ConnState)

// ConnStateMgr tracks the connection state and notifies handlers of transitions.
type ConnStateMgr struct {
	mu       sync.Mutex
	cond     *sync.Cond
	transMu  sync.Mutex // serializes transitions and handler calls
	state    atomic.Uint32
	conn     *Connection
	logger   logger.Logger
	handlers []ConnStateChangeHandler
}

// NewConnStateMgr creates a ConnStateMgr in NotConnectedState.
func NewConnStateMgr(conn *Connection, l logger.Logger, handlers ...ConnStateChangeHandler) *ConnStateMgr {
	cs := &ConnStateMgr{conn: conn, logger: l}
	cs.cond = sync.NewCond(&cs.mu)
	cs.state.Store(uint32(NotConnectedState))
	cs.AddHandler(handlers...)

	return cs
}

// State returns the current connection state.
func (cs *ConnStateMgr) State() ConnState {
	return ConnState(cs.state.Load())
}

// AddHandler adds handlers invoked on every state change.
func (cs *ConnStateMgr) AddHandler(handlers ...ConnStateChangeHandler) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for _, h := range handlers {
		if h != nil {
			cs.handlers = append(cs.handlers, h)
		}
	}
}

// WaitState waits until the state equals state or ctx is done.
func (cs *ConnStateMgr) WaitState(ctx context.Context, state ConnState) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.State() == state {
		return nil
	}

	stop := context.AfterFunc(ctx, func() {
		cs.mu.Lock()
		cs.cond.Broadcast()
		cs.mu.Unlock()
	})
	defer stop()

	for cs.State() != state {
		if err := ctx.Err(); err != nil {
			return err
		}
		cs.cond.Wait()
	}

	return nil
}

// transition changes the state to newState and invokes the handlers.
// It returns false when the state is already newState.
func (cs *ConnStateMgr) transition(newState ConnState) bool {
	cs.transMu.Lock()
	defer cs.transMu.Unlock()

	cs.mu.Lock()
	prevState := cs.State()
	if prevState == newState {
		cs.mu.Unlock()
		return false
	}
	cs.state.Store(uint32(newState))
	cs.cond.Broadcast()
	handlers := make([]ConnStateChangeHandler, len(cs.handlers))
	copy(handlers, cs.handlers)
	cs.mu.Unlock()

	cs.logger.Debug("connection state changed", "prevState", prevState, "curState", newState)

	for _, h := range handlers {
		cs.callWithRecover(h, prevState, newState)
	}

	return true
}

func (cs *ConnStateMgr) callWithRecover(h ConnStateChangeHandler, prevState, newState ConnState) {
	defer func() {
		if r := recover(); r != nil {
			cs.logger.Error("panic in connection state handler", "panic", r)
		}
	}()

	h(cs.conn, prevState, newState)
}
