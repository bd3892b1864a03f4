// Package task manages the goroutines owned by a panel connection.
package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/arloliu/go-elkm1/logger"
)

// ErrStopped is returned when a task is started on a stopped Manager.
var ErrStopped = errors.New("task: manager already stopped")

// Func is a task body. It is called repeatedly until it returns false or the manager stops.
type Func func() bool

// CancelFunc is called once when a task goroutine exits.
type CancelFunc func()

// Manager starts, stops and waits for goroutines. A stopped Manager can be reused after Wait returns.
type Manager struct {
	pctx   context.Context
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger logger.Logger
	count  atomic.Int32
	mu     sync.RWMutex // protects ctx and cancel
	taskMu sync.RWMutex // blocks task creation during Wait
}

// NewManager creates a Manager whose tasks are canceled when ctx is done.
func NewManager(ctx context.Context, l logger.Logger) *Manager {
	mgr := &Manager{pctx: ctx, logger: l}
	mgr.ctx, mgr.cancel = context.WithCancel(ctx)

	return mgr
}

// Context returns the context of the current task generation.
func (mgr *Manager) Context() context.Context {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()

	return mgr.ctx
}

// Start runs fn in a new goroutine until it returns false or the manager stops.
// onExit, if not nil, is called when the goroutine exits.
func (mgr *Manager) Start(name string, fn Func, onExit CancelFunc) error {
	ctx := mgr.Context()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %s", ErrStopped, name)
	default:
	}

	mgr.logger.Debug("start task", "name", name)

	mgr.taskMu.RLock()
	defer mgr.taskMu.RUnlock()

	mgr.wg.Add(1)
	mgr.count.Add(1)

	go func() {
		defer mgr.wg.Done()
		defer func() {
			mgr.count.Add(-1)
			mgr.logger.Debug("task terminated", "name", name, "task_count", mgr.Count())
		}()
		if onExit != nil {
			defer mgr.CallWithRecover(name+".exit", onExit)
		}

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if !mgr.callWithRecoverBool(name, fn) {
				return
			}
		}
	}()

	return nil
}

// CallWithRecover calls fn and logs any panic instead of propagating it.
func (mgr *Manager) CallWithRecover(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			mgr.logger.Error("panic in task", "name", name, "panic", r)
		}
	}()

	fn()
}

// callWithRecoverBool is like CallWithRecover, a panic stops the task.
func (mgr *Manager) callWithRecoverBool(name string, fn Func) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			mgr.logger.Error("panic in task", "name", name, "panic", r)
			ok = false
		}
	}()

	return fn()
}

// Stop signals all running tasks to stop.
func (mgr *Manager) Stop() {
	mgr.mu.Lock()
	if mgr.cancel != nil {
		mgr.cancel()
	}
	mgr.mu.Unlock()
}

// Wait blocks until every task has exited and prepares a fresh context for the next generation.
func (mgr *Manager) Wait() {
	mgr.taskMu.Lock()
	defer mgr.taskMu.Unlock()

	mgr.wg.Wait()

	mgr.mu.Lock()
	mgr.ctx, mgr.cancel = context.WithCancel(mgr.pctx)
	mgr.mu.Unlock()
}

// Count returns the number of running tasks.
func (mgr *Manager) Count() int {
	return int(mgr.count.Load())
}
