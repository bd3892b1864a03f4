// Package pool provides sync.Pool backed timers and read buffers.
package pool

import (
	"sync"
	"time"
)

// ReadBufferSize is the size of the buffers returned by GetReadBuffer.
const ReadBufferSize = 4096

var (
	timerPool sync.Pool
	bufPool   = sync.Pool{
		New: func() any {
			buf := make([]byte, ReadBufferSize)
			return &buf
		},
	}
)

// GetTimer returns a timer that fires after d.
//
// The timer must be returned with PutTimer once the caller stops selecting on it.
func GetTimer(d time.Duration) *time.Timer {
	v := timerPool.Get()
	if v == nil {
		return time.NewTimer(d)
	}

	t, _ := v.(*time.Timer)
	drain(t)
	t.Reset(d)

	return t
}

// PutTimer stops t and returns it to the pool. t must not be used afterwards.
func PutTimer(t *time.Timer) {
	if t == nil {
		return
	}

	drain(t)
	timerPool.Put(t)
}

// drain stops t and empties its channel if a value is pending.
func drain(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

// GetReadBuffer returns a buffer of ReadBufferSize bytes.
func GetReadBuffer() *[]byte {
	buf, _ := bufPool.Get().(*[]byte)
	return buf
}

// PutReadBuffer returns buf to the pool. Buffers of another size are dropped.
func PutReadBuffer(buf *[]byte) {
	if buf == nil || cap(*buf) != ReadBufferSize {
		return
	}

	*buf = (*buf)[:ReadBufferSize]
	bufPool.Put(buf)
}
