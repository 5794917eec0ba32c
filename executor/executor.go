// Copyright 2025-2026 The dnscache Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package executor provides a single-goroutine worker loop. Tasks submitted
// to a loop run strictly in FIFO order on the loop's own goroutine, which
// makes the loop a unit of execution that state can be confined to: anything
// only ever touched from tasks of one loop needs no further synchronization.
//
// A loop can also schedule tasks to run after a delay. Scheduling returns a
// [Handle] that can be canceled; a canceled handle is guaranteed to never
// run its task, even if the underlying timer already fired.
package executor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hwan33/dnscache/internal"
)

// Loop is a worker execution context: a single goroutine draining a FIFO
// queue of tasks. A Loop must be created with [New] and released with Close.
type Loop struct {
	clock internal.Clock

	mu     sync.Mutex
	queue  []func()
	closed bool

	wake chan struct{}
	done chan struct{}
}

// Option configures a Loop.
type Option func(*Loop)

// WithClock configures the clock the loop uses for scheduling and for Now.
// This is intended for tests; the default is the real clock.
func WithClock(clock internal.Clock) Option {
	return func(l *Loop) {
		l.clock = clock
	}
}

// New creates a Loop and starts its goroutine.
func New(opts ...Option) *Loop {
	l := &Loop{
		clock: internal.NewRealClock(),
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	go l.run()
	return l
}

// Submit enqueues fn to run on the loop goroutine. It never blocks and is
// safe to call from any goroutine, including from a task already running on
// the loop. It reports whether the task was accepted; after Close it always
// returns false.
func (l *Loop) Submit(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Schedule arranges for fn to run on the loop goroutine after delay d. The
// returned handle cancels the task; see [Handle.Cancel].
func (l *Loop) Schedule(d time.Duration, fn func()) *Handle {
	h := &Handle{}
	h.timer = l.clock.AfterFunc(d, func() {
		l.Submit(func() {
			if !h.canceled.Load() {
				fn()
			}
		})
	})
	return h
}

// Now returns the current time according to the loop's clock.
func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

// Close stops the loop after all already-queued tasks have run and waits for
// the goroutine to exit. Subsequent Submit calls return false. Close must not
// be called from a task running on the loop.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.closed = true
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
	<-l.done
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		for len(l.queue) == 0 {
			closed := l.closed
			l.mu.Unlock()
			if closed {
				return
			}
			<-l.wake
			l.mu.Lock()
		}
		fn := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()
		fn()
	}
}

// Handle is a cancelable reference to a task scheduled on a Loop.
type Handle struct {
	canceled atomic.Bool
	timer    internal.Timer
}

// Cancel prevents the scheduled task from running. After Cancel returns the
// task is guaranteed to never run, even if its timer has already fired and
// the task is sitting in the loop's queue. Cancel is idempotent and safe to
// call from any goroutine.
func (h *Handle) Cancel() {
	if h.canceled.CompareAndSwap(false, true) {
		h.timer.Stop()
	}
}

// Canceled reports whether Cancel has been called.
func (h *Handle) Canceled() bool {
	return h.canceled.Load()
}
