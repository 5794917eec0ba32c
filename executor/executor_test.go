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

package executor

import (
	"testing"
	"time"

	"github.com/hwan33/dnscache/internal/clocktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitRunsTasksInOrder(t *testing.T) {
	t.Parallel()

	loop := New()
	defer loop.Close()

	var got []int
	done := make(chan struct{})
	for i := 1; i <= 100; i++ {
		require.True(t, loop.Submit(func() { got = append(got, i) }))
	}
	require.True(t, loop.Submit(func() { close(done) }))
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not drain its queue")
	}

	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i+1, v)
	}
}

func TestSubmitFromLoopTask(t *testing.T) {
	t.Parallel()

	loop := New()
	defer loop.Close()

	done := make(chan struct{})
	require.True(t, loop.Submit(func() {
		// must not block even though the loop goroutine is busy right here
		require.True(t, loop.Submit(func() { close(done) }))
	}))
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("nested task never ran")
	}
}

func TestScheduleFiresOnLoop(t *testing.T) {
	t.Parallel()

	clock := clocktest.NewFakeClock()
	loop := New(WithClock(clock))
	defer loop.Close()

	fired := make(chan struct{})
	loop.Schedule(time.Second, func() { close(fired) })

	clock.Advance(time.Second)
	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled task never fired")
	}
}

func TestCancelBeforeTimerFires(t *testing.T) {
	t.Parallel()

	clock := clocktest.NewFakeClock()
	loop := New(WithClock(clock))
	defer loop.Close()

	fired := make(chan struct{})
	handle := loop.Schedule(time.Second, func() { close(fired) })
	handle.Cancel()
	assert.True(t, handle.Canceled())

	clock.Advance(time.Minute)
	time.Sleep(50 * time.Millisecond)
	select {
	case <-fired:
		t.Fatal("canceled task ran")
	default:
	}
}

func TestCancelAfterTimerFired(t *testing.T) {
	t.Parallel()

	clock := clocktest.NewFakeClock()
	loop := New(WithClock(clock))
	defer loop.Close()

	// Park the loop so the fired task sits in the queue while we cancel.
	gate := make(chan struct{})
	parked := make(chan struct{})
	require.True(t, loop.Submit(func() {
		close(parked)
		<-gate
	}))
	<-parked

	fired := make(chan struct{})
	handle := loop.Schedule(time.Second, func() { close(fired) })
	clock.Advance(time.Second)
	// Give the timer callback a moment to enqueue the task.
	time.Sleep(50 * time.Millisecond)
	handle.Cancel()
	close(gate)

	drained := make(chan struct{})
	require.True(t, loop.Submit(func() { close(drained) }))
	select {
	case <-drained:
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not resume")
	}
	select {
	case <-fired:
		t.Fatal("canceled task ran even though its timer had fired")
	default:
	}
}

func TestNowUsesClock(t *testing.T) {
	t.Parallel()

	clock := clocktest.NewFakeClock()
	loop := New(WithClock(clock))
	defer loop.Close()

	before := loop.Now()
	clock.Advance(time.Minute)
	assert.Equal(t, time.Minute, loop.Now().Sub(before))
}

func TestCloseRejectsSubmit(t *testing.T) {
	t.Parallel()

	loop := New()
	loop.Close()
	assert.False(t, loop.Submit(func() {}))
	// Close is idempotent.
	loop.Close()
}
