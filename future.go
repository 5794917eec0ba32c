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

package dnscache

import "context"

// future is a single-assignment, multi-waiter result cell for one in-flight
// or completed resolution. Exactly one future exists per hostname in the
// cache at any time; concurrent lookups for the same hostname coalesce onto
// it. A future completes with either a cache entry (including negative
// entries) or an error, never both.
//
// entry and err must only be read after done is closed; the channel close
// publishes them to waiters.
type future struct {
	done  chan struct{}
	entry *cacheEntry
	err   error
}

func newFuture() *future {
	return &future{done: make(chan struct{})}
}

// completedFuture returns a future that already holds entry.
func completedFuture(entry *cacheEntry) *future {
	f := newFuture()
	f.complete(entry, nil)
	return f
}

// complete assigns the result and resumes all waiters. It must be called at
// most once; the resolver's loop confinement guarantees that.
func (f *future) complete(entry *cacheEntry, err error) {
	f.entry = entry
	f.err = err
	close(f.done)
}

func (f *future) completed() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// wait blocks until the future completes or ctx is done.
func (f *future) wait(ctx context.Context) (*cacheEntry, error) {
	select {
	case <-f.done:
		return f.entry, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
