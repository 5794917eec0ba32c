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

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// resolutionCache is the coalescing map from hostname to resolution future.
// It is the only structure in this package shared across worker loops, so
// every compound operation takes the cache's own mutex rather than relying
// on the backing store's internal locking.
//
// The backing store is a size- and time-bounded LRU. Its eviction callback
// is the single cleanup path: whether an entry leaves the cache by explicit
// invalidation, by replacement, by capacity pressure, or by expiry, the
// removed entry's scheduled handle is canceled so it can never fire again.
// A future evicted while still in flight completes naturally, but its result
// is discarded by the generation checks in the resolver.
type resolutionCache struct {
	mu    sync.Mutex
	store *expirable.LRU[string, *future]
}

func newResolutionCache(capacity int, expiry time.Duration) *resolutionCache {
	c := &resolutionCache{}
	c.store = expirable.NewLRU(capacity, c.onEvict, expiry)
	return c
}

func (c *resolutionCache) onEvict(_ string, f *future) {
	if f.completed() && f.entry != nil {
		f.entry.clear()
	}
}

// getOrCreate returns the future for host, creating and installing a fresh
// one when absent. The second return value reports whether this call created
// it; at most one caller per generation observes true, which is what limits
// the upstream to a single in-flight query per hostname.
func (c *resolutionCache) getOrCreate(host string) (*future, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.store.Get(host); ok {
		return f, false
	}
	f := newFuture()
	c.store.Add(host, f)
	return f, true
}

// replace installs next for host only if old is still the current future,
// canceling old's entry handle through the eviction path. The identity
// comparison is the last-write-wins generation check: a resolution that
// completes after its future was invalidated or superseded fails the swap
// and its result is dropped.
func (c *resolutionCache) replace(host string, old, next *future) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, ok := c.store.Get(host)
	if !ok || cur != old {
		return false
	}
	c.onEvict(host, cur)
	c.store.Add(host, next)
	return true
}

// sameGeneration reports whether f is still the cache's current future for
// host.
func (c *resolutionCache) sameGeneration(host string, f *future) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, ok := c.store.Get(host)
	return ok && cur == f
}

// get returns the current future for host, if any.
func (c *resolutionCache) get(host string) (*future, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Get(host)
}

// invalidate removes host's entry, running cleanup.
func (c *resolutionCache) invalidate(host string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Remove(host)
}

// invalidateIf removes host's entry only if f is still current.
func (c *resolutionCache) invalidateIf(host string, f *future) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.store.Get(host); ok && cur == f {
		c.store.Remove(host)
	}
}

// invalidateAll removes every entry, running cleanup for each.
func (c *resolutionCache) invalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Purge()
}

func (c *resolutionCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Len()
}
