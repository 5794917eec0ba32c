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
	"net/netip"
	"sync"
	"time"

	"github.com/hwan33/dnscache/executor"
)

// cacheEntry is the known state for one hostname: either a positive entry
// holding resolved addresses, or a negative entry holding the cause of an
// authoritative failure. An entry owns at most one scheduled task handle
// (its next refresh, retry, or negative expiry) and is responsible for
// canceling it when the entry is replaced or evicted.
//
// addresses, cause, ttl, createdAt and host are immutable after
// construction. attempts is only touched by the owning resolver's loop.
// handle and cleared are guarded by mu because cache eviction, which calls
// clear, may run on any goroutine.
type cacheEntry struct {
	host      string
	addresses []netip.Addr // nil for a negative entry
	cause     error        // set for negative entries
	ttl       time.Duration
	createdAt time.Time

	// attempts counts consecutive failed refreshes, indexing the backoff
	// policy. Loop-confined.
	attempts int

	mu      sync.Mutex
	handle  *executor.Handle
	cleared bool
}

// newPositiveEntry builds an entry from a non-empty record set. The
// effective TTL is the minimum TTL across records, clamped to
// [minTTL, maxTTL]. It is recomputed from scratch on every refresh, so a
// shrinking upstream TTL takes effect on the next cycle.
func newPositiveEntry(host string, records []Record, now time.Time, minTTL, maxTTL time.Duration) *cacheEntry {
	recordTTL := records[0].TTL
	for _, rec := range records[1:] {
		if rec.TTL < recordTTL {
			recordTTL = rec.TTL
		}
	}
	ttl := min(max(time.Duration(recordTTL)*time.Second, minTTL), maxTTL)
	addrs := make([]netip.Addr, len(records))
	for i, rec := range records {
		addrs[i] = rec.Addr
	}
	return &cacheEntry{
		host:      host,
		addresses: addrs,
		ttl:       ttl,
		createdAt: now,
	}
}

// newNegativeEntry builds an entry recording that host has no resolvable
// addresses. Negative entries live for exactly negativeTTL.
func newNegativeEntry(host string, cause error, now time.Time, negativeTTL time.Duration) *cacheEntry {
	return &cacheEntry{
		host:      host,
		cause:     cause,
		ttl:       negativeTTL,
		createdAt: now,
	}
}

func (e *cacheEntry) negative() bool {
	return len(e.addresses) == 0
}

func (e *cacheEntry) expired(now time.Time) bool {
	return !now.Before(e.createdAt.Add(e.ttl))
}

// setHandle installs the entry's scheduled task handle. If the entry was
// already cleared (evicted while the schedule raced in), the handle is
// canceled on the spot so it can never fire.
func (e *cacheEntry) setHandle(h *executor.Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cleared {
		h.Cancel()
		return
	}
	e.handle = h
}

// clear cancels the entry's scheduled task and marks the entry dead. It is
// idempotent and is the single cleanup path for every removal: explicit
// invalidation, replacement, capacity eviction, and expiry.
func (e *cacheEntry) clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cleared = true
	if e.handle != nil {
		e.handle.Cancel()
		e.handle = nil
	}
}

func (e *cacheEntry) isCleared() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cleared
}
