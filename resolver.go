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
	"context"
	"errors"
	"fmt"
	"net/netip"
	"slices"

	"github.com/hwan33/dnscache/executor"
	"go.uber.org/zap"
)

// Resolver resolves hostnames to addresses through its group's shared
// cache, refreshing cached entries ahead of expiry so callers rarely wait
// on an upstream query.
//
// A resolver is permanently bound to the worker loop passed to
// [ResolverGroup.NewResolver]. Every cache mutation and every scheduled
// refresh or retry it triggers runs on that loop, which is what lets the
// per-entry bookkeeping go without locks. Resolve itself may be called from
// any goroutine.
type Resolver struct {
	group  *ResolverGroup
	loop   *executor.Loop
	logger *zap.Logger
}

// Resolve returns the addresses for host, ordered by the group's address
// family preference.
//
// A cached positive entry answers immediately, even when the entry is past
// its TTL: stale addresses stay usable while the background refresh retries.
// A cached negative entry answers with an error wrapping [ErrNotFound] until
// the negative TTL elapses. On a miss, Resolve blocks until the single
// in-flight query for host completes; concurrent calls for the same host,
// from any resolver of the group, share that one query and all observe its
// result.
func (r *Resolver) Resolve(ctx context.Context, host string) ([]netip.Addr, error) {
	if r.group.closed.Load() {
		return nil, fmt.Errorf("resolve %s: %w", host, ErrClosed)
	}
	futureCh := make(chan *future, 1)
	if !r.loop.Submit(func() { futureCh <- r.lookup(host) }) {
		return nil, fmt.Errorf("resolve %s: worker loop closed", host)
	}
	var f *future
	select {
	case f = <-futureCh:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	entry, err := f.wait(ctx)
	if err != nil {
		return nil, err
	}
	if entry.negative() {
		return nil, entry.cause
	}
	return slices.Clone(entry.addresses), nil
}

// lookup runs on the resolver's loop. It returns the future callers should
// wait on, starting a new query when there is nothing usable in the cache.
func (r *Resolver) lookup(host string) *future {
	for {
		f, created := r.group.cache.getOrCreate(host)
		if created {
			r.startQuery(host, f, r.finishInitial)
			return f
		}
		if !f.completed() {
			// coalesce onto the in-flight lookup
			return f
		}
		if entry := f.entry; entry != nil && entry.negative() && entry.expired(r.loop.Now()) {
			// the negative TTL elapsed: start over
			next := newFuture()
			if !r.group.cache.replace(host, f, next) {
				continue
			}
			r.startQuery(host, next, r.finishInitial)
			return next
		}
		return f
	}
}

// startQuery runs the engine off-loop with the configured timeout and posts
// the outcome back onto the loop.
func (r *Resolver) startQuery(host string, f *future, finish func(string, *future, []Record, error)) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.group.cfg.queryTimeout)
		defer cancel()
		records, err := r.group.querier.Query(ctx, host, r.group.qtypes)
		if err == nil && len(records) == 0 {
			err = notFoundError(host)
		}
		r.loop.Submit(func() { finish(host, f, records, err) })
	}()
}

// finishInitial completes a cache-miss lookup. Unlike refresh failures,
// failures here propagate to the waiting callers: a not-found answer is
// cached negatively, while transient failures (including timeouts) are not
// cached at all, so the next lookup starts a fresh attempt.
func (r *Resolver) finishInitial(host string, f *future, records []Record, err error) {
	now := r.loop.Now()
	switch {
	case err == nil:
		entry := newPositiveEntry(host, records, now, r.group.cfg.minTTL, r.group.cfg.maxTTL)
		f.complete(entry, nil)
		r.scheduleRefresh(host, f, entry)
	case errors.Is(err, ErrNotFound):
		entry := newNegativeEntry(host, err, now, r.group.cfg.negativeTTL)
		f.complete(entry, nil)
		r.scheduleExpiry(host, f, entry)
	default:
		r.group.cache.invalidateIf(host, f)
		f.complete(nil, err)
	}
}

// scheduleRefresh arms the entry's proactive refresh at its effective TTL.
// If the future was evicted while the query was in flight the refresh is
// not scheduled; waiters still see the result, but the cache forgets it.
func (r *Resolver) scheduleRefresh(host string, f *future, entry *cacheEntry) {
	if !r.group.cache.sameGeneration(host, f) {
		return
	}
	handle := r.loop.Schedule(entry.ttl, func() { r.refresh(host, f) })
	entry.setHandle(handle)
}

// scheduleExpiry arms a negative entry's eviction at the negative TTL, after
// which the hostname becomes a fresh miss.
func (r *Resolver) scheduleExpiry(host string, f *future, entry *cacheEntry) {
	if !r.group.cache.sameGeneration(host, f) {
		return
	}
	handle := r.loop.Schedule(entry.ttl, func() { r.group.cache.invalidateIf(host, f) })
	entry.setHandle(handle)
}

// refresh runs on the loop when a scheduled refresh or retry fires.
func (r *Resolver) refresh(host string, f *future) {
	if r.group.closed.Load() {
		return
	}
	entry := f.entry
	if entry == nil || entry.isCleared() {
		return
	}
	if !r.group.cache.sameGeneration(host, f) {
		return
	}
	r.startQuery(host, f, r.finishRefresh)
}

// finishRefresh completes a proactive refresh for the entry held by old.
// Nothing here propagates to callers: success swaps the entry in place,
// a not-found answer demotes it to a negative entry, and a transient
// failure leaves the stale entry serving while a retry is scheduled per the
// backoff policy. When the policy gives up, the entry is evicted so the
// next lookup starts clean.
func (r *Resolver) finishRefresh(host string, old *future, records []Record, err error) {
	now := r.loop.Now()
	stale := old.entry
	switch {
	case err == nil:
		entry := newPositiveEntry(host, records, now, r.group.cfg.minTTL, r.group.cfg.maxTTL)
		next := completedFuture(entry)
		if !r.group.cache.replace(host, old, next) {
			return // superseded while in flight, drop the result
		}
		r.logger.Debug("refreshed hostname",
			zap.String("host", host),
			zap.Int("addresses", len(entry.addresses)),
			zap.Duration("ttl", entry.ttl))
		r.scheduleRefresh(host, next, entry)
	case errors.Is(err, ErrNotFound):
		entry := newNegativeEntry(host, err, now, r.group.cfg.negativeTTL)
		next := completedFuture(entry)
		if !r.group.cache.replace(host, old, next) {
			return
		}
		r.logger.Debug("hostname no longer resolves",
			zap.String("host", host),
			zap.Duration("negative_ttl", entry.ttl))
		r.scheduleExpiry(host, next, entry)
	default:
		attempt := stale.attempts + 1
		delay, retry := r.group.cfg.refresh.Delay(attempt)
		if !retry {
			r.logger.Warn("refresh retries exhausted, evicting hostname",
				zap.String("host", host),
				zap.Int("attempts", stale.attempts),
				zap.Error(err))
			r.group.cache.invalidateIf(host, old)
			return
		}
		stale.attempts = attempt
		r.logger.Debug("refresh failed, retrying",
			zap.String("host", host),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
		handle := r.loop.Schedule(delay, func() { r.refresh(host, old) })
		stale.setHandle(handle)
	}
}
