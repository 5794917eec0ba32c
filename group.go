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
	"fmt"
	"sync/atomic"

	"github.com/hwan33/dnscache/executor"
	"go.uber.org/zap"
)

// ResolverGroup owns the configuration and the resolution cache shared by
// all resolvers it creates. Construct one per process (or per logical
// client), create one [Resolver] per worker loop with NewResolver, and
// release everything with Close.
type ResolverGroup struct {
	cfg     config
	qtypes  []uint16
	cache   *resolutionCache
	querier Querier
	logger  *zap.Logger
	closed  atomic.Bool
}

// NewResolverGroup creates a resolver group. The queried record types are
// fixed here for the life of the group: from the explicit
// [WithAddressFamily] option if given, otherwise from a single run of the
// family probe. Configuration problems, including an invalid cache spec and
// minTTL > maxTTL, are reported at construction; there is no later
// group-level failure mode.
func NewResolverGroup(opts ...Option) (*ResolverGroup, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("dnscache: %w", err)
	}
	capacity, expiry, err := parseCacheSpec(cfg.cacheSpec)
	if err != nil {
		return nil, fmt.Errorf("dnscache: %w", err)
	}

	family := cfg.family
	if family == AutoFamily {
		family = cfg.familyProbe()
		if family == AutoFamily {
			family = IPv4Only
		}
	}

	querier := cfg.querier
	if querier == nil {
		querier, err = newDNSQuerier(cfg.servers)
		if err != nil {
			return nil, fmt.Errorf("dnscache: %w", err)
		}
	}

	return &ResolverGroup{
		cfg:     cfg,
		qtypes:  dedupeTypes(family.recordTypes()),
		cache:   newResolutionCache(capacity, expiry),
		querier: querier,
		logger:  cfg.logger,
	}, nil
}

// NewResolver creates the resolver bound to the given worker loop. All of
// the resolver's bookkeeping, refreshes and retries run on that loop and
// nowhere else; the loop binding is permanent. Resolvers created from the
// same group observe one shared cache, so concurrent lookups for a hostname
// coalesce across loops.
func (g *ResolverGroup) NewResolver(loop *executor.Loop) (*Resolver, error) {
	if loop == nil {
		return nil, fmt.Errorf("dnscache: resolver requires a worker loop")
	}
	if g.closed.Load() {
		return nil, fmt.Errorf("dnscache: %w", ErrClosed)
	}
	return &Resolver{group: g, loop: loop, logger: g.logger}, nil
}

// Close invalidates every cached entry, canceling all scheduled refresh and
// retry tasks. In-flight queries complete naturally but their results are
// discarded. Close is idempotent; resolvers must not be used afterwards.
func (g *ResolverGroup) Close() {
	if g.closed.CompareAndSwap(false, true) {
		g.cache.invalidateAll()
	}
}

func dedupeTypes(qtypes []uint16) []uint16 {
	deduped := qtypes[:0]
	for _, qtype := range qtypes {
		seen := false
		for _, kept := range deduped {
			if kept == qtype {
				seen = true
				break
			}
		}
		if !seen {
			deduped = append(deduped, qtype)
		}
	}
	return deduped
}
