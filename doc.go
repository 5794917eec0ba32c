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

// Package dnscache provides the hostname resolution layer for a network
// client runtime: a shared, TTL-aware cache of DNS lookups that refreshes
// entries ahead of expiry and coalesces concurrent lookups for the same
// hostname into a single upstream query.
//
// Create a [ResolverGroup] with [NewResolverGroup], then one [Resolver] per
// worker loop with [ResolverGroup.NewResolver]:
//
//	group, err := dnscache.NewResolverGroup(
//		dnscache.WithTTLBounds(30*time.Second, 5*time.Minute),
//		dnscache.WithNegativeTTL(10*time.Second),
//	)
//	if err != nil {
//		// configuration problem
//	}
//	defer group.Close()
//
//	loop := executor.New()
//	defer loop.Close()
//	resolver, err := group.NewResolver(loop)
//	// ...
//	addrs, err := resolver.Resolve(ctx, "backend.example.com")
//
// All resolvers of a group share one cache; a hostname being resolved by
// one worker is never queried a second time by another. Positive results
// are cached for the record TTL clamped to the configured bounds and
// refreshed in the background just as they expire; callers therefore keep
// getting answers from memory, even slightly stale ones while a refresh is
// retried after upstream trouble. Authoritative "no such name" answers are
// cached for the negative TTL and reported as errors wrapping [ErrNotFound].
//
// The wire-level transport is pluggable via [WithQuerier]; the default
// queries the resolv.conf nameservers for A and AAAA records as selected by
// the group's [AddressFamily].
package dnscache
