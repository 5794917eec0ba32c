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
	"strconv"
	"strings"
	"time"

	"github.com/hwan33/dnscache/backoff"
	"go.uber.org/zap"
)

const defaultCacheSpec = "maximumSize=4096"

// Option is an option used to customize the behavior of a resolver group.
// All options are immutable once the group is constructed.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(cfg *config) {
	f(cfg)
}

type config struct {
	minTTL       time.Duration
	maxTTL       time.Duration
	negativeTTL  time.Duration
	queryTimeout time.Duration
	refresh      backoff.Policy
	family       AddressFamily
	familyProbe  func() AddressFamily
	cacheSpec    string
	servers      []string
	querier      Querier
	logger       *zap.Logger
}

func defaultConfig() config {
	return config{
		minTTL:       time.Second,
		maxTTL:       time.Hour,
		negativeTTL:  10 * time.Second,
		queryTimeout: 5 * time.Second,
		refresh:      backoff.WithJitter(backoff.Exponential(200*time.Millisecond, 10*time.Second, 2), 0.2),
		family:       AutoFamily,
		familyProbe:  detectAddressFamily,
		cacheSpec:    defaultCacheSpec,
		logger:       zap.NewNop(),
	}
}

func (cfg *config) validate() error {
	if cfg.minTTL <= 0 {
		return fmt.Errorf("min TTL must be positive, got %v", cfg.minTTL)
	}
	if cfg.minTTL > cfg.maxTTL {
		return fmt.Errorf("min TTL %v exceeds max TTL %v", cfg.minTTL, cfg.maxTTL)
	}
	if cfg.negativeTTL <= 0 {
		return fmt.Errorf("negative TTL must be positive, got %v", cfg.negativeTTL)
	}
	if cfg.queryTimeout <= 0 {
		return fmt.Errorf("query timeout must be positive, got %v", cfg.queryTimeout)
	}
	if cfg.refresh == nil {
		return fmt.Errorf("refresh backoff policy must not be nil")
	}
	return nil
}

// WithTTLBounds sets the bounds that record TTLs are clamped to when
// computing a positive entry's effective TTL. The defaults are 1s and 1h.
func WithTTLBounds(minTTL, maxTTL time.Duration) Option {
	return optionFunc(func(cfg *config) {
		cfg.minTTL = minTTL
		cfg.maxTTL = maxTTL
	})
}

// WithNegativeTTL sets how long an authoritative "no such name" answer is
// cached. During that window lookups for the hostname fail with
// [ErrNotFound] without an upstream query. The default is 10s.
func WithNegativeTTL(ttl time.Duration) Option {
	return optionFunc(func(cfg *config) {
		cfg.negativeTTL = ttl
	})
}

// WithQueryTimeout bounds each single resolution attempt. A timed-out
// attempt is treated like any other resolution failure. The default is 5s.
func WithQueryTimeout(timeout time.Duration) Option {
	return optionFunc(func(cfg *config) {
		cfg.queryTimeout = timeout
	})
}

// WithRefreshBackoff sets the policy used to delay retries after a failed
// proactive refresh. When the policy gives up the stale entry is evicted and
// the next lookup starts clean. The default is an exponential backoff from
// 200ms to 10s with 20% jitter that never gives up.
func WithRefreshBackoff(policy backoff.Policy) Option {
	return optionFunc(func(cfg *config) {
		cfg.refresh = policy
	})
}

// WithAddressFamily fixes the queried record types instead of deriving them
// from the host's network configuration.
func WithAddressFamily(family AddressFamily) Option {
	return optionFunc(func(cfg *config) {
		cfg.family = family
	})
}

// WithFamilyProbe replaces the probe that [AutoFamily] runs once at group
// construction. It has no effect when an explicit family is configured.
func WithFamilyProbe(probe func() AddressFamily) Option {
	return optionFunc(func(cfg *config) {
		cfg.familyProbe = probe
	})
}

// WithCacheSpec configures the bounds of the resolution cache using a spec
// string such as "maximumSize=4096,expireAfterWrite=1h". Supported keys are
// maximumSize (entry count, 0 for unbounded) and expireAfterWrite (an age
// after which untouched entries are dropped regardless of refresh activity).
// The default is "maximumSize=4096".
func WithCacheSpec(spec string) Option {
	return optionFunc(func(cfg *config) {
		cfg.cacheSpec = spec
	})
}

// WithServers sets the upstream DNS servers, each as a host:port pair, for
// the default querier. When unset the servers are read from resolv.conf.
// The option has no effect together with [WithQuerier].
func WithServers(servers ...string) Option {
	return optionFunc(func(cfg *config) {
		cfg.servers = servers
	})
}

// WithQuerier replaces the wire-level DNS transport. Useful for tests and
// for routing queries through a custom transport.
func WithQuerier(querier Querier) Option {
	return optionFunc(func(cfg *config) {
		cfg.querier = querier
	})
}

// WithLogger sets the logger used for background refresh outcomes, which
// have no caller to report to. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(cfg *config) {
		cfg.logger = logger
	})
}

// parseCacheSpec parses a cache specification string into the capacity and
// expiry bounds of the backing store. Keys are comma-separated key=value
// pairs; durations use Go syntax ("30s", "1h30m"). An empty spec yields an
// unbounded store.
func parseCacheSpec(spec string) (capacity int, expiry time.Duration, err error) {
	if spec == "" {
		return 0, 0, nil
	}
	for _, part := range strings.Split(spec, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			return 0, 0, fmt.Errorf("cache spec %q: missing '=' in %q", spec, part)
		}
		switch key {
		case "maximumSize":
			capacity, err = strconv.Atoi(value)
			if err != nil || capacity < 0 {
				return 0, 0, fmt.Errorf("cache spec %q: bad maximumSize %q", spec, value)
			}
		case "expireAfterWrite":
			expiry, err = time.ParseDuration(value)
			if err != nil || expiry < 0 {
				return 0, 0, fmt.Errorf("cache spec %q: bad expireAfterWrite %q", spec, value)
			}
		default:
			return 0, 0, fmt.Errorf("cache spec %q: unknown key %q", spec, key)
		}
	}
	return capacity, expiry, nil
}
