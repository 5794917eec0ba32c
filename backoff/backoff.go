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

// Package backoff provides retry delay policies. A policy is a pure function
// of the attempt number, so callers own all retry state and a single policy
// value can be shared freely across goroutines.
package backoff

import (
	"sync"
	"time"

	"github.com/hwan33/dnscache/internal"
)

// Policy maps a retry attempt number to the delay to wait before that
// attempt. Attempt numbers start at 1 for the first retry. The second return
// value is false when the policy gives up: no more retries should be made.
type Policy interface {
	Delay(attempt int) (time.Duration, bool)
}

// PolicyFunc adapts an ordinary function to a Policy.
type PolicyFunc func(attempt int) (time.Duration, bool)

// Delay implements Policy.
func (f PolicyFunc) Delay(attempt int) (time.Duration, bool) {
	return f(attempt)
}

// Fixed returns a policy that always waits d and never gives up.
func Fixed(d time.Duration) Policy {
	return PolicyFunc(func(int) (time.Duration, bool) {
		return d, true
	})
}

// Stop returns a policy that never permits a retry.
func Stop() Policy {
	return PolicyFunc(func(int) (time.Duration, bool) {
		return 0, false
	})
}

// Exponential returns a policy whose delay starts at initial and grows by
// multiplier with each attempt, capped at maxDelay. It never gives up; combine
// with [WithMaxAttempts] to bound the number of retries.
func Exponential(initial, maxDelay time.Duration, multiplier float64) Policy {
	if multiplier < 1 {
		multiplier = 1
	}
	return PolicyFunc(func(attempt int) (time.Duration, bool) {
		d := float64(initial)
		for i := 1; i < attempt; i++ {
			d *= multiplier
			if d >= float64(maxDelay) {
				return maxDelay, true
			}
		}
		if d > float64(maxDelay) {
			return maxDelay, true
		}
		return time.Duration(d), true
	})
}

// WithMaxAttempts wraps a policy so that it gives up after maxAttempts
// retries.
func WithMaxAttempts(policy Policy, maxAttempts int) Policy {
	return PolicyFunc(func(attempt int) (time.Duration, bool) {
		if attempt > maxAttempts {
			return 0, false
		}
		return policy.Delay(attempt)
	})
}

// WithJitter wraps a policy so that each delay is perturbed by a random
// factor in the range [1-ratio, 1+ratio]. The ratio must be in [0, 1).
func WithJitter(policy Policy, ratio float64) Policy {
	if ratio < 0 {
		ratio = 0
	}
	if ratio >= 1 {
		ratio = 0.999
	}
	var mu sync.Mutex
	rnd := internal.NewRand()
	return PolicyFunc(func(attempt int) (time.Duration, bool) {
		d, ok := policy.Delay(attempt)
		if !ok {
			return 0, false
		}
		mu.Lock()
		factor := 1 + ratio*(2*rnd.Float64()-1)
		mu.Unlock()
		return time.Duration(float64(d) * factor), true
	})
}
