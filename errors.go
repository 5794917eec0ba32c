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
	"errors"
	"fmt"
)

// ErrNotFound indicates an authoritative negative answer: the hostname has
// no resolvable addresses. Use [errors.Is] to test for it. Negative answers
// are cached, so repeated lookups within the configured negative TTL return
// this error without another upstream query.
var ErrNotFound = errors.New("name not found")

// ErrClosed is returned by resolvers whose owning ResolverGroup has been
// closed.
var ErrClosed = errors.New("resolver group closed")

// notFoundError wraps ErrNotFound with the hostname that failed to resolve.
func notFoundError(host string) error {
	return fmt.Errorf("resolve %s: %w", host, ErrNotFound)
}
