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
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
)

func TestRecordTypesByFamily(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []uint16{dns.TypeA}, IPv4Only.recordTypes())
	assert.Equal(t, []uint16{dns.TypeA, dns.TypeAAAA}, IPv4Preferred.recordTypes())
	assert.Equal(t, []uint16{dns.TypeAAAA, dns.TypeA}, IPv6Preferred.recordTypes())
	// AutoFamily is resolved before record types are picked; falling through
	// here behaves like IPv4Preferred.
	assert.Equal(t, []uint16{dns.TypeA, dns.TypeAAAA}, AutoFamily.recordTypes())
}

func TestDedupeTypes(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		[]uint16{dns.TypeAAAA, dns.TypeA},
		dedupeTypes([]uint16{dns.TypeAAAA, dns.TypeA, dns.TypeAAAA, dns.TypeA}))
	assert.Empty(t, dedupeTypes(nil))
}

func TestAddressFamilyString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "auto", AutoFamily.String())
	assert.Equal(t, "ipv4-only", IPv4Only.String())
	assert.Equal(t, "ipv4-preferred", IPv4Preferred.String())
	assert.Equal(t, "ipv6-preferred", IPv6Preferred.String())
	assert.Equal(t, "unknown", AddressFamily(42).String())
}
