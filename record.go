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
	"net"
	"net/netip"

	"github.com/miekg/dns"
)

// AddressFamily controls which DNS record types a resolver group queries and
// in what order the resulting addresses are preferred.
type AddressFamily int

const (
	// AutoFamily derives the address family from the host's network
	// configuration once, at group construction: hosts with a global IPv6
	// address use IPv4Preferred, all others IPv4Only. The probe can be
	// replaced with [WithFamilyProbe].
	AutoFamily AddressFamily = iota

	// IPv4Only queries A records only.
	IPv4Only

	// IPv4Preferred queries both A and AAAA records, ordering IPv4
	// addresses first.
	IPv4Preferred

	// IPv6Preferred queries both A and AAAA records, ordering IPv6
	// addresses first.
	IPv6Preferred
)

func (f AddressFamily) String() string {
	switch f {
	case AutoFamily:
		return "auto"
	case IPv4Only:
		return "ipv4-only"
	case IPv4Preferred:
		return "ipv4-preferred"
	case IPv6Preferred:
		return "ipv6-preferred"
	default:
		return "unknown"
	}
}

// recordTypes returns the ordered, deduplicated list of record types to
// query for this family. The order is the preference order: addresses from
// earlier types sort ahead of addresses from later types in results.
func (f AddressFamily) recordTypes() []uint16 {
	switch f {
	case IPv4Only:
		return []uint16{dns.TypeA}
	case IPv6Preferred:
		return []uint16{dns.TypeAAAA, dns.TypeA}
	default:
		return []uint16{dns.TypeA, dns.TypeAAAA}
	}
}

// detectAddressFamily is the default family probe. It looks for a global
// unicast IPv6 address on any interface.
func detectAddressFamily() AddressFamily {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return IPv4Only
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip, ok := netip.AddrFromSlice(ipNet.IP)
		if !ok {
			continue
		}
		ip = ip.Unmap()
		if ip.Is6() && ip.IsGlobalUnicast() && !ip.IsPrivate() {
			return IPv4Preferred
		}
	}
	return IPv4Only
}
