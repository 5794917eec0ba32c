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
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/net/idna"
	"golang.org/x/sync/errgroup"
)

// Record is one address record returned by a [Querier].
type Record struct {
	// Addr is the resolved address.
	Addr netip.Addr

	// TTL is the record's time-to-live in seconds, as reported by the
	// upstream server. The effective TTL of a cache entry is the minimum
	// TTL across the returned record set, clamped to the group's bounds.
	TTL uint32
}

// Querier performs a single resolution attempt for a hostname against a set
// of record types. It is the boundary to the wire-level DNS transport: the
// resolver group decides when and how often to call it, caches its results,
// and never issues two concurrent queries for the same hostname.
//
// Query returns the records resolved for the given types, in the priority
// order of qtypes. It returns an error wrapping [ErrNotFound] for an
// authoritative negative answer, or the transport error otherwise. The
// context carries the configured query timeout.
type Querier interface {
	Query(ctx context.Context, host string, qtypes []uint16) ([]Record, error)
}

// QuerierFunc adapts an ordinary function to a Querier.
type QuerierFunc func(ctx context.Context, host string, qtypes []uint16) ([]Record, error)

// Query implements Querier.
func (f QuerierFunc) Query(ctx context.Context, host string, qtypes []uint16) ([]Record, error) {
	return f(ctx, host, qtypes)
}

// exchanger is the subset of [dns.Client] the engine uses, extracted so
// tests can substitute a fake transport.
type exchanger interface {
	ExchangeContext(ctx context.Context, m *dns.Msg, address string) (*dns.Msg, time.Duration, error)
}

// dnsQuerier is the default Querier, backed by github.com/miekg/dns over the
// servers from resolv.conf (or an explicit server list).
type dnsQuerier struct {
	client  exchanger
	servers []string
}

func newDNSQuerier(servers []string) (*dnsQuerier, error) {
	if len(servers) == 0 {
		conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
		if err != nil {
			return nil, fmt.Errorf("read resolv.conf: %w", err)
		}
		for _, server := range conf.Servers {
			servers = append(servers, net.JoinHostPort(server, conf.Port))
		}
		if len(servers) == 0 {
			return nil, fmt.Errorf("resolv.conf lists no nameservers")
		}
	}
	return &dnsQuerier{client: new(dns.Client), servers: servers}, nil
}

// Query issues one query per record type concurrently and joins the answers
// in the priority order of qtypes. A type with no records is not an error as
// long as another type resolved; NXDOMAIN surfaces as ErrNotFound only when
// nothing resolved at all.
func (q *dnsQuerier) Query(ctx context.Context, host string, qtypes []uint16) ([]Record, error) {
	name, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return nil, fmt.Errorf("invalid hostname %q: %w", host, err)
	}
	fqdn := dns.Fqdn(name)

	results := make([][]Record, len(qtypes))
	var group errgroup.Group
	for i, qtype := range qtypes {
		group.Go(func() error {
			records, err := q.lookup(ctx, fqdn, qtype)
			if err != nil {
				return err
			}
			results[i] = records
			return nil
		})
	}
	err = group.Wait()

	var records []Record
	for _, typed := range results {
		records = append(records, typed...)
	}
	if len(records) > 0 {
		return records, nil
	}
	if err != nil {
		return nil, err
	}
	return nil, notFoundError(host)
}

// lookup queries the servers in order for one record type, returning the
// answers of the first server that responds.
func (q *dnsQuerier) lookup(ctx context.Context, fqdn string, qtype uint16) ([]Record, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(fqdn, qtype)

	var lastErr error
	for _, server := range q.servers {
		resp, _, err := q.client.ExchangeContext(ctx, msg, server)
		if err != nil {
			lastErr = fmt.Errorf("query %s %s @%s: %w", dns.TypeToString[qtype], fqdn, server, err)
			continue
		}
		switch resp.Rcode {
		case dns.RcodeSuccess:
			return recordsFromAnswer(resp.Answer), nil
		case dns.RcodeNameError:
			return nil, notFoundError(fqdn)
		default:
			lastErr = fmt.Errorf("query %s %s @%s: %s", dns.TypeToString[qtype],
				fqdn, server, dns.RcodeToString[resp.Rcode])
		}
	}
	return nil, lastErr
}

func recordsFromAnswer(answer []dns.RR) []Record {
	var records []Record
	for _, rr := range answer {
		var ip net.IP
		switch rec := rr.(type) {
		case *dns.A:
			ip = rec.A.To4()
		case *dns.AAAA:
			ip = rec.AAAA.To16()
		default:
			continue
		}
		addr, ok := netip.AddrFromSlice(ip)
		if !ok {
			continue
		}
		records = append(records, Record{Addr: addr.Unmap(), TTL: rr.Header().Ttl})
	}
	return records
}
