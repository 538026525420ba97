package client

import (
	"time"

	"github.com/0xERR0R/stubdns/config"
	"github.com/0xERR0R/stubdns/wire"
)

// cacheTTL computes how long a response may be cached:
// the minimum TTL over all records of the answer, authority and additional
// sections; for answerless responses the authority SOA minimum TTL (RFC 2308
// negative caching). A configured positive floor raises the result to at
// least the floor, a zero TTL included. Zero means the response must not be
// cached.
//
// Responses with an RCODE other than NoError or NXDomain are never cached;
// negative caching is only sound where a SOA bounds it.
func cacheTTL(m *wire.Message, minCacheTTL config.Duration) time.Duration {
	if m.Rcode != wire.RcodeNoError && m.Rcode != wire.RcodeNXDomain {
		return 0
	}

	ttl, found := minRecordTTL(m)

	if len(m.Answers) == 0 {
		ttl, found = soaMinimum(m)
	}

	if !found {
		return 0
	}

	result := time.Duration(ttl) * time.Second

	if floor := minCacheTTL.ToDuration(); floor > 0 && result < floor {
		result = floor
	}

	return result
}

func minRecordTTL(m *wire.Message) (uint32, bool) {
	var (
		min   uint32
		found bool
	)

	for _, rec := range m.Records() {
		if _, isOpt := rec.(*wire.OPT); isOpt {
			continue
		}

		ttl := rec.Header().TTL
		if !found || ttl < min {
			min = ttl
			found = true
		}
	}

	return min, found
}

// soaMinimum returns the negative caching TTL of RFC 2308: the smaller of
// the authority SOA's minimum field and its own TTL
func soaMinimum(m *wire.Message) (uint32, bool) {
	for _, rec := range m.Authorities {
		if soa, ok := rec.(*wire.SOA); ok {
			ttl := soa.MinTTL
			if soa.TTL < ttl {
				ttl = soa.TTL
			}

			return ttl, true
		}
	}

	return 0, false
}
