package config

import (
	"fmt"
	"net/netip"
	"strings"
)

// DefaultDNSPort is used when an endpoint is given without a port
const DefaultDNSPort uint16 = 53

// ParseNameServer parses a name server endpoint: a bare IPv4/IPv6 address
// ("8.8.8.8", "2620:fe::fe") or an address with port ("9.9.9.9:5353",
// "[::1]:53"). A missing port defaults to 53.
func ParseNameServer(endpoint string) (netip.AddrPort, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return netip.AddrPort{}, fmt.Errorf("empty name server endpoint")
	}

	if addr, err := netip.ParseAddr(endpoint); err == nil {
		return netip.AddrPortFrom(addr, DefaultDNSPort), nil
	}

	addrPort, err := netip.ParseAddrPort(endpoint)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("invalid name server endpoint '%s': %w", endpoint, err)
	}

	return addrPort, nil
}
