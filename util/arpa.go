package util

import (
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

const (
	IPv4PtrSuffix = ".in-addr.arpa."
	IPv6PtrSuffix = ".ip6.arpa."
)

var ErrInvalidArpaAddrLen = errors.New("arpa hostname is not of expected length")

// ArpaName derives the reverse lookup name of an address:
// "1.2.0.192.in-addr.arpa." for 192.0.2.1, nibble form under ip6.arpa. for IPv6
func ArpaName(ip netip.Addr) (string, error) {
	if !ip.IsValid() {
		return "", errors.New("invalid ip address")
	}

	if ip.Is4() || ip.Is4In6() {
		v4 := ip.Unmap().As4()

		return fmt.Sprintf("%d.%d.%d.%d%s", v4[3], v4[2], v4[1], v4[0], IPv4PtrSuffix), nil
	}

	v6 := ip.As16()

	var b strings.Builder

	for i := len(v6) - 1; i >= 0; i-- {
		b.WriteString(fmt.Sprintf("%x.%x.", v6[i]&0xF, v6[i]>>4))
	}

	return b.String() + IPv6PtrSuffix[1:], nil
}

// ParseIPFromArpaAddr is the inverse of ArpaName
func ParseIPFromArpaAddr(arpa string) (netip.Addr, error) {
	if strings.HasSuffix(arpa, IPv4PtrSuffix) {
		return parseIPv4FromArpaAddr(arpa)
	}

	if strings.HasSuffix(arpa, IPv6PtrSuffix) {
		return parseIPv6FromArpaAddr(arpa)
	}

	return netip.Addr{}, fmt.Errorf("invalid arpa hostname: %s", arpa)
}

func parseIPv4FromArpaAddr(arpa string) (netip.Addr, error) {
	revAddr := strings.TrimSuffix(arpa, IPv4PtrSuffix)

	parts := strings.Split(revAddr, ".")
	if len(parts) != 4 {
		return netip.Addr{}, ErrInvalidArpaAddrLen
	}

	var buf [4]byte

	for i, part := range parts {
		octet, err := strconv.ParseUint(part, 10, 8)
		if err != nil {
			return netip.Addr{}, err
		}

		buf[len(buf)-1-i] = byte(octet)
	}

	return netip.AddrFrom4(buf), nil
}

func parseIPv6FromArpaAddr(arpa string) (netip.Addr, error) {
	revAddr := strings.TrimSuffix(arpa, IPv6PtrSuffix)

	parts := strings.Split(revAddr, ".")
	if len(parts) != 32 {
		return netip.Addr{}, ErrInvalidArpaAddrLen
	}

	var buf [16]byte

	for i, part := range parts {
		nibble, err := strconv.ParseUint(part, 16, 4)
		if err != nil {
			return netip.Addr{}, err
		}

		byteIdx := len(buf) - 1 - i/2
		if i%2 == 0 {
			buf[byteIdx] |= byte(nibble)
		} else {
			buf[byteIdx] |= byte(nibble) << 4
		}
	}

	return netip.AddrFrom16(buf), nil
}
