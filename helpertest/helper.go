// Package helpertest provides mock name servers and shorthand constants for
// tests.
package helpertest

import (
	"github.com/0xERR0R/stubdns/wire"
)

const (
	A     = wire.TypeA
	AAAA  = wire.TypeAAAA
	CNAME = wire.TypeCNAME
	MX    = wire.TypeMX
	NS    = wire.TypeNS
	PTR   = wire.TypePTR
	SOA   = wire.TypeSOA
	SRV   = wire.TypeSRV
	TXT   = wire.TypeTXT

	IN = wire.ClassINET
)
