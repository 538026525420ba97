package wire

import "fmt"

// DefaultUDPPayloadSize is the UDP payload size advertised via EDNS(0)
const DefaultUDPPayloadSize uint16 = 4096

// MinUDPPayloadSize is the RFC 1035 datagram limit used when EDNS is absent
const MinUDPPayloadSize uint16 = 512

// OPT is the EDNS(0) pseudo record of RFC 6891. Its header fields are
// overloaded: the class carries the advertised UDP payload size and the TTL
// packs extended rcode, version and flags.
type OPT struct {
	ResourceHeader
	Options []byte // raw rdata, options are not interpreted
}

// NewOPT builds an OPT pseudo record advertising the given UDP payload size
func NewOPT(udpPayloadSize uint16) *OPT {
	return &OPT{
		ResourceHeader: ResourceHeader{
			Name:  ".",
			Type:  TypeOPT,
			Class: Class(udpPayloadSize),
		},
	}
}

// UDPPayloadSize is the sender's advertised maximum UDP payload size
func (r *OPT) UDPPayloadSize() uint16 { return uint16(r.Class) }

// ExtendedRcode is the upper 8 bits of the extended 12-bit rcode
func (r *OPT) ExtendedRcode() uint8 { return uint8(r.TTL >> 24) }

// Version is the EDNS version, zero for EDNS(0)
func (r *OPT) Version() uint8 { return uint8(r.TTL >> 16) }

// Flags16 is the EDNS flags field (DO bit and reserved bits)
func (r *OPT) Flags16() uint16 { return uint16(r.TTL) }

func (r *OPT) String() string {
	return fmt.Sprintf("EDNS: version: %d, flags:; udp: %d", r.Version(), r.UDPPayloadSize())
}

func (r *OPT) packRData(buf []byte) ([]byte, error) { return append(buf, r.Options...), nil }

func unpackOPT(hdr ResourceHeader, msg []byte, off, end int) (Record, error) {
	data := make([]byte, end-off)
	copy(data, msg[off:end])

	return &OPT{ResourceHeader: hdr, Options: data}, nil
}
