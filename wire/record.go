package wire

import (
	"encoding/binary"
	"fmt"
	"net/netip"
	"strings"
)

// ResourceHeader is the part shared by all resource records
type ResourceHeader struct {
	Name  string
	Type  Type
	Class Class
	TTL   uint32
}

func (h *ResourceHeader) Header() *ResourceHeader { return h }

func (h *ResourceHeader) prefix() string {
	return fmt.Sprintf("%s %d %s %s", Fqdn(h.Name), h.TTL, h.Class, h.Type)
}

// Record is a decoded resource record. The concrete type depends on the
// record type; types without a registered decoder come back as *Unknown.
type Record interface {
	Header() *ResourceHeader
	String() string

	packRData(buf []byte) ([]byte, error)
}

// A is an IPv4 host address record
type A struct {
	ResourceHeader
	Addr netip.Addr
}

func (r *A) String() string { return r.prefix() + " " + r.Addr.String() }

func (r *A) packRData(buf []byte) ([]byte, error) {
	v4 := r.Addr.As4()

	return append(buf, v4[:]...), nil
}

// AAAA is an IPv6 host address record
type AAAA struct {
	ResourceHeader
	Addr netip.Addr
}

func (r *AAAA) String() string { return r.prefix() + " " + r.Addr.String() }

func (r *AAAA) packRData(buf []byte) ([]byte, error) {
	v6 := r.Addr.As16()

	return append(buf, v6[:]...), nil
}

// NS is an authoritative name server record
type NS struct {
	ResourceHeader
	NS string
}

func (r *NS) String() string { return r.prefix() + " " + Fqdn(r.NS) }

func (r *NS) packRData(buf []byte) ([]byte, error) { return packName(buf, r.NS) }

// CNAME is a canonical name record
type CNAME struct {
	ResourceHeader
	Target string
}

func (r *CNAME) String() string { return r.prefix() + " " + Fqdn(r.Target) }

func (r *CNAME) packRData(buf []byte) ([]byte, error) { return packName(buf, r.Target) }

// PTR is a domain name pointer record
type PTR struct {
	ResourceHeader
	Ptr string
}

func (r *PTR) String() string { return r.prefix() + " " + Fqdn(r.Ptr) }

func (r *PTR) packRData(buf []byte) ([]byte, error) { return packName(buf, r.Ptr) }

// MX is a mail exchange record
type MX struct {
	ResourceHeader
	Preference uint16
	MX         string
}

func (r *MX) String() string { return fmt.Sprintf("%s %d %s", r.prefix(), r.Preference, Fqdn(r.MX)) }

func (r *MX) packRData(buf []byte) ([]byte, error) {
	buf = binary.BigEndian.AppendUint16(buf, r.Preference)

	return packName(buf, r.MX)
}

// TXT is a text record holding one or more character strings
type TXT struct {
	ResourceHeader
	Txt []string
}

func (r *TXT) String() string {
	quoted := make([]string, len(r.Txt))
	for i, t := range r.Txt {
		quoted[i] = fmt.Sprintf("%q", t)
	}

	return r.prefix() + " " + strings.Join(quoted, " ")
}

func (r *TXT) packRData(buf []byte) ([]byte, error) {
	for _, t := range r.Txt {
		if len(t) > 255 {
			return nil, packErr("txt string exceeds 255 octets")
		}

		buf = append(buf, byte(len(t)))
		buf = append(buf, t...)
	}

	return buf, nil
}

// SOA is a start-of-authority record
type SOA struct {
	ResourceHeader
	NS      string
	Mbox    string
	Serial  uint32
	Refresh uint32
	Retry   uint32
	Expire  uint32
	MinTTL  uint32
}

func (r *SOA) String() string {
	return fmt.Sprintf("%s %s %s %d %d %d %d %d",
		r.prefix(), Fqdn(r.NS), Fqdn(r.Mbox), r.Serial, r.Refresh, r.Retry, r.Expire, r.MinTTL)
}

func (r *SOA) packRData(buf []byte) ([]byte, error) {
	buf, err := packName(buf, r.NS)
	if err != nil {
		return nil, err
	}

	buf, err = packName(buf, r.Mbox)
	if err != nil {
		return nil, err
	}

	buf = binary.BigEndian.AppendUint32(buf, r.Serial)
	buf = binary.BigEndian.AppendUint32(buf, r.Refresh)
	buf = binary.BigEndian.AppendUint32(buf, r.Retry)
	buf = binary.BigEndian.AppendUint32(buf, r.Expire)
	buf = binary.BigEndian.AppendUint32(buf, r.MinTTL)

	return buf, nil
}

// SRV is a service locator record
type SRV struct {
	ResourceHeader
	Priority uint16
	Weight   uint16
	Port     uint16
	Target   string
}

func (r *SRV) String() string {
	return fmt.Sprintf("%s %d %d %d %s", r.prefix(), r.Priority, r.Weight, r.Port, Fqdn(r.Target))
}

func (r *SRV) packRData(buf []byte) ([]byte, error) {
	buf = binary.BigEndian.AppendUint16(buf, r.Priority)
	buf = binary.BigEndian.AppendUint16(buf, r.Weight)
	buf = binary.BigEndian.AppendUint16(buf, r.Port)

	// RFC 2782 forbids compressing the target
	return packName(buf, r.Target)
}

// Unknown preserves the raw rdata of record types without a decoder
type Unknown struct {
	ResourceHeader
	Data []byte
}

func (r *Unknown) String() string {
	// RFC 3597 generic representation
	return fmt.Sprintf("%s \\# %d %x", r.prefix(), len(r.Data), r.Data)
}

func (r *Unknown) packRData(buf []byte) ([]byte, error) { return append(buf, r.Data...), nil }

type recordDecoder func(hdr ResourceHeader, msg []byte, off, end int) (Record, error)

// typeDecoders dispatches rdata decoding by record type. Types not listed
// here decode as *Unknown with the raw rdata preserved.
// nolint:gochecknoglobals
var typeDecoders = map[Type]recordDecoder{
	TypeA:     unpackA,
	TypeAAAA:  unpackAAAA,
	TypeNS:    unpackNS,
	TypeCNAME: unpackCNAME,
	TypePTR:   unpackPTR,
	TypeMX:    unpackMX,
	TypeTXT:   unpackTXT,
	TypeSOA:   unpackSOA,
	TypeSRV:   unpackSRV,
	TypeOPT:   unpackOPT,
}

func unpackA(hdr ResourceHeader, msg []byte, off, end int) (Record, error) {
	if end-off != 4 {
		return nil, parseErr(off, "A rdata must be 4 octets, got %d", end-off)
	}

	return &A{ResourceHeader: hdr, Addr: netip.AddrFrom4([4]byte(msg[off:end]))}, nil
}

func unpackAAAA(hdr ResourceHeader, msg []byte, off, end int) (Record, error) {
	if end-off != 16 {
		return nil, parseErr(off, "AAAA rdata must be 16 octets, got %d", end-off)
	}

	return &AAAA{ResourceHeader: hdr, Addr: netip.AddrFrom16([16]byte(msg[off:end]))}, nil
}

func unpackRDataName(msg []byte, off, end int) (string, error) {
	name, newOff, err := unpackName(msg, off)
	if err != nil {
		return "", err
	}

	if newOff != end {
		return "", parseErr(off, "trailing octets after name in rdata")
	}

	return name, nil
}

func unpackNS(hdr ResourceHeader, msg []byte, off, end int) (Record, error) {
	name, err := unpackRDataName(msg, off, end)
	if err != nil {
		return nil, err
	}

	return &NS{ResourceHeader: hdr, NS: name}, nil
}

func unpackCNAME(hdr ResourceHeader, msg []byte, off, end int) (Record, error) {
	name, err := unpackRDataName(msg, off, end)
	if err != nil {
		return nil, err
	}

	return &CNAME{ResourceHeader: hdr, Target: name}, nil
}

func unpackPTR(hdr ResourceHeader, msg []byte, off, end int) (Record, error) {
	name, err := unpackRDataName(msg, off, end)
	if err != nil {
		return nil, err
	}

	return &PTR{ResourceHeader: hdr, Ptr: name}, nil
}

func unpackMX(hdr ResourceHeader, msg []byte, off, end int) (Record, error) {
	if end-off < 3 {
		return nil, parseErr(off, "MX rdata too short")
	}

	pref := binary.BigEndian.Uint16(msg[off:])

	name, err := unpackRDataName(msg, off+2, end)
	if err != nil {
		return nil, err
	}

	return &MX{ResourceHeader: hdr, Preference: pref, MX: name}, nil
}

func unpackTXT(hdr ResourceHeader, msg []byte, off, end int) (Record, error) {
	var txt []string

	for off < end {
		l := int(msg[off])
		off++

		if off+l > end {
			return nil, parseErr(off, "txt string truncated")
		}

		txt = append(txt, string(msg[off:off+l]))
		off += l
	}

	return &TXT{ResourceHeader: hdr, Txt: txt}, nil
}

func unpackSOA(hdr ResourceHeader, msg []byte, off, end int) (Record, error) {
	ns, off, err := unpackName(msg, off)
	if err != nil {
		return nil, err
	}

	mbox, off, err := unpackName(msg, off)
	if err != nil {
		return nil, err
	}

	if end-off != 20 {
		return nil, parseErr(off, "SOA rdata trailer must be 20 octets, got %d", end-off)
	}

	return &SOA{
		ResourceHeader: hdr,
		NS:             ns,
		Mbox:           mbox,
		Serial:         binary.BigEndian.Uint32(msg[off:]),
		Refresh:        binary.BigEndian.Uint32(msg[off+4:]),
		Retry:          binary.BigEndian.Uint32(msg[off+8:]),
		Expire:         binary.BigEndian.Uint32(msg[off+12:]),
		MinTTL:         binary.BigEndian.Uint32(msg[off+16:]),
	}, nil
}

func unpackSRV(hdr ResourceHeader, msg []byte, off, end int) (Record, error) {
	if end-off < 7 {
		return nil, parseErr(off, "SRV rdata too short")
	}

	target, err := unpackRDataName(msg, off+6, end)
	if err != nil {
		return nil, err
	}

	return &SRV{
		ResourceHeader: hdr,
		Priority:       binary.BigEndian.Uint16(msg[off:]),
		Weight:         binary.BigEndian.Uint16(msg[off+2:]),
		Port:           binary.BigEndian.Uint16(msg[off+4:]),
		Target:         target,
	}, nil
}

func unpackRecord(msg []byte, off int) (Record, int, error) {
	name, off, err := unpackName(msg, off)
	if err != nil {
		return nil, 0, err
	}

	if off+10 > len(msg) {
		return nil, 0, parseErr(off, "record header truncated")
	}

	hdr := ResourceHeader{
		Name:  name,
		Type:  Type(binary.BigEndian.Uint16(msg[off:])),
		Class: Class(binary.BigEndian.Uint16(msg[off+2:])),
		TTL:   binary.BigEndian.Uint32(msg[off+4:]),
	}

	rdLength := int(binary.BigEndian.Uint16(msg[off+8:]))
	off += 10

	if off+rdLength > len(msg) {
		return nil, 0, parseErr(off, "rdata truncated: want %d octets, have %d", rdLength, len(msg)-off)
	}

	end := off + rdLength

	decode, ok := typeDecoders[hdr.Type]
	if !ok {
		data := make([]byte, rdLength)
		copy(data, msg[off:end])

		return &Unknown{ResourceHeader: hdr, Data: data}, end, nil
	}

	rec, err := decode(hdr, msg, off, end)
	if err != nil {
		return nil, 0, err
	}

	return rec, end, nil
}

func packRecord(buf []byte, rec Record) ([]byte, error) {
	hdr := rec.Header()

	buf, err := packName(buf, hdr.Name)
	if err != nil {
		return nil, err
	}

	buf = binary.BigEndian.AppendUint16(buf, uint16(hdr.Type))
	buf = binary.BigEndian.AppendUint16(buf, uint16(hdr.Class))
	buf = binary.BigEndian.AppendUint32(buf, hdr.TTL)

	lenOff := len(buf)
	buf = append(buf, 0, 0)

	buf, err = rec.packRData(buf)
	if err != nil {
		return nil, err
	}

	rdLength := len(buf) - lenOff - 2
	if rdLength > 0xFFFF {
		return nil, packErr("rdata exceeds 65535 octets")
	}

	binary.BigEndian.PutUint16(buf[lenOff:], uint16(rdLength))

	return buf, nil
}
