// Package wire implements the RFC 1035 message codec: request encoding,
// response decoding with name compression and the EDNS(0) OPT pseudo record.
package wire

import "errors"

// ErrIDMismatch is returned when a response carries a different transaction
// id than the request it is matched against.
var ErrIDMismatch = errors.New("response id does not match request id")

// Message is a DNS message in decoded form
type Message struct {
	Header

	Questions   []Question
	Answers     []Record
	Authorities []Record
	Additionals []Record
}

// NewQuery builds a standard query message with one question
func NewQuery(id uint16, question Question, recursionDesired bool) *Message {
	return &Message{
		Header: Header{
			ID:               id,
			Opcode:           OpcodeQuery,
			RecursionDesired: recursionDesired,
		},
		Questions: []Question{question},
	}
}

// SetEdns0 appends an OPT pseudo record advertising the UDP payload size
func (m *Message) SetEdns0(udpPayloadSize uint16) {
	m.Additionals = append(m.Additionals, NewOPT(udpPayloadSize))
}

// IsEdns0 returns the OPT pseudo record from the additional section, or nil
func (m *Message) IsEdns0() *OPT {
	for _, rec := range m.Additionals {
		if opt, ok := rec.(*OPT); ok {
			return opt
		}
	}

	return nil
}

// StripEdns0 removes the OPT pseudo record from the additional section and
// returns it, or nil if there was none
func (m *Message) StripEdns0() *OPT {
	for i, rec := range m.Additionals {
		if opt, ok := rec.(*OPT); ok {
			m.Additionals = append(m.Additionals[:i], m.Additionals[i+1:]...)

			return opt
		}
	}

	return nil
}

// Records returns all non-question records in section order
func (m *Message) Records() []Record {
	records := make([]Record, 0, len(m.Answers)+len(m.Authorities)+len(m.Additionals))
	records = append(records, m.Answers...)
	records = append(records, m.Authorities...)
	records = append(records, m.Additionals...)

	return records
}

// Size returns the wire size of the packed message, or 0 if it can't be packed
func (m *Message) Size() int {
	raw, err := m.Pack()
	if err != nil {
		return 0
	}

	return len(raw)
}

// Pack renders the message to wire format. Section counts in the header are
// derived from the section slices. Names are emitted without compression.
func (m *Message) Pack() ([]byte, error) {
	hdr := m.Header
	hdr.QDCount = uint16(len(m.Questions))
	hdr.ANCount = uint16(len(m.Answers))
	hdr.NSCount = uint16(len(m.Authorities))
	hdr.ARCount = uint16(len(m.Additionals))

	buf := hdr.pack(make([]byte, 0, headerLen+64))

	var err error

	for _, q := range m.Questions {
		if buf, err = q.pack(buf); err != nil {
			return nil, err
		}
	}

	for _, section := range [][]Record{m.Answers, m.Authorities, m.Additionals} {
		for _, rec := range section {
			if buf, err = packRecord(buf, rec); err != nil {
				return nil, err
			}
		}
	}

	return buf, nil
}

// Unpack decodes a wire format message. The truncation bit is surfaced on the
// header and is not an error.
func Unpack(raw []byte) (*Message, error) {
	hdr, off, err := unpackHeader(raw)
	if err != nil {
		return nil, err
	}

	m := &Message{Header: hdr}

	for i := 0; i < int(hdr.QDCount); i++ {
		var q Question

		if q, off, err = unpackQuestion(raw, off); err != nil {
			return nil, err
		}

		m.Questions = append(m.Questions, q)
	}

	unpackSection := func(count uint16) ([]Record, error) {
		var section []Record

		for i := 0; i < int(count); i++ {
			var rec Record

			if rec, off, err = unpackRecord(raw, off); err != nil {
				return nil, err
			}

			section = append(section, rec)
		}

		return section, nil
	}

	if m.Answers, err = unpackSection(hdr.ANCount); err != nil {
		return nil, err
	}

	if m.Authorities, err = unpackSection(hdr.NSCount); err != nil {
		return nil, err
	}

	if m.Additionals, err = unpackSection(hdr.ARCount); err != nil {
		return nil, err
	}

	return m, nil
}
