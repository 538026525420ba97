package wire

import (
	"encoding/binary"
	"fmt"
)

// Question is the (name, type, class) triple of a query
type Question struct {
	Name  string
	Type  Type
	Class Class
}

// NewQuestion builds a question with the name in fully qualified form
func NewQuestion(name string, qType Type, qClass Class) Question {
	return Question{Name: Fqdn(name), Type: qType, Class: qClass}
}

// Fingerprint returns the canonical cache key: the ASCII-lowercased name
// joined with type and class. Two questions differing only in name case
// produce the same fingerprint.
func (q Question) Fingerprint() string {
	return fmt.Sprintf("%s|%d|%d", CanonicalName(Fqdn(q.Name)), uint16(q.Type), uint16(q.Class))
}

// Matches compares two questions, names case-insensitively
func (q Question) Matches(other Question) bool {
	return q.Type == other.Type && q.Class == other.Class && NamesEqual(q.Name, other.Name)
}

func (q Question) String() string {
	return fmt.Sprintf("%s %s %s", Fqdn(q.Name), q.Class, q.Type)
}

func (q Question) pack(buf []byte) ([]byte, error) {
	buf, err := packName(buf, q.Name)
	if err != nil {
		return nil, err
	}

	buf = binary.BigEndian.AppendUint16(buf, uint16(q.Type))
	buf = binary.BigEndian.AppendUint16(buf, uint16(q.Class))

	return buf, nil
}

func unpackQuestion(msg []byte, off int) (Question, int, error) {
	name, off, err := unpackName(msg, off)
	if err != nil {
		return Question{}, 0, err
	}

	if off+4 > len(msg) {
		return Question{}, 0, parseErr(off, "question truncated")
	}

	q := Question{
		Name:  name,
		Type:  Type(binary.BigEndian.Uint16(msg[off:])),
		Class: Class(binary.BigEndian.Uint16(msg[off+2:])),
	}

	return q, off + 4, nil
}
