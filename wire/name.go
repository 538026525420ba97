package wire

import "strings"

const (
	maxLabelOctets = 63
	maxNameOctets  = 255

	// top two bits of a length octet mark a compression pointer
	pointerMask = 0xC0
)

// Fqdn returns the name with a trailing dot
func Fqdn(name string) string {
	if strings.HasSuffix(name, ".") {
		return name
	}

	return name + "."
}

// CanonicalName lowercases ASCII letters; all other octets pass through
// bit-for-bit. Used for cache fingerprints and name comparison.
func CanonicalName(name string) string {
	var b strings.Builder

	b.Grow(len(name))

	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}

		b.WriteByte(c)
	}

	return b.String()
}

// NamesEqual compares two domain names case-insensitively over ASCII
func NamesEqual(a, b string) bool {
	return CanonicalName(Fqdn(a)) == CanonicalName(Fqdn(b))
}

// packName appends the wire form of a domain name in presentation format:
// length-prefixed labels terminated by a zero octet. No compression is emitted.
func packName(buf []byte, name string) ([]byte, error) {
	name = Fqdn(name)
	if name == "." {
		return append(buf, 0), nil
	}

	wireLen := 1 // terminating zero octet

	for len(name) > 0 {
		idx := strings.IndexByte(name, '.')
		if idx == 0 {
			return nil, packErr("empty label in name")
		}

		label := name[:idx]
		if len(label) > maxLabelOctets {
			return nil, packErr("label '%s' exceeds %d octets", label, maxLabelOctets)
		}

		wireLen += 1 + len(label)
		if wireLen > maxNameOctets {
			return nil, packErr("name exceeds %d wire octets", maxNameOctets)
		}

		buf = append(buf, byte(len(label)))
		buf = append(buf, label...)
		name = name[idx+1:]
	}

	return append(buf, 0), nil
}

// unpackName reads a domain name at off, resolving compression pointers.
// Every pointer must point strictly before the position it occurs at, which
// bounds chains and makes loops impossible.
func unpackName(msg []byte, off int) (string, int, error) {
	var b strings.Builder

	nameLen := 1
	ptrSeen := false
	newOff := 0
	pos := off

	for {
		if pos >= len(msg) {
			return "", 0, parseErr(pos, "name truncated")
		}

		c := int(msg[pos])

		switch c & pointerMask {
		case 0x00:
			if c == 0 {
				if !ptrSeen {
					newOff = pos + 1
				}

				if b.Len() == 0 {
					return ".", newOff, nil
				}

				return b.String(), newOff, nil
			}

			if pos+1+c > len(msg) {
				return "", 0, parseErr(pos, "label truncated")
			}

			nameLen += 1 + c
			if nameLen > maxNameOctets {
				return "", 0, parseErr(pos, "name exceeds %d wire octets", maxNameOctets)
			}

			b.Write(msg[pos+1 : pos+1+c])
			b.WriteByte('.')

			pos += 1 + c

		case pointerMask:
			if pos+2 > len(msg) {
				return "", 0, parseErr(pos, "compression pointer truncated")
			}

			target := (c&^pointerMask)<<8 | int(msg[pos+1])
			if target >= pos {
				return "", 0, parseErr(pos, "compression pointer to offset %d does not point backwards", target)
			}

			if !ptrSeen {
				newOff = pos + 2
				ptrSeen = true
			}

			pos = target

		default:
			// 0x40 and 0x80 label types violate RFC 1035
			return "", 0, parseErr(pos, "unsupported label type 0x%x", c&pointerMask)
		}
	}
}
