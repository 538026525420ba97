// Package transport moves raw DNS messages over UDP and TCP with a
// per-attempt deadline taken from the context.
package transport

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"syscall"

	"github.com/hashicorp/go-multierror"
)

// Protocol is the transport protocol of an exchange
type Protocol uint8

const (
	ProtocolUDP Protocol = iota
	ProtocolTCP
)

func (p Protocol) String() string {
	if p == ProtocolTCP {
		return "tcp"
	}

	return "udp"
}

// MessageTransport exchanges one raw request for one raw response against a
// single endpoint. The deadline of ctx bounds the whole exchange.
type MessageTransport interface {
	RawQuery(ctx context.Context, endpoint netip.AddrPort, request []byte) ([]byte, error)
	Protocol() Protocol
	Close() error
}

// IsTransient reports whether retrying the same server can be expected to
// help: timeouts, resets, refused connections and unreachable hosts.
// Aggregated errors are unwrapped and are transient if any inner error is.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var merr *multierror.Error
	if errors.As(err, &merr) {
		for _, inner := range merr.Errors {
			if IsTransient(inner) {
				return true
			}
		}

		return false
	}

	if IsPermanent(err) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.ENETRESET)
}

// IsPermanent reports errors for which the server should be taken out of
// rotation instead of retried, e.g. an unsupported address family.
func IsPermanent(err error) bool {
	return errors.Is(err, syscall.EAFNOSUPPORT) || errors.Is(err, syscall.EADDRNOTAVAIL)
}

func deadlineFromContext(ctx context.Context, conn net.Conn) error {
	if deadline, ok := ctx.Deadline(); ok {
		return conn.SetDeadline(deadline)
	}

	return nil
}
