package transport

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"net/netip"
	"time"
)

// UDPTransport exchanges single datagrams. Sockets are short-lived, one per
// attempt. Received datagrams whose transaction id differs from the request
// are discarded until the deadline elapses.
type UDPTransport struct {
	bufferSize uint16
}

// NewUDPTransport creates a datagram transport reading responses of up to
// bufferSize octets (the negotiated EDNS payload size, or 512 without EDNS)
func NewUDPTransport(bufferSize uint16) *UDPTransport {
	if bufferSize < minMessageSize {
		bufferSize = minMessageSize
	}

	return &UDPTransport{bufferSize: bufferSize}
}

const minMessageSize = 512

func (t *UDPTransport) Protocol() Protocol { return ProtocolUDP }

func (t *UDPTransport) Close() error { return nil }

func (t *UDPTransport) RawQuery(ctx context.Context, endpoint netip.AddrPort, request []byte) ([]byte, error) {
	if len(request) < 2 {
		return nil, fmt.Errorf("request too short: %d bytes", len(request))
	}

	var d net.Dialer

	conn, err := d.DialContext(ctx, "udp", endpoint.String())
	if err != nil {
		return nil, fmt.Errorf("can't open udp socket to %s: %w", endpoint, err)
	}
	defer conn.Close()

	if err := deadlineFromContext(ctx, conn); err != nil {
		return nil, fmt.Errorf("can't arm deadline: %w", err)
	}

	// caller cancellation interrupts a blocking read
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	if _, err := conn.Write(request); err != nil {
		return nil, fmt.Errorf("can't send datagram to %s: %w", endpoint, err)
	}

	requestID := binary.BigEndian.Uint16(request)
	buf := make([]byte, t.bufferSize)

	// datagrams with a foreign transaction id are dropped, the loop ends
	// via the connection deadline
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("can't receive datagram from %s: %w", endpoint, err)
		}

		if n < 2 || binary.BigEndian.Uint16(buf[:2]) != requestID {
			continue
		}

		response := make([]byte, n)
		copy(response, buf[:n])

		return response, nil
	}
}
