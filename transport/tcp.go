package transport

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"net/netip"
	"sync"
	"time"
)

// TCPTransport exchanges length-prefixed messages over stream connections.
// Connections are pooled per endpoint but never shared: a pooled connection
// is checked out for the whole exchange, so no two outstanding queries
// multiplex one stream.
type TCPTransport struct {
	mu     sync.Mutex
	idle   map[netip.AddrPort][]net.Conn
	closed bool
}

func NewTCPTransport() *TCPTransport {
	return &TCPTransport{idle: make(map[netip.AddrPort][]net.Conn)}
}

func (t *TCPTransport) Protocol() Protocol { return ProtocolTCP }

func (t *TCPTransport) checkout(ctx context.Context, endpoint netip.AddrPort) (net.Conn, bool, error) {
	t.mu.Lock()

	if conns := t.idle[endpoint]; len(conns) > 0 {
		conn := conns[len(conns)-1]
		t.idle[endpoint] = conns[:len(conns)-1]
		t.mu.Unlock()

		return conn, true, nil
	}
	t.mu.Unlock()

	var d net.Dialer

	conn, err := d.DialContext(ctx, "tcp", endpoint.String())
	if err != nil {
		return nil, false, fmt.Errorf("can't connect to %s: %w", endpoint, err)
	}

	return conn, false, nil
}

func (t *TCPTransport) checkin(endpoint netip.AddrPort, conn net.Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		_ = conn.Close()

		return
	}

	t.idle[endpoint] = append(t.idle[endpoint], conn)
}

// Close drops all pooled connections
func (t *TCPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true

	for _, conns := range t.idle {
		for _, conn := range conns {
			_ = conn.Close()
		}
	}

	t.idle = make(map[netip.AddrPort][]net.Conn)

	return nil
}

func (t *TCPTransport) RawQuery(ctx context.Context, endpoint netip.AddrPort, request []byte) ([]byte, error) {
	if len(request) > 0xFFFF {
		return nil, fmt.Errorf("request of %d bytes exceeds tcp frame limit", len(request))
	}

	conn, pooled, err := t.checkout(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	response, err := exchangeFramed(ctx, conn, request)
	if err != nil {
		_ = conn.Close()

		// a reused connection may have been closed by the peer in the
		// meantime, retry the exchange once on a fresh connection
		if pooled {
			if conn, _, err2 := t.checkout(ctx, endpoint); err2 == nil {
				if response, err = exchangeFramed(ctx, conn, request); err == nil {
					t.checkin(endpoint, conn)

					return response, nil
				}

				_ = conn.Close()
			}
		}

		return nil, err
	}

	t.checkin(endpoint, conn)

	return response, nil
}

// exchangeFramed writes one 16 bit length-prefixed message and reads one back
func exchangeFramed(ctx context.Context, conn net.Conn, request []byte) ([]byte, error) {
	if err := deadlineFromContext(ctx, conn); err != nil {
		return nil, fmt.Errorf("can't arm deadline: %w", err)
	}

	// caller cancellation interrupts a blocking read
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	frame := make([]byte, 2+len(request))
	binary.BigEndian.PutUint16(frame, uint16(len(request)))
	copy(frame[2:], request)

	if _, err := conn.Write(frame); err != nil {
		return nil, fmt.Errorf("can't send request: %w", err)
	}

	var lengthPrefix [2]byte

	if _, err := io.ReadFull(conn, lengthPrefix[:]); err != nil {
		return nil, fmt.Errorf("can't read response length: %w", err)
	}

	response := make([]byte, binary.BigEndian.Uint16(lengthPrefix[:]))

	if _, err := io.ReadFull(conn, response); err != nil {
		return nil, fmt.Errorf("can't read response: %w", err)
	}

	return response, nil
}
