// Package upstream manages the configured name servers: their health state,
// the selection order for a query and the background re-probing of servers
// which were taken out of rotation.
package upstream

import (
	"net/netip"
	"sync"

	"github.com/0xERR0R/stubdns/wire"
)

// NameServer is one recursive name server endpoint together with its health
// state and negotiated EDNS payload size. All state is safe for concurrent
// use; stale reads at worst cost one extra attempt against a bad server.
type NameServer struct {
	addr netip.AddrPort

	mu             sync.Mutex
	enabled        bool
	lastSuccessful *wire.Question
	udpPayloadSize uint16
}

func NewNameServer(addr netip.AddrPort) *NameServer {
	return &NameServer{
		addr:           addr,
		enabled:        true,
		udpPayloadSize: wire.MinUDPPayloadSize,
	}
}

func (s *NameServer) Addr() netip.AddrPort { return s.addr }

func (s *NameServer) String() string { return s.addr.String() }

func (s *NameServer) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.enabled
}

func (s *NameServer) setEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enabled = enabled
}

// MarkSuccessful re-enables the server and remembers the question for later
// health probes
func (s *NameServer) MarkSuccessful(q wire.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enabled = true
	s.lastSuccessful = &q
}

// LastSuccessfulQuestion returns the question of the last successful request,
// or nil if the server never answered
func (s *NameServer) LastSuccessfulQuestion() *wire.Question {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastSuccessful
}

// SetUDPPayloadSize records the payload size the server advertised in its
// EDNS OPT record
func (s *NameServer) SetUDPPayloadSize(size uint16) {
	if size < wire.MinUDPPayloadSize {
		size = wire.MinUDPPayloadSize
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.udpPayloadSize = size
}

// UDPPayloadSize returns the negotiated UDP payload size, at least 512
func (s *NameServer) UDPPayloadSize() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.udpPayloadSize
}
