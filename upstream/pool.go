package upstream

import (
	"sync"

	"github.com/0xERR0R/stubdns/evt"
	"github.com/0xERR0R/stubdns/log"
)

// Pool is the ordered collection of name servers a client draws from.
type Pool struct {
	mu      sync.Mutex
	servers []*NameServer
	prober  *prober
}

func NewPool(servers []*NameServer) *Pool {
	return &Pool{servers: servers}
}

// StartProbing wires the health prober. probe performs one cache-bypassing
// query against the given server; it is invoked for disabled servers at most
// once per probe cycle.
func (p *Pool) StartProbing(probe ProbeFunc) {
	p.prober = newProber(p, probe)
}

// NextServers returns the server order for one logical query:
// the enabled subset in pool order, or every server when all are disabled
// (degraded mode). With rotate set, the pool order advances by one position
// afterwards, yielding round robin across successive queries. Calling this
// also gives the health prober a chance to run.
func (p *Pool) NextServers(rotate bool) []*NameServer {
	p.mu.Lock()

	snapshot := make([]*NameServer, 0, len(p.servers))

	for _, s := range p.servers {
		if s.Enabled() {
			snapshot = append(snapshot, s)
		}
	}

	// degraded mode: every server disabled, return the full set so the
	// engine still has something to try
	if len(snapshot) == 0 {
		snapshot = append(snapshot, p.servers...)
	}

	if rotate && len(p.servers) > 1 {
		p.servers = append(p.servers[1:], p.servers[0])
	}

	p.mu.Unlock()

	if p.prober != nil {
		p.prober.kickIfDue()
	}

	return snapshot
}

// Disable takes a server out of rotation. A single-server pool is never
// disabled, the engine must keep trying its only server.
func (p *Pool) Disable(server *NameServer) {
	p.mu.Lock()
	size := len(p.servers)
	p.mu.Unlock()

	if size <= 1 {
		return
	}

	if server.Enabled() {
		log.PrefixedLog("upstream").Warnf("disabling name server %s", server)
		evt.Bus().Publish(evt.ResolverServerDisabled, server.String())
	}

	server.setEnabled(false)
}

// Reenable puts a server back into rotation after a successful health probe
func (p *Pool) Reenable(server *NameServer) {
	if !server.Enabled() {
		log.PrefixedLog("upstream").Infof("re-enabling name server %s", server)
		evt.Bus().Publish(evt.ResolverServerReenabled, server.String())
	}

	server.setEnabled(true)
}

// Servers returns a snapshot of all servers in pool order
func (p *Pool) Servers() []*NameServer {
	p.mu.Lock()
	defer p.mu.Unlock()

	snapshot := make([]*NameServer, len(p.servers))
	copy(snapshot, p.servers)

	return snapshot
}

// Size returns the number of configured servers
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.servers)
}
