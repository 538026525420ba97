package upstream

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/0xERR0R/stubdns/log"
	"github.com/0xERR0R/stubdns/wire"
)

const (
	// probeInterval is the minimum time between two probe cycles
	probeInterval = 30 * time.Second

	// probeTimeout bounds one whole probe cycle
	probeTimeout = 60 * time.Second
)

// ProbeFunc issues the question against exactly the given server, bypassing
// the cache. A nil error re-enables the server.
type ProbeFunc func(ctx context.Context, server *NameServer, question wire.Question) error

// prober re-checks disabled servers in the background. The gate is a pair of
// atomics: the tick of the last cycle start and a running flag preventing
// reentrance.
type prober struct {
	pool  *Pool
	probe ProbeFunc

	startedAt    time.Time
	lastTick     atomic.Int32
	running      atomic.Bool
	intervalTick int32
}

func newProber(pool *Pool, probe ProbeFunc) *prober {
	return &prober{
		pool:         pool,
		probe:        probe,
		startedAt:    time.Now(),
		intervalTick: int32(probeInterval / time.Second),
	}
}

// currentTick is always >= 1 so a stored zero means "never ran"
func (p *prober) currentTick() int32 {
	return int32(int64(time.Since(p.startedAt)/time.Second)%int64(math.MaxInt32-1)) + 1
}

// kickIfDue starts a probe cycle if the interval elapsed and no cycle is
// already running
func (p *prober) kickIfDue() {
	now := p.currentTick()

	last := p.lastTick.Load()
	if now < last {
		// tick counter wrapped, restart the epoch
		p.lastTick.Store(0)
		last = 0
	}

	if last != 0 && now-last < p.intervalTick {
		return
	}

	if !p.running.CompareAndSwap(false, true) {
		return
	}

	p.lastTick.Store(now)

	go p.runCycle()
}

func (p *prober) runCycle() {
	defer p.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	logger := log.PrefixedLog("prober")

	for _, server := range p.pool.Servers() {
		if server.Enabled() {
			continue
		}

		question := server.LastSuccessfulQuestion()
		if question == nil {
			continue
		}

		logger.Debugf("probing disabled name server %s with '%s'", server, question)

		// probe errors keep the server disabled until the next cycle
		if err := p.probe(ctx, server, *question); err != nil {
			logger.Debugf("probe of %s failed: %v", server, err)

			continue
		}

		p.pool.Reenable(server)
	}
}
