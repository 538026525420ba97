package client

import (
	"math/rand"
	"sync"
	"time"
)

// idGenerator hands out transaction ids from a monotonically incrementing
// 16 bit counter. On first use and after wrapping past 0xFFFF it reseeds
// from a random value in [0, 0x8000). The counter is client-scoped, not
// process-wide, so independent clients don't share an observable sequence.
type idGenerator struct {
	mu     sync.Mutex
	next   uint32
	seeded bool
	rnd    *rand.Rand
}

func newIDGenerator() *idGenerator {
	return &idGenerator{
		// math/rand suffices, ids only need to be unlikely to collide
		// with unrelated traffic, not unpredictable
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (g *idGenerator) Next() uint16 {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.seeded || g.next > 0xFFFF {
		g.next = uint32(g.rnd.Intn(0x8000))
		g.seeded = true
	}

	id := uint16(g.next)
	g.next++

	return id
}
