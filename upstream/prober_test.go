package upstream

import (
	"context"
	"errors"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/0xERR0R/stubdns/wire"
)

var _ = Describe("Prober", func() {
	var (
		servers    []*NameServer
		pool       *Pool
		probeCount atomic.Int32
		probeErr   error
	)

	question := wire.NewQuestion("example.com", wire.TypeA, wire.ClassINET)

	BeforeEach(func() {
		servers = newTestServers(2)
		pool = NewPool(servers)
		probeCount.Store(0)
		probeErr = nil

		pool.StartProbing(func(_ context.Context, server *NameServer, q wire.Question) error {
			defer GinkgoRecover()

			probeCount.Add(1)

			Expect(q).Should(Equal(question))
			Expect(server).Should(BeIdenticalTo(servers[0]))

			return probeErr
		})
	})

	When("a disabled server has a recorded question", func() {
		BeforeEach(func() {
			servers[0].MarkSuccessful(question)
			pool.Disable(servers[0])
		})

		It("should re-enable the server after a successful probe", func() {
			pool.NextServers(false)

			Eventually(servers[0].Enabled, "1s", "10ms").Should(BeTrue())
			Expect(int(probeCount.Load())).Should(Equal(1))
		})

		It("should keep the server disabled when the probe fails", func() {
			probeErr = errors.New("still down")

			pool.NextServers(false)

			Eventually(func() int { return int(probeCount.Load()) }, "1s", "10ms").Should(Equal(1))
			Consistently(servers[0].Enabled, "100ms").Should(BeFalse())
		})

		It("should not run a second cycle within the probe interval", func() {
			pool.NextServers(false)

			Eventually(func() int { return int(probeCount.Load()) }, "1s", "10ms").Should(Equal(1))

			// disable again: the next cycle is not due for another 30s
			pool.Disable(servers[0])
			pool.NextServers(false)
			pool.NextServers(false)

			Consistently(func() int { return int(probeCount.Load()) }, "200ms").Should(Equal(1))
		})
	})

	When("a disabled server has no recorded question", func() {
		It("should not be probed", func() {
			pool.Disable(servers[0])
			pool.NextServers(false)

			Consistently(func() int { return int(probeCount.Load()) }, "200ms").Should(Equal(0))
		})
	})
})
