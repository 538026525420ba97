package client

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Transaction id generator", func() {
	It("should hand out monotonically incrementing ids", func() {
		sut := newIDGenerator()

		first := sut.Next()
		Expect(sut.Next()).Should(Equal(first + 1))
		Expect(sut.Next()).Should(Equal(first + 2))
	})

	It("should seed the first id in [0, 0x8000)", func() {
		for i := 0; i < 100; i++ {
			sut := newIDGenerator()
			Expect(sut.Next()).Should(BeNumerically("<", 0x8000))
		}
	})

	It("should reseed after wrapping past the 16 bit range", func() {
		sut := newIDGenerator()

		sut.mu.Lock()
		sut.seeded = true
		sut.next = 0xFFFF
		sut.mu.Unlock()

		Expect(sut.Next()).Should(Equal(uint16(0xFFFF)))

		reseeded := sut.Next()
		Expect(reseeded).Should(BeNumerically("<", 0x8000))

		// and increase monotonically from there
		Expect(sut.Next()).Should(Equal(reseeded + 1))
	})
})
