package util

import (
	"net/netip"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Arpa name derivation", func() {
	Describe("ArpaName", func() {
		It("should reverse IPv4 octets under in-addr.arpa.", func() {
			name, err := ArpaName(netip.MustParseAddr("192.0.2.1"))
			Expect(err).Should(Succeed())
			Expect(name).Should(Equal("1.2.0.192.in-addr.arpa."))
		})

		It("should unmap IPv4-mapped IPv6 addresses", func() {
			name, err := ArpaName(netip.MustParseAddr("::ffff:192.0.2.1"))
			Expect(err).Should(Succeed())
			Expect(name).Should(Equal("1.2.0.192.in-addr.arpa."))
		})

		It("should expand IPv6 addresses to reversed nibbles under ip6.arpa.", func() {
			name, err := ArpaName(netip.MustParseAddr("2001:db8::567:89ab"))
			Expect(err).Should(Succeed())
			Expect(name).Should(Equal(
				"b.a.9.8.7.6.5.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.8.b.d.0.1.0.0.2.ip6.arpa."))
		})

		It("should reject the zero value", func() {
			_, err := ArpaName(netip.Addr{})
			Expect(err).Should(HaveOccurred())
		})
	})

	Describe("ParseIPFromArpaAddr", func() {
		It("should invert ArpaName for IPv4", func() {
			ip, err := ParseIPFromArpaAddr("1.2.0.192.in-addr.arpa.")
			Expect(err).Should(Succeed())
			Expect(ip).Should(Equal(netip.MustParseAddr("192.0.2.1")))
		})

		It("should invert ArpaName for IPv6", func() {
			ip, err := ParseIPFromArpaAddr(
				"b.a.9.8.7.6.5.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.8.b.d.0.1.0.0.2.ip6.arpa.")
			Expect(err).Should(Succeed())
			Expect(ip).Should(Equal(netip.MustParseAddr("2001:db8::567:89ab")))
		})

		It("should reject names of unexpected length", func() {
			_, err := ParseIPFromArpaAddr("1.2.0.in-addr.arpa.")
			Expect(err).Should(Equal(ErrInvalidArpaAddrLen))

			_, err = ParseIPFromArpaAddr("example.com.")
			Expect(err).Should(HaveOccurred())
		})
	})
})
