package config

import (
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	Describe("New", func() {
		It("should apply the documented defaults", func() {
			cfg := New()

			Expect(cfg.UseTCPFallback).Should(BeTrue())
			Expect(cfg.UseTCPOnly).Should(BeFalse())
			Expect(cfg.EnableAuditTrail).Should(BeFalse())
			Expect(cfg.RecursionDesired).Should(BeTrue())
			Expect(cfg.Retries).Should(Equal(uint(5)))
			Expect(cfg.ThrowDNSErrors).Should(BeFalse())
			Expect(cfg.UseCache).Should(BeTrue())
			Expect(cfg.MinCacheTTL.ToDuration()).Should(Equal(time.Duration(0)))
			Expect(cfg.RotateServers).Should(BeTrue())
			Expect(cfg.ContinueOnDNSError).Should(BeTrue())
			Expect(cfg.Timeout.ToDuration()).Should(Equal(5 * time.Second))
		})
	})

	Describe("Load", func() {
		It("should merge file values over the defaults", func() {
			f, err := os.CreateTemp("", "stubdns")
			Expect(err).Should(Succeed())
			DeferCleanup(func() { _ = os.Remove(f.Name()) })

			_, err = f.WriteString("retries: 2\ntimeout: 750ms\nminCacheTtl: 30s\n")
			Expect(err).Should(Succeed())
			Expect(f.Close()).Should(Succeed())

			cfg, err := Load(f.Name())
			Expect(err).Should(Succeed())
			Expect(cfg.Retries).Should(Equal(uint(2)))
			Expect(cfg.Timeout.ToDuration()).Should(Equal(750 * time.Millisecond))
			Expect(cfg.MinCacheTTL.ToDuration()).Should(Equal(30 * time.Second))
			// untouched fields keep their defaults
			Expect(cfg.UseTCPFallback).Should(BeTrue())
		})

		It("should fail on unknown fields", func() {
			f, err := os.CreateTemp("", "stubdns")
			Expect(err).Should(Succeed())
			DeferCleanup(func() { _ = os.Remove(f.Name()) })

			_, err = f.WriteString("nonsense: true\n")
			Expect(err).Should(Succeed())
			Expect(f.Close()).Should(Succeed())

			_, err = Load(f.Name())
			Expect(err).Should(HaveOccurred())
		})
	})

	Describe("Validate", func() {
		It("should accept a zero timeout as infinite", func() {
			cfg := New()
			cfg.Timeout = 0

			Expect(cfg.Validate()).Should(Succeed())
		})

		It("should reject negative durations", func() {
			cfg := New()
			cfg.Timeout = Duration(-time.Second)

			Expect(cfg.Validate()).Should(HaveOccurred())
		})
	})

	Describe("ParseNameServer", func() {
		It("should default to port 53", func() {
			ap, err := ParseNameServer("192.0.2.1")
			Expect(err).Should(Succeed())
			Expect(ap.String()).Should(Equal("192.0.2.1:53"))
		})

		It("should accept explicit ports", func() {
			ap, err := ParseNameServer("192.0.2.1:5353")
			Expect(err).Should(Succeed())
			Expect(ap.Port()).Should(Equal(uint16(5353)))
		})

		It("should accept IPv6 endpoints", func() {
			ap, err := ParseNameServer("2620:fe::fe")
			Expect(err).Should(Succeed())
			Expect(ap.Port()).Should(Equal(uint16(53)))

			ap, err = ParseNameServer("[::1]:5353")
			Expect(err).Should(Succeed())
			Expect(ap.Port()).Should(Equal(uint16(5353)))
		})

		It("should reject host names and garbage", func() {
			_, err := ParseNameServer("dns.example.com")
			Expect(err).Should(HaveOccurred())

			_, err = ParseNameServer("")
			Expect(err).Should(HaveOccurred())
		})
	})
})
