package wire

import (
	"net/netip"

	"github.com/miekg/dns"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Message codec", func() {
	Describe("Request encoding", func() {
		It("should emit a 12 byte header, one question and the OPT record", func() {
			m := NewQuery(0x1234, NewQuestion("example.com", TypeA, ClassINET), true)
			m.SetEdns0(DefaultUDPPayloadSize)

			raw, err := m.Pack()
			Expect(err).Should(Succeed())

			// header
			Expect(raw[0:2]).Should(Equal([]byte{0x12, 0x34}))
			// RD bit set, everything else clear
			Expect(raw[2]).Should(Equal(byte(0x01)))
			Expect(raw[3]).Should(Equal(byte(0x00)))
			// qdcount=1, ancount=0, nscount=0, arcount=1
			Expect(raw[4:12]).Should(Equal([]byte{0, 1, 0, 0, 0, 0, 0, 1}))

			// question
			Expect(raw[12:25]).Should(Equal([]byte("\x07example\x03com\x00")))
			Expect(raw[25:29]).Should(Equal([]byte{0, 1, 0, 1}))

			// OPT: root name, type 41, class = payload size, ttl 0, rdlength 0
			Expect(raw[29:]).Should(Equal([]byte{0, 0, 41, 0x10, 0, 0, 0, 0, 0, 0, 0}))
		})

		It("should decode with miekg/dns", func() {
			m := NewQuery(42, NewQuestion("example.com", TypeAAAA, ClassINET), true)
			m.SetEdns0(DefaultUDPPayloadSize)

			raw, err := m.Pack()
			Expect(err).Should(Succeed())

			parsed := new(dns.Msg)
			Expect(parsed.Unpack(raw)).Should(Succeed())
			Expect(parsed.Id).Should(Equal(uint16(42)))
			Expect(parsed.RecursionDesired).Should(BeTrue())
			Expect(parsed.Question).Should(HaveLen(1))
			Expect(parsed.Question[0].Name).Should(Equal("example.com."))
			Expect(parsed.Question[0].Qtype).Should(Equal(dns.TypeAAAA))
			Expect(parsed.IsEdns0()).ShouldNot(BeNil())
			Expect(parsed.IsEdns0().UDPSize()).Should(Equal(uint16(4096)))
		})
	})

	Describe("Response decoding", func() {
		packWithMiekg := func(m *dns.Msg) []byte {
			raw, err := m.Pack()
			Expect(err).Should(Succeed())

			return raw
		}

		It("should decode a response packed by miekg/dns with compression", func() {
			reply := new(dns.Msg)
			reply.SetQuestion("example.com.", dns.TypeA)
			reply.Response = true
			reply.Id = 7
			reply.Compress = true

			rr, err := dns.NewRR("example.com. 60 IN A 192.0.2.1")
			Expect(err).Should(Succeed())
			reply.Answer = append(reply.Answer, rr)

			rr, err = dns.NewRR("example.com. 120 IN MX 10 mail.example.com.")
			Expect(err).Should(Succeed())
			reply.Answer = append(reply.Answer, rr)

			m, err := Unpack(packWithMiekg(reply))
			Expect(err).Should(Succeed())
			Expect(m.ID).Should(Equal(uint16(7)))
			Expect(m.Response).Should(BeTrue())
			Expect(m.Questions).Should(HaveLen(1))
			Expect(m.Answers).Should(HaveLen(2))

			a, ok := m.Answers[0].(*A)
			Expect(ok).Should(BeTrue())
			Expect(a.Addr).Should(Equal(netip.MustParseAddr("192.0.2.1")))
			Expect(a.TTL).Should(Equal(uint32(60)))

			mx, ok := m.Answers[1].(*MX)
			Expect(ok).Should(BeTrue())
			Expect(mx.Preference).Should(Equal(uint16(10)))
			Expect(mx.MX).Should(Equal("mail.example.com."))
		})

		It("should decode SOA, TXT, SRV, AAAA, NS, CNAME and PTR records", func() {
			reply := new(dns.Msg)
			reply.SetQuestion("example.com.", dns.TypeANY)
			reply.Compress = true

			for _, rrStr := range []string{
				"example.com. 3600 IN SOA ns1.example.com. hostmaster.example.com. 1 7200 3600 1209600 300",
				"example.com. 60 IN TXT \"hello\" \"world\"",
				"_sip._tcp.example.com. 60 IN SRV 10 20 5060 sip.example.com.",
				"example.com. 60 IN AAAA 2001:db8::1",
				"example.com. 60 IN NS ns1.example.com.",
				"www.example.com. 60 IN CNAME example.com.",
				"1.2.0.192.in-addr.arpa. 60 IN PTR example.com.",
			} {
				rr, err := dns.NewRR(rrStr)
				Expect(err).Should(Succeed())
				reply.Answer = append(reply.Answer, rr)
			}

			m, err := Unpack(packWithMiekg(reply))
			Expect(err).Should(Succeed())
			Expect(m.Answers).Should(HaveLen(7))

			soa := m.Answers[0].(*SOA)
			Expect(soa.NS).Should(Equal("ns1.example.com."))
			Expect(soa.MinTTL).Should(Equal(uint32(300)))

			txt := m.Answers[1].(*TXT)
			Expect(txt.Txt).Should(Equal([]string{"hello", "world"}))

			srv := m.Answers[2].(*SRV)
			Expect(srv.Port).Should(Equal(uint16(5060)))
			Expect(srv.Target).Should(Equal("sip.example.com."))

			aaaa := m.Answers[3].(*AAAA)
			Expect(aaaa.Addr).Should(Equal(netip.MustParseAddr("2001:db8::1")))

			Expect(m.Answers[4].(*NS).NS).Should(Equal("ns1.example.com."))
			Expect(m.Answers[5].(*CNAME).Target).Should(Equal("example.com."))
			Expect(m.Answers[6].(*PTR).Ptr).Should(Equal("example.com."))
		})

		It("should preserve raw rdata of unknown types", func() {
			reply := new(dns.Msg)
			reply.SetQuestion("example.com.", dns.TypeNAPTR)

			rr, err := dns.NewRR(`example.com. 60 IN NAPTR 100 50 "s" "SIP+D2U" "" _sip._udp.example.com.`)
			Expect(err).Should(Succeed())
			reply.Answer = append(reply.Answer, rr)

			m, err := Unpack(packWithMiekg(reply))
			Expect(err).Should(Succeed())

			unknown, ok := m.Answers[0].(*Unknown)
			Expect(ok).Should(BeTrue())
			Expect(unknown.Type).Should(Equal(Type(dns.TypeNAPTR)))
			Expect(unknown.Data).ShouldNot(BeEmpty())
		})

		It("should surface the truncation bit without error", func() {
			reply := new(dns.Msg)
			reply.SetQuestion("example.com.", dns.TypeA)
			reply.Truncated = true

			m, err := Unpack(packWithMiekg(reply))
			Expect(err).Should(Succeed())
			Expect(m.Truncated).Should(BeTrue())
		})

		It("should reject short messages", func() {
			_, err := Unpack([]byte{0, 1, 2})
			Expect(err).Should(BeAssignableToTypeOf(&ParseError{}))
		})

		It("should reject truncated rdata", func() {
			reply := new(dns.Msg)
			reply.SetQuestion("example.com.", dns.TypeA)

			rr, err := dns.NewRR("example.com. 60 IN A 192.0.2.1")
			Expect(err).Should(Succeed())
			reply.Answer = append(reply.Answer, rr)

			raw := packWithMiekg(reply)

			_, err = Unpack(raw[:len(raw)-2])
			Expect(err).Should(BeAssignableToTypeOf(&ParseError{}))
		})
	})

	Describe("Round trip", func() {
		It("should survive pack and unpack of all record types", func() {
			m := &Message{
				Header: Header{ID: 99, Response: true, RecursionAvailable: true},
				Questions: []Question{
					NewQuestion("example.com", TypeA, ClassINET),
				},
				Answers: []Record{
					&A{ResourceHeader{"example.com.", TypeA, ClassINET, 60}, netip.MustParseAddr("192.0.2.1")},
					&TXT{ResourceHeader{"example.com.", TypeTXT, ClassINET, 60}, []string{"x"}},
				},
				Authorities: []Record{
					&SOA{
						ResourceHeader: ResourceHeader{"example.com.", TypeSOA, ClassINET, 300},
						NS:             "ns1.example.com.", Mbox: "hostmaster.example.com.",
						Serial: 1, Refresh: 2, Retry: 3, Expire: 4, MinTTL: 5,
					},
				},
			}

			raw, err := m.Pack()
			Expect(err).Should(Succeed())

			decoded, err := Unpack(raw)
			Expect(err).Should(Succeed())
			Expect(decoded.ID).Should(Equal(uint16(99)))
			Expect(decoded.Answers).Should(HaveLen(2))
			Expect(decoded.Authorities).Should(HaveLen(1))
			Expect(decoded.Answers[0]).Should(Equal(m.Answers[0]))
			Expect(decoded.Authorities[0]).Should(Equal(m.Authorities[0]))
		})
	})

	Describe("EDNS handling", func() {
		It("should strip the OPT record and expose its payload size", func() {
			m := NewQuery(1, NewQuestion("example.com", TypeA, ClassINET), true)
			m.SetEdns0(1232)

			opt := m.StripEdns0()
			Expect(opt).ShouldNot(BeNil())
			Expect(opt.UDPPayloadSize()).Should(Equal(uint16(1232)))
			Expect(m.IsEdns0()).Should(BeNil())
			Expect(m.Additionals).Should(BeEmpty())
		})
	})
})
