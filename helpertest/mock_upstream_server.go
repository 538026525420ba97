package helpertest

import (
	"encoding/binary"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/miekg/dns"

	"github.com/0xERR0R/stubdns/util"
)

// MockUDPUpstreamServer is a test double for a recursive name server. It
// answers with miekg/dns packed messages, which doubles as an interop check
// for the wire codec.
type MockUDPUpstreamServer struct {
	callCount atomic.Int32
	ln        *net.UDPConn
	answerFn  func(request *dns.Msg) (response *dns.Msg)
	delay     time.Duration
}

func NewMockUDPUpstreamServer() *MockUDPUpstreamServer {
	return &MockUDPUpstreamServer{}
}

// WithAnswerRR configures answers in zone file syntax, e.g.
// "example.com. 123 IN A 192.0.2.1"
func (t *MockUDPUpstreamServer) WithAnswerRR(answers ...string) *MockUDPUpstreamServer {
	t.answerFn = func(request *dns.Msg) (response *dns.Msg) {
		msg := new(dns.Msg)

		for _, a := range answers {
			rr, err := dns.NewRR(a)
			util.FatalOnError("can't create RR", err)

			msg.Answer = append(msg.Answer, rr)
		}

		return msg
	}

	return t
}

// WithAnswerMsg answers every request with the given message
func (t *MockUDPUpstreamServer) WithAnswerMsg(answer *dns.Msg) *MockUDPUpstreamServer {
	t.answerFn = func(request *dns.Msg) (response *dns.Msg) {
		return answer
	}

	return t
}

// WithAnswerError answers every request with the given rcode
func (t *MockUDPUpstreamServer) WithAnswerError(errorCode int) *MockUDPUpstreamServer {
	t.answerFn = func(request *dns.Msg) (response *dns.Msg) {
		msg := new(dns.Msg)
		msg.Rcode = errorCode

		return msg
	}

	return t
}

// WithAnswerFn computes the response per request. A nil response drops the
// request (the client runs into its deadline).
func (t *MockUDPUpstreamServer) WithAnswerFn(fn func(request *dns.Msg) (response *dns.Msg)) *MockUDPUpstreamServer {
	t.answerFn = fn

	return t
}

// WithTruncatedAnswer sets the TC bit and empties the sections, simulating a
// response which did not fit the datagram
func (t *MockUDPUpstreamServer) WithTruncatedAnswer() *MockUDPUpstreamServer {
	t.answerFn = func(request *dns.Msg) (response *dns.Msg) {
		msg := new(dns.Msg)
		msg.Truncated = true

		return msg
	}

	return t
}

// WithDelay delays every response, e.g. beyond the client timeout
func (t *MockUDPUpstreamServer) WithDelay(delay time.Duration) *MockUDPUpstreamServer {
	t.delay = delay

	return t
}

// GetCallCount returns the number of requests received so far
func (t *MockUDPUpstreamServer) GetCallCount() int {
	return int(t.callCount.Load())
}

func (t *MockUDPUpstreamServer) Close() {
	if t.ln != nil {
		_ = t.ln.Close()
	}
}

func createUDPConnection() *net.UDPConn {
	a, err := net.ResolveUDPAddr("udp4", "127.0.0.1:0")
	util.FatalOnError("can't resolve address: ", err)

	ln, err := net.ListenUDP("udp4", a)
	util.FatalOnError("can't create connection: ", err)

	return ln
}

// Start brings the server up and returns its endpoint ("127.0.0.1:<port>")
func (t *MockUDPUpstreamServer) Start() string {
	ln := createUDPConnection()
	t.ln = ln

	go t.serve(ln)

	return ln.LocalAddr().String()
}

// StartOn binds the server to a fixed endpoint, e.g. the port of a TCP mock
// to simulate one name server speaking both transports
func (t *MockUDPUpstreamServer) StartOn(addr string) string {
	a, err := net.ResolveUDPAddr("udp4", addr)
	util.FatalOnError("can't resolve address: ", err)

	ln, err := net.ListenUDP("udp4", a)
	util.FatalOnError("can't create connection: ", err)

	t.ln = ln

	go t.serve(ln)

	return ln.LocalAddr().String()
}

func (t *MockUDPUpstreamServer) serve(ln *net.UDPConn) {
	const bufferSize = 4096

	buf := make([]byte, bufferSize)

	for {
		n, addr, err := ln.ReadFromUDP(buf)
		if err != nil {
			// connection closed
			return
		}

		t.callCount.Add(1)

		raw := t.respond(buf[:n])
		if raw == nil {
			continue
		}

		if t.delay > 0 {
			time.Sleep(t.delay)
		}

		_, _ = ln.WriteToUDP(raw, addr)
	}
}

func (t *MockUDPUpstreamServer) respond(rawRequest []byte) []byte {
	request := new(dns.Msg)
	if err := request.Unpack(rawRequest); err != nil {
		return nil
	}

	if t.answerFn == nil {
		return nil
	}

	response := t.answerFn(request)
	if response == nil {
		return nil
	}

	response.SetRcode(request, response.Rcode)

	raw, err := response.Pack()
	util.FatalOnError("can't pack response: ", err)

	return raw
}

// MockTCPUpstreamServer is the stream variant of the mock server, framing
// messages with the 16 bit length prefix
type MockTCPUpstreamServer struct {
	callCount atomic.Int32
	ln        net.Listener
	answerFn  func(request *dns.Msg) (response *dns.Msg)
}

func NewMockTCPUpstreamServer() *MockTCPUpstreamServer {
	return &MockTCPUpstreamServer{}
}

func (t *MockTCPUpstreamServer) WithAnswerRR(answers ...string) *MockTCPUpstreamServer {
	t.answerFn = func(request *dns.Msg) (response *dns.Msg) {
		msg := new(dns.Msg)

		for _, a := range answers {
			rr, err := dns.NewRR(a)
			util.FatalOnError("can't create RR", err)

			msg.Answer = append(msg.Answer, rr)
		}

		return msg
	}

	return t
}

func (t *MockTCPUpstreamServer) WithAnswerMsg(answer *dns.Msg) *MockTCPUpstreamServer {
	t.answerFn = func(request *dns.Msg) (response *dns.Msg) {
		return answer
	}

	return t
}

func (t *MockTCPUpstreamServer) GetCallCount() int {
	return int(t.callCount.Load())
}

func (t *MockTCPUpstreamServer) Close() {
	if t.ln != nil {
		_ = t.ln.Close()
	}
}

// Start brings the server up and returns its endpoint ("127.0.0.1:<port>")
func (t *MockTCPUpstreamServer) Start() string {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	util.FatalOnError("can't create listener: ", err)

	t.ln = ln

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}

			go t.serveConn(conn)
		}
	}()

	return ln.Addr().String()
}

func (t *MockTCPUpstreamServer) serveConn(conn net.Conn) {
	defer conn.Close()

	for {
		var lengthPrefix [2]byte

		if _, err := io.ReadFull(conn, lengthPrefix[:]); err != nil {
			return
		}

		rawRequest := make([]byte, binary.BigEndian.Uint16(lengthPrefix[:]))
		if _, err := io.ReadFull(conn, rawRequest); err != nil {
			return
		}

		t.callCount.Add(1)

		request := new(dns.Msg)
		if err := request.Unpack(rawRequest); err != nil {
			return
		}

		if t.answerFn == nil {
			continue
		}

		response := t.answerFn(request)
		if response == nil {
			continue
		}

		response.SetRcode(request, response.Rcode)

		raw, err := response.Pack()
		util.FatalOnError("can't pack response: ", err)

		frame := make([]byte, 2+len(raw))
		binary.BigEndian.PutUint16(frame, uint16(len(raw)))
		copy(frame[2:], raw)

		if _, err := conn.Write(frame); err != nil {
			return
		}
	}
}
