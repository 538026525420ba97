package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/0xERR0R/stubdns/wire"
)

// auditTrail collects a dig-style transcript of one logical query. One trail
// spans all attempts of the query, including a TCP upgrade. It is owned by a
// single query and needs no locking. All methods are nil-safe so the engine
// can pass a nil trail when auditing is disabled.
type auditTrail struct {
	b     strings.Builder
	start time.Time
}

func newAuditTrail() *auditTrail {
	return &auditTrail{start: time.Now()}
}

func (a *auditTrail) writef(format string, args ...interface{}) {
	if a == nil {
		return
	}

	fmt.Fprintf(&a.b, format, args...)
}

// ResolveServers notes how many servers the pool handed out
func (a *auditTrail) ResolveServers(count int) {
	a.writef("; (%d server found)\n", count)
}

// ResponseHeader dumps the decoded header the way dig renders it
func (a *auditTrail) ResponseHeader(h wire.Header) {
	a.writef(";; Got answer:\n")
	a.writef(";; ->>HEADER<<- %s\n", h.String())
	a.writef(";; flags: %s; QUERY: %d, ANSWER: %d, AUTHORITY: %d, ADDITIONAL: %d\n",
		h.FlagString(), h.QDCount, h.ANCount, h.NSCount, h.ARCount)
}

// ResponseError notes a response level error rcode
func (a *auditTrail) ResponseError(rcode wire.Rcode) {
	a.writef(";; ERROR: %s\n", rcode)
}

// OptPseudo dumps the EDNS OPT pseudo record of the response
func (a *auditTrail) OptPseudo(opt *wire.OPT) {
	if a == nil || opt == nil {
		return
	}

	a.writef(";; OPT PSEUDOSECTION:\n; %s\n", opt)
}

// Retry notes a failed attempt which will be retried
func (a *auditTrail) Retry(attempt uint, server string, err error) {
	a.writef(";; Attempt %d against %s failed: %v, retrying.\n", attempt, server, err)
}

// TruncatedRetry notes the switch to TCP after a truncated UDP response
func (a *auditTrail) TruncatedRetry() {
	a.writef(";; Truncated, retrying in TCP mode.\n")
}

// Response dumps the four record sections
func (a *auditTrail) Response(m *wire.Message) {
	if a == nil {
		return
	}

	a.section("QUESTION", nil, m.Questions)
	a.section("ANSWER", m.Answers, nil)
	a.section("AUTHORITY", m.Authorities, nil)
	a.section("ADDITIONAL", m.Additionals, nil)
}

func (a *auditTrail) section(name string, records []wire.Record, questions []wire.Question) {
	if len(records) == 0 && len(questions) == 0 {
		return
	}

	a.writef("\n;; %s SECTION:\n", name)

	for _, q := range questions {
		a.writef(";%s\n", q)
	}

	for _, rec := range records {
		a.writef("%s\n", rec)
	}
}

// End closes the transcript with timing, server and size information
func (a *auditTrail) End(server string, messageSize int) {
	if a == nil {
		return
	}

	a.writef("\n;; Query time: %d msec\n", time.Since(a.start).Milliseconds())
	a.writef(";; SERVER: %s\n", server)
	a.writef(";; WHEN: %s\n", time.Now().UTC().Format(time.ANSIC))
	a.writef(";; MSG SIZE  rcvd: %d\n", messageSize)
}

// Build renders the transcript, empty for a nil trail
func (a *auditTrail) Build() string {
	if a == nil {
		return ""
	}

	return a.b.String()
}
