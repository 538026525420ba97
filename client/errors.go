package client

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/0xERR0R/stubdns/wire"
)

// ResponseError is a response with RCODE != NoError surfaced as an error
type ResponseError struct {
	Rcode    wire.Rcode
	Question wire.Question
	Server   string

	// AuditTrail is the query transcript, set when auditing is enabled
	AuditTrail string

	// Response is the full decoded response carrying the error rcode
	Response *Response
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("response error %s from %s for '%s'", e.Rcode, e.Server, e.Question)
}

// ConnectionError wraps the transport or wire-format failure which ended a
// query after all servers were exhausted
type ConnectionError struct {
	Inner      error
	AuditTrail string
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error: %v", e.Inner)
}

func (e *ConnectionError) Unwrap() error { return e.Inner }

// ConnectionTimeoutError reports that no configured server was reachable at
// all. Per-server causes are aggregated in Inner.
type ConnectionTimeoutError struct {
	Servers    []string
	Inner      *multierror.Error
	AuditTrail string
}

func (e *ConnectionTimeoutError) Error() string {
	return fmt.Sprintf("no response from any name server: [%s]", strings.Join(e.Servers, ", "))
}

func (e *ConnectionTimeoutError) Unwrap() error {
	if e.Inner == nil {
		return nil
	}

	return e.Inner
}

// CancelledError propagates caller cancellation. Unwrap yields the context
// error, so errors.Is(err, context.Canceled) holds.
type CancelledError struct {
	Inner      error
	AuditTrail string
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("query cancelled: %v", e.Inner)
}

func (e *CancelledError) Unwrap() error { return e.Inner }
