package client

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/0xERR0R/stubdns/config"
	"github.com/0xERR0R/stubdns/evt"
	"github.com/0xERR0R/stubdns/transport"
	"github.com/0xERR0R/stubdns/upstream"
	"github.com/0xERR0R/stubdns/util"
	"github.com/0xERR0R/stubdns/wire"
)

// maxQueryNameLen is the RFC 1035 limit on a query name in presentation
// form including the trailing dot
const maxQueryNameLen = 254

// Resolve resolves the question, blocking until a response or failure
func (c *Client) Resolve(name string, qType wire.Type, qClass wire.Class) (*Response, error) {
	return c.ResolveContext(context.Background(), name, qType, qClass)
}

// ResolveContext resolves the question; cancelling ctx aborts the query and
// any in-flight transport attempt.
func (c *Client) ResolveContext(ctx context.Context, name string,
	qType wire.Type, qClass wire.Class,
) (*Response, error) {
	question := wire.NewQuestion(name, qType, qClass)
	if len(question.Name) > maxQueryNameLen {
		return nil, fmt.Errorf("query name '%s' exceeds %d octets", name, maxQueryNameLen-1)
	}

	opts := c.Options()
	fingerprint := question.Fingerprint()

	if opts.UseCache {
		if cached, _ := c.cache.Get(fingerprint); cached != nil {
			evt.Bus().Publish(evt.CachingResultCacheHit, fingerprint)
			c.log.Debugf("cache hit for '%s'", question)

			return cached, nil
		}

		evt.Bus().Publish(evt.CachingResultCacheMiss, fingerprint)
	}

	var audit *auditTrail
	if opts.EnableAuditTrail {
		audit = newAuditTrail()
	}

	response, err := c.resolve(ctx, opts, question, audit)
	if err != nil {
		return nil, err
	}

	if opts.UseCache {
		if ttl := cacheTTL(response.Message, opts.MinCacheTTL); ttl > 0 {
			frozen := *response
			c.cache.Put(fingerprint, &frozen, ttl)
		}
	}

	return response, nil
}

// ResolveReverse resolves the PTR records of an IPv4 or IPv6 address
func (c *Client) ResolveReverse(ctx context.Context, ip netip.Addr) (*Response, error) {
	name, err := util.ArpaName(ip)
	if err != nil {
		return nil, fmt.Errorf("can't derive reverse name: %w", err)
	}

	return c.ResolveContext(ctx, name, wire.TypePTR, wire.ClassINET)
}

func (c *Client) resolve(ctx context.Context, opts config.Config,
	question wire.Question, audit *auditTrail,
) (*Response, error) {
	protocol := transport.ProtocolUDP
	if opts.UseTCPOnly {
		protocol = transport.ProtocolTCP
	}

	servers := c.pool.NextServers(opts.RotateServers)
	audit.ResolveServers(len(servers))

	return c.resolveOnServers(ctx, opts, servers, question, protocol, audit)
}

// resolveOnServers runs the attempt loop of one logical query: servers in
// pool order, each retried on transient failures, protocol upgraded to TCP
// once on truncation.
func (c *Client) resolveOnServers(ctx context.Context, opts config.Config,
	servers []*upstream.NameServer, question wire.Question,
	protocol transport.Protocol, audit *auditTrail,
) (*Response, error) {
	var (
		lastDNSError  *ResponseError
		lastResponse  *Response
		lastException error
		failures      *multierror.Error
	)

	for _, server := range servers {
		if err := ctx.Err(); err != nil {
			return nil, &CancelledError{Inner: err, AuditTrail: audit.Build()}
		}

		response, err := c.queryServer(ctx, opts, server, question, protocol, audit)

		if err != nil {
			var cancelled *CancelledError
			if errors.As(err, &cancelled) {
				// cancellation is not a server failure, health state
				// stays untouched
				return nil, err
			}

			c.pool.Disable(server)

			failures = multierror.Append(failures, fmt.Errorf("%s: %w", server, err))

			if !transport.IsTransient(err) {
				lastException = err
			}

			continue
		}

		if response.Truncated && protocol == transport.ProtocolUDP && opts.UseTCPFallback {
			audit.TruncatedRetry()
			evt.Bus().Publish(evt.ResolverTCPFallback, question.Name)
			c.log.Debugf("truncated response from %s, restarting over tcp", server)

			// the upgrade restarts the whole resolution and does not
			// count against the retry budget
			return c.resolveOnServers(ctx, opts, servers, question, transport.ProtocolTCP, audit)
		}

		if response.Rcode != wire.RcodeNoError && (opts.ThrowDNSErrors || opts.ContinueOnDNSError) {
			lastDNSError = &ResponseError{
				Rcode:    response.Rcode,
				Question: question,
				Server:   server.String(),
				Response: response,
			}
			lastResponse = response

			// a protocol-level error is not retried against the same server
			continue
		}

		return c.finalize(response, question, audit), nil
	}

	switch {
	case lastDNSError != nil && opts.ThrowDNSErrors:
		lastDNSError.AuditTrail = audit.Build()

		return nil, lastDNSError

	case lastResponse != nil:
		return c.finalize(lastResponse, question, audit), nil

	case lastException != nil:
		return nil, &ConnectionError{Inner: lastException, AuditTrail: audit.Build()}

	default:
		tried := make([]string, len(servers))
		for i, s := range servers {
			tried[i] = s.String()
		}

		return nil, &ConnectionTimeoutError{Servers: tried, Inner: failures, AuditTrail: audit.Build()}
	}
}

func (c *Client) finalize(response *Response, question wire.Question, audit *auditTrail) *Response {
	audit.End(response.Server, response.rawSize)
	response.AuditTrail = audit.Build()

	evt.Bus().Publish(evt.ResolverQueryServed, question.Type.String(), response.Server)

	return response
}

// queryServer performs up to retries+1 attempts against one server. Only
// transient transport failures are retried; wire-format and permanent
// transport errors surface immediately.
func (c *Client) queryServer(ctx context.Context, opts config.Config,
	server *upstream.NameServer, question wire.Question,
	protocol transport.Protocol, audit *auditTrail,
) (*Response, error) {
	var response *Response

	err := retry.Do(
		func() error {
			r, err := c.attempt(ctx, opts, server, question, protocol, audit)
			if err != nil {
				return err
			}

			response = r

			return nil
		},
		retry.Attempts(opts.Retries+1),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil && transport.IsTransient(err)
		}),
		retry.OnRetry(func(n uint, err error) {
			audit.Retry(n+1, server.String(), err)
			c.log.WithField("attempt", n+1).Debugf("attempt against %s failed: %v, retrying", server, err)
		}),
		retry.LastErrorOnly(true),
		retry.Delay(time.Millisecond),
		retry.DelayType(retry.FixedDelay),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &CancelledError{Inner: ctxErr, AuditTrail: audit.Build()}
		}

		return nil, err
	}

	return response, nil
}

// attempt is one transport exchange: build request, send, decode, validate
func (c *Client) attempt(ctx context.Context, opts config.Config,
	server *upstream.NameServer, question wire.Question,
	protocol transport.Protocol, audit *auditTrail,
) (*Response, error) {
	id := c.ids.Next()

	request := wire.NewQuery(id, question, opts.RecursionDesired)
	request.SetEdns0(wire.DefaultUDPPayloadSize)

	raw, err := request.Pack()
	if err != nil {
		return nil, err
	}

	var tr transport.MessageTransport
	if protocol == transport.ProtocolTCP {
		tr = c.tcp
	} else {
		tr = transport.NewUDPTransport(udpBufferSize(server))
	}

	attemptCtx := ctx

	if opts.Timeout.IsAboveZero() {
		var cancel context.CancelFunc

		attemptCtx, cancel = context.WithTimeout(ctx, opts.Timeout.ToDuration())
		defer cancel()
	}

	start := time.Now()

	rawResponse, err := tr.RawQuery(attemptCtx, server.Addr(), raw)
	if err != nil {
		return nil, err
	}

	message, err := wire.Unpack(rawResponse)
	if err != nil {
		return nil, err
	}

	if message.ID != id {
		return nil, wire.ErrIDMismatch
	}

	if len(message.Questions) > 0 && !message.Questions[0].Matches(question) {
		return nil, fmt.Errorf("mismatched response: got question '%s', sent '%s'",
			message.Questions[0], question)
	}

	opt := message.StripEdns0()
	if opt != nil {
		server.SetUDPPayloadSize(opt.UDPPayloadSize())
	}

	if !server.Enabled() {
		c.pool.Reenable(server)
	}

	server.MarkSuccessful(question)

	audit.ResponseHeader(message.Header)

	if message.Rcode != wire.RcodeNoError {
		audit.ResponseError(message.Rcode)
	}

	audit.OptPseudo(opt)
	audit.Response(message)

	c.log.WithFields(logrus.Fields{
		"answer":           util.AnswerToString(message.Answers),
		"return_code":      message.Rcode.String(),
		"server":           server.String(),
		"protocol":         protocol.String(),
		"response_time_ms": time.Since(start).Milliseconds(),
	}).Debugf("received response from %s", server)

	return &Response{
		Message: message,
		Server:  server.String(),
		rawSize: len(rawResponse),
	}, nil
}

// probe is the health check the pool runs against disabled servers: the last
// successful question, bypassing the cache, one attempt
func (c *Client) probe(ctx context.Context, server *upstream.NameServer, question wire.Question) error {
	opts := c.Options()

	protocol := transport.ProtocolUDP
	if opts.UseTCPOnly {
		protocol = transport.ProtocolTCP
	}

	_, err := c.attempt(ctx, opts, server, question, protocol, nil)

	return err
}

func udpBufferSize(server *upstream.NameServer) uint16 {
	if size := server.UDPPayloadSize(); size > wire.DefaultUDPPayloadSize {
		return size
	}

	return wire.DefaultUDPPayloadSize
}
