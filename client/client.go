// Package client implements the query engine: it resolves logical DNS
// questions against a pool of recursive name servers, with UDP to TCP
// fallback on truncation, response caching, per-server retries and
// background health probing of failed servers.
package client

import (
	"fmt"
	"sync"

	"github.com/hako/durafmt"
	"github.com/sirupsen/logrus"

	"github.com/0xERR0R/stubdns/cache"
	"github.com/0xERR0R/stubdns/config"
	"github.com/0xERR0R/stubdns/log"
	"github.com/0xERR0R/stubdns/transport"
	"github.com/0xERR0R/stubdns/upstream"
	"github.com/0xERR0R/stubdns/wire"
)

// Response is the outcome of one resolved query
type Response struct {
	*wire.Message

	// Server is the endpoint of the name server which answered
	Server string

	// AuditTrail is the query transcript, set when auditing was enabled
	// for the query which produced this response
	AuditTrail string

	rawSize int
}

// Client is the stub resolver handle. It is safe for concurrent use;
// independent queries run in parallel without a shared lock.
type Client struct {
	optMu sync.RWMutex
	opts  config.Config

	pool  *upstream.Pool
	cache *cache.ExpiringLRUCache[Response]
	tcp   transport.MessageTransport
	ids   *idGenerator
	log   *logrus.Entry
}

// New creates a client querying the given name server endpoints in order.
// Endpoints are bare addresses or address:port, the port defaults to 53.
func New(cfg config.Config, endpoints ...string) (*Client, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("at least one name server endpoint is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	servers := make([]*upstream.NameServer, 0, len(endpoints))

	for _, endpoint := range endpoints {
		addr, err := config.ParseNameServer(endpoint)
		if err != nil {
			return nil, err
		}

		servers = append(servers, upstream.NewNameServer(addr))
	}

	c := &Client{
		opts:  cfg,
		pool:  upstream.NewPool(servers),
		cache: cache.NewCache[Response](),
		tcp:   transport.NewTCPTransport(),
		ids:   newIDGenerator(),
		log:   log.PrefixedLog("client"),
	}

	c.cache.SetEnabled(cfg.UseCache)
	c.pool.StartProbing(c.probe)

	return c, nil
}

// Options returns a copy of the current options
func (c *Client) Options() config.Config {
	c.optMu.RLock()
	defer c.optMu.RUnlock()

	return c.opts
}

// SetOptions replaces the options. In-flight queries keep the snapshot they
// started with.
func (c *Client) SetOptions(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.optMu.Lock()
	c.opts = cfg
	c.optMu.Unlock()

	c.cache.SetEnabled(cfg.UseCache)

	return nil
}

// Servers returns the configured name servers in current pool order
func (c *Client) Servers() []*upstream.NameServer {
	return c.pool.Servers()
}

// Close releases pooled transport connections
func (c *Client) Close() error {
	return c.tcp.Close()
}

// Configuration returns a human-readable dump of the active options
func (c *Client) Configuration() []string {
	opts := c.Options()

	timeout := "infinite"
	if opts.Timeout.IsAboveZero() {
		timeout = durafmt.Parse(opts.Timeout.ToDuration()).String()
	}

	result := []string{
		fmt.Sprintf("tcpFallback = %t", opts.UseTCPFallback),
		fmt.Sprintf("tcpOnly = %t", opts.UseTCPOnly),
		fmt.Sprintf("auditTrail = %t", opts.EnableAuditTrail),
		fmt.Sprintf("recursionDesired = %t", opts.RecursionDesired),
		fmt.Sprintf("retries = %d", opts.Retries),
		fmt.Sprintf("throwDnsErrors = %t", opts.ThrowDNSErrors),
		fmt.Sprintf("cache = %t", opts.UseCache),
		fmt.Sprintf("minCacheTtl = %s", opts.MinCacheTTL),
		fmt.Sprintf("rotateServers = %t", opts.RotateServers),
		fmt.Sprintf("continueOnDnsError = %t", opts.ContinueOnDNSError),
		fmt.Sprintf("timeout = %s", timeout),
	}

	for _, s := range c.pool.Servers() {
		result = append(result, fmt.Sprintf("server = %s (enabled = %t)", s, s.Enabled()))
	}

	return result
}
