// Package config holds the client configuration with typed durations,
// defaults and YAML support.
package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v2"

	"github.com/0xERR0R/stubdns/log"
)

// Config are the client options. All fields may be changed after
// construction via Client.SetOptions.
type Config struct {
	// UseTCPFallback re-runs a query over TCP when the UDP response is truncated
	UseTCPFallback bool `yaml:"tcpFallback" default:"true"`

	// UseTCPOnly skips UDP entirely
	UseTCPOnly bool `yaml:"tcpOnly" default:"false"`

	// EnableAuditTrail attaches a human-readable transcript to responses and errors
	EnableAuditTrail bool `yaml:"auditTrail" default:"false"`

	// RecursionDesired sets the RD bit on outgoing queries
	RecursionDesired bool `yaml:"recursionDesired" default:"true"`

	// Retries is the number of additional attempts per server beyond the first
	Retries uint `yaml:"retries" default:"5"`

	// ThrowDNSErrors surfaces responses with RCODE != NoError as errors
	ThrowDNSErrors bool `yaml:"throwDnsErrors" default:"false"`

	// UseCache enables the in-process response cache
	UseCache bool `yaml:"cache" default:"true"`

	// MinCacheTTL raises any positive cache TTL to at least this value
	MinCacheTTL Duration `yaml:"minCacheTtl" default:"0s"`

	// RotateServers rotates the server order by one position per query
	RotateServers bool `yaml:"rotateServers" default:"true"`

	// ContinueOnDNSError moves to the next server on RCODE != NoError
	ContinueOnDNSError bool `yaml:"continueOnDnsError" default:"true"`

	// Timeout bounds each attempt. Zero means no deadline.
	Timeout Duration `yaml:"timeout" default:"5s"`

	Log log.Config `yaml:"log"`
}

// New returns a Config with all defaults applied
func New() Config {
	var cfg Config

	if err := defaults.Set(&cfg); err != nil {
		panic(fmt.Errorf("can't apply config defaults: %w", err))
	}

	return cfg
}

// Load reads a YAML config file and applies defaults for absent fields
func Load(path string) (Config, error) {
	cfg := New()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("can't read config file: %w", err)
	}

	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("can't parse config file: %w", err)
	}

	return cfg, cfg.Validate()
}

// Validate checks option ranges: the timeout must be zero (no deadline) or
// within (0, MaxInt32] milliseconds
func (c *Config) Validate() error {
	ms := time.Duration(c.Timeout).Milliseconds()
	if ms < 0 || ms > math.MaxInt32 {
		return fmt.Errorf("timeout %s out of range", c.Timeout)
	}

	if time.Duration(c.MinCacheTTL) < 0 {
		return fmt.Errorf("minCacheTtl %s out of range", c.MinCacheTTL)
	}

	return nil
}
