package evt

import (
	"github.com/asaskevich/EventBus"
)

const (
	// CachingResultCacheHit fires if a query result was found in the cache. Parameter: question fingerprint
	CachingResultCacheHit = "caching:cacheHit"

	// CachingResultCacheMiss fires if a query result was not found in the cache. Parameter: question fingerprint
	CachingResultCacheMiss = "caching:cacheMiss"

	// ResolverQueryServed fires after a query completed successfully. Parameters: question type string, server endpoint
	ResolverQueryServed = "resolver:queryServed"

	// ResolverServerDisabled fires if a name server was taken out of rotation. Parameter: server endpoint
	ResolverServerDisabled = "resolver:serverDisabled"

	// ResolverServerReenabled fires if a health probe brought a server back. Parameter: server endpoint
	ResolverServerReenabled = "resolver:serverReenabled"

	// ResolverTCPFallback fires if a truncated UDP response forced a TCP upgrade. Parameter: question name
	ResolverTCPFallback = "resolver:tcpFallback"
)

// nolint
var evtBus = EventBus.New()

func Bus() EventBus.Bus {
	return evtBus
}
