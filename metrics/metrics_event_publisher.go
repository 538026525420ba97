package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/0xERR0R/stubdns/evt"
	"github.com/0xERR0R/stubdns/log"
	"github.com/0xERR0R/stubdns/util"
)

// RegisterEventListeners registers all metric handlers by the event bus
func RegisterEventListeners() {
	registerCachingEventListeners()
	registerResolverEventListeners()
}

func registerCachingEventListeners() {
	cacheHitCount := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stubdns_cache_hit_count",
		Help: "Number of queries answered from the response cache",
	})

	cacheMissCount := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stubdns_cache_miss_count",
		Help: "Number of queries which missed the response cache",
	})

	RegisterMetric(cacheHitCount)
	RegisterMetric(cacheMissCount)

	subscribe(evt.CachingResultCacheHit, func(_ string) {
		cacheHitCount.Inc()
	})

	subscribe(evt.CachingResultCacheMiss, func(_ string) {
		cacheMissCount.Inc()
	})
}

func registerResolverEventListeners() {
	queryCount := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stubdns_query_count",
		Help: "Number of queries served, by question type and server",
	}, []string{"type", "server"})

	disabledCount := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stubdns_server_disabled_count",
		Help: "Number of times a name server was taken out of rotation",
	}, []string{"server"})

	reenabledCount := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stubdns_server_reenabled_count",
		Help: "Number of times a health probe brought a server back",
	}, []string{"server"})

	tcpFallbackCount := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stubdns_tcp_fallback_count",
		Help: "Number of truncated UDP responses which forced a TCP upgrade",
	})

	RegisterMetric(queryCount)
	RegisterMetric(disabledCount)
	RegisterMetric(reenabledCount)
	RegisterMetric(tcpFallbackCount)

	subscribe(evt.ResolverQueryServed, func(qType, server string) {
		queryCount.WithLabelValues(qType, server).Inc()
	})

	subscribe(evt.ResolverServerDisabled, func(server string) {
		disabledCount.WithLabelValues(server).Inc()
	})

	subscribe(evt.ResolverServerReenabled, func(server string) {
		reenabledCount.WithLabelValues(server).Inc()
	})

	subscribe(evt.ResolverTCPFallback, func(_ string) {
		tcpFallbackCount.Inc()
	})
}

func subscribe(topic string, fn interface{}) {
	util.LogOnError("can't subscribe to topic: ", evt.Bus().Subscribe(topic, fn))

	log.Log().Debugf("subscribed to event bus topic '%s'", topic)
}
