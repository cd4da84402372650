package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheHits tracks requests answered from the store without a network
	// call, by policy.
	cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restash_cache_hits_total",
			Help: "Total number of requests served from the cache without a network call",
		},
		[]string{"policy"},
	)

	// cacheMisses tracks requests that found no usable record.
	cacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "restash_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	// revalidated tracks 304 Not Modified merges.
	revalidated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "restash_revalidated_total",
			Help: "Total number of 304 Not Modified responses merged with stored records",
		},
	)

	// staleServed tracks stale records substituted for failed network
	// calls.
	staleServed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "restash_stale_served_total",
			Help: "Total number of stale records substituted for failed network calls",
		},
	)

	// cacheErrors tracks store and cipher operation errors.
	cacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restash_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "encrypt", "decrypt"
	)
)
