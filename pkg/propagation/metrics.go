package propagation

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "propagation_cache_lookups_total",
			Help: "Path loss cache lookups by result.",
		},
		[]string{"result"},
	)

	cacheEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "propagation_cache_evictions_total",
			Help: "Path loss cache entries evicted on overflow.",
		},
	)

	evaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "propagation_model_evaluations_total",
			Help: "Path loss model evaluations by model.",
		},
		[]string{"model"},
	)

	fallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "propagation_model_fallbacks_total",
			Help: "Failed model evaluations replaced by the fallback model.",
		},
		[]string{"model"},
	)

	evaluationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "propagation_model_evaluation_seconds",
			Help:    "Path loss model evaluation duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
		[]string{"model"},
	)
)

func init() {
	prometheus.MustRegister(cacheLookupsTotal)
	prometheus.MustRegister(cacheEvictionsTotal)
	prometheus.MustRegister(evaluationsTotal)
	prometheus.MustRegister(fallbacksTotal)
	prometheus.MustRegister(evaluationSeconds)
}
