// Package metrics holds the prometheus collectors of the service. They live on
// a dedicated registry so tests and embedding programs never collide with the
// global default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var Registry = prometheus.NewRegistry()

var (
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ragmem_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by method, route and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	RerankTier = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragmem_rerank_tier_total",
			Help: "Rerank calls by the tier that produced the result",
		},
		[]string{"tier"},
	)
	RetrievalDegraded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragmem_retrieval_degraded_total",
			Help: "Retrieval calls that returned empty because a stage failed",
		},
		[]string{"stage"},
	)
	ChunksStored = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ragmem_chunks_stored_total",
			Help: "Chunks inserted into the vector store",
		},
	)
	Compressions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragmem_compressions_total",
			Help: "History compression cycles by result",
		},
		[]string{"result"},
	)
	ProfileUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragmem_profile_updates_total",
			Help: "Profile extraction runs by result",
		},
		[]string{"result"},
	)
	TasksDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ragmem_background_tasks_dropped_total",
			Help: "Background tasks dropped because the queue was full",
		},
	)
)

const (
	ResultOK      = "ok"
	ResultSkipped = "skipped"
	ResultError   = "error"
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequestDuration,
		RerankTier,
		RetrievalDegraded,
		ChunksStored,
		Compressions,
		ProfileUpdates,
		TasksDropped,
	)
}
