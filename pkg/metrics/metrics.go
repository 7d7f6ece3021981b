// Package metrics 提供 Prometheus 指标采集功能
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "newsrag"
)

var (
	// HTTP 请求指标
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// Embedding 指标
	EmbeddingCallTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "call_total",
			Help:      "Total number of embedding provider calls",
		},
		[]string{"backend", "status"},
	)

	EmbeddingCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "call_duration_seconds",
			Help:      "Embedding provider call duration in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"backend"},
	)

	EmbeddingBatchSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "batch_chunks_skipped_total",
			Help:      "Total number of embedding batch chunks skipped after provider failure",
		},
	)

	// 答案生成指标
	GenerationCallTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "call_total",
			Help:      "Total number of generation provider calls",
		},
		[]string{"model", "status"},
	)

	GenerationCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "call_duration_seconds",
			Help:      "Generation provider call duration in seconds",
			Buckets:   []float64{.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"model"},
	)

	GenerationFallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "fallback_total",
			Help:      "Total number of answers served from the extractive fallback path",
		},
		[]string{"reason"}, // no_context | provider_error
	)

	// 向量检索指标
	VectorSearchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vector",
			Name:      "search_total",
			Help:      "Total number of vector store searches",
		},
		[]string{"collection", "status"},
	)

	VectorSearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "vector",
			Name:      "search_duration_seconds",
			Help:      "Vector store search duration in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"collection"},
	)

	VectorSearchResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "vector",
			Name:      "search_results",
			Help:      "Number of results returned per search after threshold filtering",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20},
		},
		[]string{"collection"},
	)

	// 摄取指标
	IngestDocumentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "documents_total",
			Help:      "Total number of documents processed by ingestion",
		},
		[]string{"status"}, // fetched | rejected | indexed | failed
	)

	IngestFeedFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "feed_fetch_total",
			Help:      "Total number of feed fetch attempts",
		},
		[]string{"status"},
	)

	// 会话指标
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "active_sessions",
			Help:      "Current number of chat sessions created and not yet expired",
		},
	)
)
