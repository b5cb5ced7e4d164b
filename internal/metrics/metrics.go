package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP
var (
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency distribution",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method"})
	RequestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"path", "method", "status"})
	Inflight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "http_inflight_requests",
		Help: "In-flight HTTP requests",
	})
)

// 依赖健康
var (
	DBUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "db_up",
		Help: "Database connectivity (1=up,0=down)",
	})
	RedisUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "redis_up",
		Help: "Redis connectivity (1=up,0=down)",
	})
	KafkaUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kafka_up",
		Help: "Kafka connectivity (1=up,0=down)",
	})
	EtcdUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "etcd_up",
		Help: "Etcd connectivity (1=up,0=down)",
	})
	DependencyCheckDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dependency_check_duration_seconds",
		Help:    "Latency of dependency health checks",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.2, 0.4, 0.8, 1},
	}, []string{"dep"})
)

// 审计日志
var (
	AuditWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_events_written_total",
		Help: "Audit event write attempts by log type and result",
	}, []string{"log_type", "result"})
	AuditStatsCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_statistics_cache_total",
		Help: "Audit statistics cache lookups (hit/miss)",
	}, []string{"result"})
	ConsolidationRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_consolidation_rows_total",
		Help: "Legacy rows processed by the consolidation migrator",
	}, []string{"source", "outcome"})
	FilterScreenHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_filter_screen_hits_total",
		Help: "Filter values rejected by injection screening",
	}, []string{"param"})
)

// 审计事件异步发送 (kafka)
var (
	AuditKafkaEnqueue = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_kafka_enqueue_total",
		Help: "Audit events offered to the async sender queue",
	}, []string{"result"})
	AuditKafkaQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "audit_kafka_queue_depth",
		Help: "Audit events waiting in the async sender queue",
	})
	AuditKafkaErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audit_kafka_errors_total",
		Help: "Audit events whose batch write failed",
	})
	AuditKafkaBatchFlush = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_kafka_batch_flush_total",
		Help: "Batch flushes by trigger reason",
	}, []string{"reason"})
	AuditKafkaBatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "audit_kafka_batch_size",
		Help:    "Messages per flushed batch",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200},
	})
	AuditKafkaFlushDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "audit_kafka_flush_duration_seconds",
		Help:    "Time spent writing a batch",
		Buckets: prometheus.DefBuckets,
	}, []string{"reason"})
	AuditKafkaQueueDelay = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "audit_kafka_queue_delay_seconds",
		Help:    "Max time a message waited in the queue before flush",
		Buckets: []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.5, 1},
	})
	AuditConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_kafka_consumed_total",
		Help: "Audit messages consumed by result",
	}, []string{"result"})
)

// 购物车
var (
	CartOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Cart operations by owner kind and op",
	}, []string{"owner", "op"})
	CartMergedLines = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_merged_lines_total",
		Help: "Guest cart lines merged into user carts",
	})
)
