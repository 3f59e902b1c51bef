package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DealsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deals_created_total",
		Help: "Total number of deals started by suppliers",
	})

	DealsApprovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deals_approved_total",
		Help: "Total number of deals approved by admins",
	})

	DealsRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deals_rejected_total",
		Help: "Total number of deals rejected by admins",
	})

	DealsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deals_completed_total",
		Help: "Total number of deals that reached their MOQ",
	})

	DealsExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deals_expired_total",
		Help: "Total number of deals observed past their end time",
	})

	DealJoinsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deal_joins_total",
		Help: "Total number of successful deal joins",
	})

	DealJoinsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deal_joins_failed_total",
		Help: "Total number of failed deal joins",
	}, []string{"reason"})

	DealJoinLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "deal_join_latency_seconds",
		Help:    "Latency of the join transaction",
		Buckets: prometheus.DefBuckets,
	})

	OrdersAdvancedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_advanced_total",
		Help: "Total number of order status advancements",
	}, []string{"status"})

	PaymentAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_attempts_total",
		Help: "Total number of payment attempts",
	})

	PaymentSuccessTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_success_total",
		Help: "Total number of successful payments",
	})

	PaymentFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_failed_total",
		Help: "Total number of failed payments",
	})

	PaymentProcessingLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_processing_latency_seconds",
		Help:    "Latency of payment processing",
		Buckets: prometheus.DefBuckets,
	})

	ProgressCacheSyncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "progress_cache_sync_total",
		Help: "Total number of progress cache updates applied by the worker",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
