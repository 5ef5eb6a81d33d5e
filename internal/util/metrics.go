package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OutboundPushesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outbound_stock_pushes_total",
		Help: "Total number of stock quantities pushed to MercadoLibre",
	})

	OutboundSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbound_stock_skipped_total",
		Help: "Total number of stock events skipped before pushing",
	}, []string{"reason"})

	WebhookNotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_notifications_total",
		Help: "Total number of webhook notifications by outcome",
	}, []string{"status"})

	StockDecrementsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "local_stock_decrements_total",
		Help: "Total number of local stock decrements applied from marketplace orders",
	})

	StockEventsConsumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_events_consumed_total",
		Help: "Total number of catalog stock events consumed from Kafka",
	}, []string{"type"})

	RemoteCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "meli_remote_call_duration_seconds",
		Help:    "Latency of MercadoLibre API calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	RemoteCallErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meli_remote_call_errors_total",
		Help: "Total number of failed MercadoLibre API calls",
	}, []string{"operation"})

	ConnectAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oauth_connect_attempts_total",
		Help: "Total number of OAuth connect attempts by outcome",
	}, []string{"outcome"})

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
