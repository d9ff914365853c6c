// Package metrics holds the prometheus collectors exposed on /metrics.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mailmanifest"

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	imageOperations     *prometheus.CounterVec
	mailSent            *prometheus.CounterVec
	guardRejections     *prometheus.CounterVec
}

func New() (*Metrics, error) {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)
	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Time taken for HTTP requests",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	m.imageOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_operations_total",
			Help:      "Catalog operations by kind and outcome",
		},
		[]string{"operation", "status"}, // operation: create, update, delete; status: success, error
	)
	m.mailSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mail_sent_total",
			Help:      "Emails handed to the mail transport",
		},
		[]string{"kind", "status"}, // kind: notification, confirmation
	)
	m.guardRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_rejections_total",
			Help:      "Requests rejected by the access guard",
		},
		[]string{"reason"},
	)

	toRegister := []prometheus.Collector{
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.imageOperations,
		m.mailSent,
		m.guardRejections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}

	return m, nil
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, route string, status int, seconds float64) {
	m.httpRequestsTotal.WithLabelValues(method, route, fmt.Sprint(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

func (m *Metrics) RecordImageOperation(operation string, err error) {
	m.imageOperations.WithLabelValues(operation, status(err)).Inc()
}

func (m *Metrics) RecordMail(kind string, err error) {
	m.mailSent.WithLabelValues(kind, status(err)).Inc()
}

func (m *Metrics) RecordGuardRejection(reason string) {
	m.guardRejections.WithLabelValues(reason).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
