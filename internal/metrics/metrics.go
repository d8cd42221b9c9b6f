// Package metrics records Prometheus metrics for outbound decorated calls. The collector plugs into a
// client as a transport middleware.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/brizzai/httpdeco/pkg/reqconfig"
	"github.com/brizzai/httpdeco/pkg/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the request metrics. It is safe for concurrent use.
type Collector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec
	failuresTotal    *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewCollector creates a collector on its own registry.
func NewCollector() *Collector {
	return NewCollectorWithRegistry(prometheus.NewRegistry())
}

// NewCollectorWithRegistry creates a collector registered on registry.
func NewCollectorWithRegistry(registry *prometheus.Registry) *Collector {
	return &Collector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "httpdeco_requests_total",
				Help: "Total number of decorated HTTP requests dispatched",
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "httpdeco_request_duration_seconds",
				Help:    "Duration of decorated HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestsInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "httpdeco_requests_in_flight",
				Help: "Number of decorated HTTP requests currently in flight",
			},
			[]string{"method", "endpoint"},
		),
		failuresTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "httpdeco_request_failures_total",
				Help: "Total number of failed decorated HTTP requests by failure kind",
			},
			[]string{"method", "endpoint", "kind"},
		),
		gatherer: registry,
	}
}

// Middleware returns a transport middleware that records every request passing through it. The
// endpoint label is the request URL as declared, before path templates are filled.
func (c *Collector) Middleware() transport.Middleware {
	return func(next transport.Transport) transport.Transport {
		return transport.Func(func(ctx context.Context, cfg reqconfig.RequestConfig) (*transport.Response, error) {
			method, endpoint := cfg.Method(), cfg.URL()
			inFlight := c.requestsInFlight.WithLabelValues(method, endpoint)
			inFlight.Inc()
			defer inFlight.Dec()

			start := time.Now()
			resp, err := next.Send(ctx, cfg)
			status := statusLabel(resp, err)
			c.requestsTotal.WithLabelValues(method, status, endpoint).Inc()
			c.requestDuration.WithLabelValues(method, status, endpoint).Observe(time.Since(start).Seconds())
			if err != nil {
				c.failuresTotal.WithLabelValues(method, endpoint, failureKind(ctx, err)).Inc()
			}
			return resp, err
		})
	}
}

// Handler serves the collector's registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func statusLabel(resp *transport.Response, err error) string {
	if resp != nil {
		return strconv.Itoa(resp.Status)
	}
	if te, ok := transport.AsError(err); ok && te.Response != nil {
		return strconv.Itoa(te.Response.Status)
	}
	return "error"
}

func failureKind(ctx context.Context, err error) string {
	if te, ok := transport.AsError(err); ok && te.Response != nil {
		return "status"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if ctx.Err() != nil {
		return "canceled"
	}
	return "network"
}
