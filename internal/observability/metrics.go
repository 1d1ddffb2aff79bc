// Package observability carries the Prometheus metrics and OpenTelemetry
// tracing setup for the sky chart service.
package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Chart outcomes recorded by ObserveChart.
const (
	OutcomeOK          = "ok"
	OutcomeInvalid     = "invalid"
	OutcomeUnknownBody = "unknown_body"
	OutcomeError       = "error"
)

// Collector bundles Prometheus metrics for the HTTP surface and chart
// computation.
type Collector struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	Charts        *prometheus.CounterVec
	ChartDuration prometheus.Histogram
	ChartBodies   prometheus.Histogram
	UnknownBodies prometheus.Counter
}

// NewCollector registers metrics against reg, defaulting to the global
// Prometheus registry when nil. Registering twice on the same registry reuses
// the existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "skychart_http_requests_total",
		Help: "Total number of handled HTTP requests, labeled by method, route, and status code.",
	}, []string{"method", "route", "code"}), "skychart_http_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "skychart_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"method", "route"}), "skychart_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	charts, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "skychart_charts_total",
		Help: "Sky charts computed, labeled by outcome.",
	}, []string{"outcome"}), "skychart_charts_total")
	if err != nil {
		return nil, err
	}

	buildSeconds, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "skychart_chart_build_seconds",
		Help:    "Time spent resolving and transforming the bodies of one chart.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	}), "skychart_chart_build_seconds")
	if err != nil {
		return nil, err
	}

	bodies, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "skychart_chart_bodies",
		Help:    "Number of bodies requested per chart.",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
	}), "skychart_chart_bodies")
	if err != nil {
		return nil, err
	}

	unknown, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "skychart_unknown_bodies_total",
		Help: "Bodies that no provider could resolve.",
	}), "skychart_unknown_bodies_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:      gatherer,
		HTTPRequests:  requests,
		HTTPDurations: durations,
		Charts:        charts,
		ChartDuration: buildSeconds,
		ChartBodies:   bodies,
		UnknownBodies: unknown,
	}, nil
}

// Middleware records request counts and durations for every gin route.
// Unmatched routes are grouped under "unmatched" to bound label cardinality.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		if c == nil {
			return
		}
		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := ctx.Request.Method
		code := strconv.Itoa(ctx.Writer.Status())

		if c.HTTPRequests != nil {
			c.HTTPRequests.WithLabelValues(method, route, code).Inc()
		}
		if c.HTTPDurations != nil {
			c.HTTPDurations.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		}
	}
}

// ObserveChart records one chart computation.
func (c *Collector) ObserveChart(outcome string, bodies int, d time.Duration) {
	if c == nil {
		return
	}
	if c.Charts != nil {
		c.Charts.WithLabelValues(outcome).Inc()
	}
	if c.ChartBodies != nil {
		c.ChartBodies.Observe(float64(bodies))
	}
	if c.ChartDuration != nil && outcome == OutcomeOK {
		c.ChartDuration.Observe(d.Seconds())
	}
}

// AddUnknownBodies counts bodies omitted or rejected as unknown.
func (c *Collector) AddUnknownBodies(n int) {
	if c == nil || c.UnknownBodies == nil || n <= 0 {
		return
	}
	c.UnknownBodies.Add(float64(n))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
