package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func newTestCollector(t *testing.T) (*Collector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	collector, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	return collector, reg
}

func TestMiddlewareRecordsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	collector, reg := newTestCollector(t)

	r := gin.New()
	r.Use(collector.Middleware())
	r.GET("/v1/charts/:id", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "missing"})
	})

	for _, path := range []string{"/v1/charts/a", "/v1/charts/b", "/nowhere"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("GET", "/v1/charts/:id", "404")); got != 2 {
		t.Fatalf("route requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Fatalf("unmatched requests = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "skychart_http_request_duration_seconds", map[string]string{
		"method": "GET",
		"route":  "/v1/charts/:id",
	}); count != 2 {
		t.Fatalf("duration sample_count = %d, want 2", count)
	}
}

func TestObserveChart(t *testing.T) {
	collector, reg := newTestCollector(t)

	collector.ObserveChart(OutcomeOK, 10, 2*time.Millisecond)
	collector.ObserveChart(OutcomeUnknownBody, 3, time.Millisecond)
	collector.AddUnknownBodies(2)
	collector.AddUnknownBodies(0)

	if got := testutil.ToFloat64(collector.Charts.WithLabelValues(OutcomeOK)); got != 1 {
		t.Errorf("ok charts = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.Charts.WithLabelValues(OutcomeUnknownBody)); got != 1 {
		t.Errorf("unknown_body charts = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.UnknownBodies); got != 2 {
		t.Errorf("unknown bodies = %v, want 2", got)
	}
	if count := histogramSampleCount(t, reg, "skychart_chart_build_seconds", nil); count != 1 {
		t.Errorf("build seconds sample_count = %d, want 1", count)
	}
	if count := histogramSampleCount(t, reg, "skychart_chart_bodies", nil); count != 2 {
		t.Errorf("bodies sample_count = %d, want 2", count)
	}
}

func TestNewCollectorReusesRegistered(t *testing.T) {
	first, reg := newTestCollector(t)
	second, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("second NewCollector: %v", err)
	}
	first.AddUnknownBodies(1)
	if got := testutil.ToFloat64(second.UnknownBodies); got != 1 {
		t.Fatalf("shared counter = %v, want 1", got)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.ObserveChart(OutcomeOK, 1, time.Millisecond)
	c.AddUnknownBodies(1)
}

func TestMetricsHandlerExposesMetrics(t *testing.T) {
	collector, _ := newTestCollector(t)
	collector.HTTPRequests.WithLabelValues("GET", "/health", "200").Inc()
	collector.ObserveChart(OutcomeOK, 10, time.Millisecond)

	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"skychart_http_requests_total",
		"skychart_charts_total",
		"skychart_chart_build_seconds",
		"skychart_chart_bodies",
		"skychart_unknown_bodies_total",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
