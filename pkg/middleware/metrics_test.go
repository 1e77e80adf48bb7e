package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectMetric returns the sample of c whose labels include all of labels.
func collectMetric(t *testing.T, c prometheus.Collector, labels map[string]string) *dto.Metric {
	t.Helper()
	ch := make(chan prometheus.Metric, 100)
	c.Collect(ch)
	close(ch)

	for m := range ch {
		d := &dto.Metric{}
		if err := m.Write(d); err != nil {
			continue
		}
		matched := 0
		for _, lp := range d.GetLabel() {
			if v, ok := labels[lp.GetName()]; ok && v == lp.GetValue() {
				matched++
			}
		}
		if matched == len(labels) {
			return d
		}
	}
	return nil
}

func counterValue(t *testing.T, labels map[string]string) float64 {
	t.Helper()
	if m := collectMetric(t, httpRequestsTotal, labels); m != nil {
		return m.GetCounter().GetValue()
	}
	return 0
}

func TestPrometheusMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics)
	r.Delete("/api/v1/cart/items/{itemId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	labels := map[string]string{"method": "DELETE", "route": "/api/v1/cart/items/{itemId}", "status": "204"}
	before := counterValue(t, labels)

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/"+id, nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	assert.Equal(t, before+3, counterValue(t, labels))

	hist := collectMetric(t, httpRequestDuration, map[string]string{"method": "DELETE", "route": "/api/v1/cart/items/{itemId}"})
	require.NotNil(t, hist)
	assert.GreaterOrEqual(t, hist.GetHistogram().GetSampleCount(), uint64(3))
}

func TestPrometheusMetrics_UnmatchedRoute(t *testing.T) {
	labels := map[string]string{"method": "GET", "route": "unmatched", "status": "418"}
	before := counterValue(t, labels)

	h := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, before+1, counterValue(t, labels))
}

func TestPrometheusMetrics_InFlightReturnsToZero(t *testing.T) {
	h := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := &dto.Metric{}
		require.NoError(t, httpRequestsInFlight.Write(m))
		assert.GreaterOrEqual(t, m.GetGauge().GetValue(), float64(1))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	m := &dto.Metric{}
	require.NoError(t, httpRequestsInFlight.Write(m))
	assert.Equal(t, float64(0), m.GetGauge().GetValue())
}
