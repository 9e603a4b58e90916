package metrics_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"giving-hand-api-server/internal/metrics"
)

func TestTransitionsCount(t *testing.T) {
	m := metrics.New()

	m.Transitions.WithLabelValues("accept", "ok").Inc()
	m.Transitions.WithLabelValues("accept", "ok").Inc()
	m.Transitions.WithLabelValues("accept", "conflict").Inc()

	if got := testutil.ToFloat64(m.Transitions.WithLabelValues("accept", "ok")); got != 2 {
		t.Errorf("accept/ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Transitions.WithLabelValues("accept", "conflict")); got != 1 {
		t.Errorf("accept/conflict = %v, want 1", got)
	}
}

func TestHandlerExposesCounters(t *testing.T) {
	m := metrics.New()
	m.MirrorFallbacks.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "givinghand_mirror_fallbacks_total 1") {
		t.Errorf("exposition lacks mirror counter:\n%s", body)
	}
}
