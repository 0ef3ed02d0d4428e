package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegistryHandlerExposesCounters(t *testing.T) {
	r := NewRegistry()
	r.OrdersParsed.Add(3)
	r.FetchRequests.WithLabelValues("ok").Inc()
	r.MonitorRuns.WithLabelValues("error").Inc()

	if got := testutil.ToFloat64(r.OrdersParsed); got != 3 {
		t.Fatalf("orders parsed=%v", got)
	}

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		"purissima_orders_parsed_total 3",
		`purissima_fetch_requests_total{outcome="ok"} 1`,
		`purissima_monitor_runs_total{result="error"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("missing %q in:\n%s", want, body)
		}
	}
}
