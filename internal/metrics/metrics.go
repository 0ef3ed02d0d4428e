package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	OrdersParsed   prometheus.Counter
	SkippedBlocks  prometheus.Counter
	SkippedRows    prometheus.Counter
	DuplicateItems prometheus.Counter
	ParseFailures  prometheus.Counter

	FetchRequests *prometheus.CounterVec
	FetchLatency  prometheus.Histogram

	ProductionUpdates prometheus.Counter
	OrdersRemoved     prometheus.Counter
	OrdersRestored    prometheus.Counter

	MonitorRuns    *prometheus.CounterVec
	ActiveOrders   prometheus.Gauge
	RemainingUnits prometheus.Gauge
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	parsed := prometheus.NewCounter(prometheus.CounterOpts{Name: "purissima_orders_parsed_total"})
	skippedBlocks := prometheus.NewCounter(prometheus.CounterOpts{Name: "purissima_parse_skipped_blocks_total"})
	skippedRows := prometheus.NewCounter(prometheus.CounterOpts{Name: "purissima_parse_skipped_rows_total"})
	duplicates := prometheus.NewCounter(prometheus.CounterOpts{Name: "purissima_parse_duplicate_items_total"})
	failures := prometheus.NewCounter(prometheus.CounterOpts{Name: "purissima_parse_failures_total"})

	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "purissima_fetch_requests_total"}, []string{"outcome"})
	fetchLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "purissima_fetch_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})

	updates := prometheus.NewCounter(prometheus.CounterOpts{Name: "purissima_production_updates_total"})
	removed := prometheus.NewCounter(prometheus.CounterOpts{Name: "purissima_orders_removed_total"})
	restored := prometheus.NewCounter(prometheus.CounterOpts{Name: "purissima_orders_restored_total"})

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "purissima_monitor_runs_total"}, []string{"result"})
	active := prometheus.NewGauge(prometheus.GaugeOpts{Name: "purissima_active_orders"})
	remaining := prometheus.NewGauge(prometheus.GaugeOpts{Name: "purissima_remaining_units"})

	r.MustRegister(parsed, skippedBlocks, skippedRows, duplicates, failures,
		fetches, fetchLatency, updates, removed, restored, runs, active, remaining)
	return &Registry{
		reg:               r,
		OrdersParsed:      parsed,
		SkippedBlocks:     skippedBlocks,
		SkippedRows:       skippedRows,
		DuplicateItems:    duplicates,
		ParseFailures:     failures,
		FetchRequests:     fetches,
		FetchLatency:      fetchLatency,
		ProductionUpdates: updates,
		OrdersRemoved:     removed,
		OrdersRestored:    restored,
		MonitorRuns:       runs,
		ActiveOrders:      active,
		RemainingUnits:    remaining,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

// Gatherer exposes the registry to tests.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }
