package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"purissima/internal"
	"purissima/internal/config"
	"purissima/internal/fetch"
	"purissima/internal/metrics"
	"purissima/internal/orders"
	"purissima/internal/production"
	"purissima/internal/session"
	"purissima/internal/storage"
)

type stubFetcher struct {
	body   []byte
	err    error
	calls  int
	window fetch.Window
}

func (f *stubFetcher) Fetch(_ context.Context, w fetch.Window) ([]byte, error) {
	f.calls++
	f.window = w
	return f.body, f.err
}

func newTestService(t *testing.T, fetcher fetch.Fetcher) (*Service, *metrics.Registry) {
	t.Helper()
	cfg := config.Config{DefaultStatus: "released", DefaultLookbackDays: 30, Timezone: "UTC"}
	reg := metrics.NewRegistry()
	sessions := session.NewManager(storage.NewMemoryStore(), nil)
	svc := NewService(fetcher, NewParser(nil, nil, nil), sessions, cfg, reg, nil)
	svc.now = func() time.Time { return time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC) }
	return svc, reg
}

func TestServiceWindowDefaults(t *testing.T) {
	svc, _ := newTestService(t, &stubFetcher{})
	w := svc.Window(Filters{})
	if w.From != "2025-04-20T12:00" || w.To != "2025-05-20T12:00" || w.Status != "released" {
		t.Fatalf("window=%+v", w)
	}
	w = svc.Window(Filters{From: "2025-05-01T00:00", Status: "all", Limit: 10})
	if w.From != "2025-05-01T00:00" || w.To != "2025-05-20T12:00" || w.Status != "all" || w.Limit != 10 {
		t.Fatalf("window=%+v", w)
	}
}

func TestServiceLoadSnapshot(t *testing.T) {
	fetcher := &stubFetcher{body: readFixture(t, "orders_page.html")}
	svc, reg := newTestService(t, fetcher)
	ctx := context.Background()

	snap, err := svc.Load(ctx, "s1", Filters{From: "2025-05-01T00:00", To: "2025-05-31T23:59"})
	if err != nil {
		t.Fatal(err)
	}
	if fetcher.calls != 1 || fetcher.window.From != "2025-05-01T00:00" || fetcher.window.Status != "released" {
		t.Fatalf("fetch calls=%d window=%+v", fetcher.calls, fetcher.window)
	}
	if len(snap.Orders) != 2 || snap.SkippedBlocks != 1 || snap.SkippedRows != 2 {
		t.Fatalf("snapshot=%+v", snap)
	}
	if snap.ProductionContext != "range:2025-05-01T00:00::2025-05-31T23:59" {
		t.Fatalf("context=%q", snap.ProductionContext)
	}
	if snap.Totals != (production.Totals{Required: 6, Produced: 0, Remaining: 6}) {
		t.Fatalf("totals=%+v", snap.Totals)
	}
	if len(snap.Removed) != 0 || snap.Removed == nil {
		t.Fatalf("removed=%v", snap.Removed)
	}
	if got := testutil.ToFloat64(reg.OrdersParsed); got != 2 {
		t.Fatalf("orders parsed=%v", got)
	}
	if got := testutil.ToFloat64(reg.ActiveOrders); got != 2 {
		t.Fatalf("active orders=%v", got)
	}
}

func TestServiceProductionAndRemovals(t *testing.T) {
	fetcher := &stubFetcher{body: readFixture(t, "orders_page.html")}
	svc, reg := newTestService(t, fetcher)
	ctx := context.Background()
	f := Filters{From: "2025-05-01T00:00", To: "2025-05-31T23:59", Sort: orders.Desc}
	contextKey := production.RangeContext(f.From, f.To)

	err := svc.UpdateProduction(ctx, "s1", production.UpdateRequest{Context: contextKey, Item: "Vital", Quantity: 2})
	if err != nil {
		t.Fatal(err)
	}
	snap, err := svc.Load(ctx, "s1", f)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Orders[0].ID != "1002" {
		t.Fatalf("descending sort, got %s first", snap.Orders[0].ID)
	}
	if snap.Totals != (production.Totals{Required: 6, Produced: 2, Remaining: 4}) {
		t.Fatalf("totals=%+v", snap.Totals)
	}

	removed, err := svc.RemoveOrders(ctx, "s1", []string{"1002"})
	if err != nil || len(removed) != 1 {
		t.Fatalf("removed=%v err=%v", removed, err)
	}
	snap, err = svc.Load(ctx, "s1", f)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Orders) != 1 || snap.Orders[0].ID != "1001" {
		t.Fatalf("orders=%+v", snap.Orders)
	}
	if len(snap.RemovedOrders) != 1 || snap.RemovedOrders[0].ID != "1002" || len(snap.Removed) != 1 {
		t.Fatalf("removed=%+v", snap.RemovedOrders)
	}
	// Vital drops to the 3 units of 1001, of which 2 are already made
	if snap.Totals != (production.Totals{Required: 4, Produced: 2, Remaining: 2}) {
		t.Fatalf("totals=%+v", snap.Totals)
	}

	// another session sees nothing of this
	other, err := svc.Load(ctx, "s2", f)
	if err != nil {
		t.Fatal(err)
	}
	if len(other.Orders) != 2 || other.Totals.Produced != 0 {
		t.Fatalf("session leak: %+v", other.Totals)
	}

	if _, err := svc.RestoreOrders(ctx, "s1", []string{"1002"}); err != nil {
		t.Fatal(err)
	}
	snap, err = svc.Load(ctx, "s1", f)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Orders) != 2 || len(snap.Removed) != 0 {
		t.Fatalf("restore did not apply: %+v", snap.Removed)
	}

	if got := testutil.ToFloat64(reg.OrdersRemoved); got != 1 {
		t.Fatalf("removed metric=%v", got)
	}
	if got := testutil.ToFloat64(reg.ProductionUpdates); got != 1 {
		t.Fatalf("updates metric=%v", got)
	}
}

func TestServicePurgeRemoved(t *testing.T) {
	svc, _ := newTestService(t, &stubFetcher{})
	ctx := context.Background()
	if _, err := svc.RemoveOrders(ctx, "s1", []string{"1", "2"}); err != nil {
		t.Fatal(err)
	}
	// removals are stamped with the real clock, well before the fake now
	n, err := svc.PurgeRemoved(ctx, "s1", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("purged=%d", n)
	}
	svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	n, err = svc.PurgeRemoved(ctx, "s1", 24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("purged=%d", n)
	}
}

func TestServicePassesErrorsThrough(t *testing.T) {
	ctx := context.Background()

	svc, _ := newTestService(t, &stubFetcher{err: fmt.Errorf("%w: status 502", internal.ErrTransport)})
	if _, err := svc.Load(ctx, "s1", Filters{}); !errors.Is(err, internal.ErrTransport) {
		t.Fatalf("err=%v", err)
	}

	svc, reg := newTestService(t, &stubFetcher{body: []byte(`{"status":0}`)})
	if _, err := svc.Load(ctx, "s1", Filters{}); !errors.Is(err, internal.ErrParseFatal) {
		t.Fatalf("err=%v", err)
	}
	if got := testutil.ToFloat64(reg.ParseFailures); got != 1 {
		t.Fatalf("parse failures=%v", got)
	}
}

func TestServiceRequiresSession(t *testing.T) {
	fetcher := &stubFetcher{}
	svc, _ := newTestService(t, fetcher)
	ctx := context.Background()

	if _, err := svc.Load(ctx, " ", Filters{}); !errors.Is(err, internal.ErrInvalidInput) {
		t.Fatalf("err=%v", err)
	}
	if fetcher.calls != 0 {
		t.Fatal("fetch must not run without a session")
	}
	if _, err := svc.RemoveOrders(ctx, "", []string{"1"}); !errors.Is(err, internal.ErrInvalidInput) {
		t.Fatalf("err=%v", err)
	}
	err := svc.UpdateProduction(ctx, "s1", production.UpdateRequest{Context: "", Item: "Vital", Quantity: 1})
	if !errors.Is(err, internal.ErrInvalidInput) {
		t.Fatalf("err=%v", err)
	}
}

func TestServiceCanonicalize(t *testing.T) {
	svc, _ := newTestService(t, &stubFetcher{})
	m := svc.Canonicalize("Problemas de sono")
	if !m.Matched || m.Label != "Sono Regenerativo" {
		t.Fatalf("match=%+v", m)
	}
	if m := svc.Canonicalize("Desconhecido"); m.Matched {
		t.Fatalf("match=%+v", m)
	}
}

func TestServiceAggregateItems(t *testing.T) {
	svc, _ := newTestService(t, &stubFetcher{})
	res, err := svc.ParseRaw(readFixture(t, "orders_page.html"))
	if err != nil {
		t.Fatal(err)
	}
	// the same orders seen twice, as when pages overlap
	res.Orders = append(res.Orders, res.Orders...)

	aggs := svc.AggregateItems(res, Filters{})
	if len(aggs) != 2 {
		t.Fatalf("aggregates=%+v", aggs)
	}
	if aggs[0].Item != "Sono Regenerativo" || aggs[0].TotalQuantity != 1 {
		t.Fatalf("first=%+v", aggs[0])
	}
	if aggs[1].Item != "Vital" || aggs[1].TotalQuantity != 5 || len(aggs[1].Orders) != 2 {
		t.Fatalf("second=%+v", aggs[1])
	}

	aggs = svc.AggregateItems(res, Filters{Search: "joão"})
	if len(aggs) != 1 || aggs[0].Item != "Vital" || aggs[0].TotalQuantity != 2 {
		t.Fatalf("search=%+v", aggs)
	}

	aggs = svc.AggregateItems(res, Filters{Sort: orders.Asc, Limit: 1})
	if len(aggs) != 2 || aggs[1].TotalQuantity != 3 {
		t.Fatalf("limit=%+v", aggs)
	}
}
