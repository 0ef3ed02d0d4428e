package monitor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"purissima/internal"
	"purissima/internal/config"
	"purissima/internal/fetch"
	"purissima/internal/metrics"
	"purissima/internal/pipeline"
	"purissima/internal/session"
	"purissima/internal/storage"
)

const page = `<div class="order"><div class="head-grid">
<div class="kv"><b>Pedido</b><span>501</span></div></div>
<table class="items"><tbody><tr><td>Pouch Vital</td><td>2</td></tr></tbody></table></div>`

type fetcherFunc func(context.Context, fetch.Window) ([]byte, error)

func (f fetcherFunc) Fetch(ctx context.Context, w fetch.Window) ([]byte, error) {
	return f(ctx, w)
}

func newMonitor(t *testing.T, f fetch.Fetcher, autoExport bool) (*Service, *storage.DB, *metrics.Registry, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{
		OutputDir:          filepath.Join(dir, "out"),
		DefaultStatus:      "released",
		Timezone:           "UTC",
		MonitorIntervalSec: 1,
		MonitorAutoExport:  autoExport,
	}
	reg := metrics.NewRegistry()
	svc := pipeline.NewService(f, pipeline.NewParser(nil, nil, nil), session.NewManager(db, nil), cfg, reg, nil)
	m := NewService(svc, cfg, "monitor", db, reg, nil)
	m.now = func() time.Time { return time.Date(2025, 5, 20, 9, 30, 0, 0, time.UTC) }
	return m, db, reg, cfg.OutputDir
}

func TestRunOnceExportsSnapshot(t *testing.T) {
	m, db, reg, out := newMonitor(t, fetcherFunc(func(context.Context, fetch.Window) ([]byte, error) {
		return []byte(page), nil
	}), true)

	res, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Orders)
	assert.Equal(t, 2, res.Remaining)
	assert.Equal(t, filepath.Join(out, "monitor", "snapshot_20250520T093000Z.xlsx"), res.Exported)

	_, err = os.Stat(res.Exported)
	require.NoError(t, err)

	last, err := db.GetMetadata(lastRunKey)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "2025-05-20T09:30:00Z", *last)

	assert.Equal(t, float64(1), testutil.ToFloat64(reg.MonitorRuns.WithLabelValues("ok")))
}

func TestRunOnceWithoutExport(t *testing.T) {
	m, _, _, out := newMonitor(t, fetcherFunc(func(context.Context, fetch.Window) ([]byte, error) {
		return []byte(page), nil
	}), false)

	res, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Exported)
	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestRunOnceCountsFailures(t *testing.T) {
	m, db, reg, _ := newMonitor(t, fetcherFunc(func(context.Context, fetch.Window) ([]byte, error) {
		return nil, internal.ErrTransport
	}), true)

	_, err := m.RunOnce(context.Background())
	assert.True(t, errors.Is(err, internal.ErrTransport))
	assert.Equal(t, float64(1), testutil.ToFloat64(reg.MonitorRuns.WithLabelValues("error")))

	last, err := db.GetMetadata(lastRunKey)
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestRunStopsOnCancel(t *testing.T) {
	calls := 0
	ctx, cancel := context.WithCancel(context.Background())
	m, _, _, _ := newMonitor(t, fetcherFunc(func(context.Context, fetch.Window) ([]byte, error) {
		calls++
		cancel()
		return nil, internal.ErrTransport
	}), false)

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop")
	}
	assert.Equal(t, 1, calls)
}
