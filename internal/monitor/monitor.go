package monitor

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"purissima/internal/config"
	"purissima/internal/metrics"
	"purissima/internal/pipeline"
)

const lastRunKey = "monitor.last_run"

// MetadataStore records when the last cycle finished. The SQLite store satisfies it.
type MetadataStore interface {
	SetMetadata(key, value string) error
}

type Result struct {
	Orders    int
	Remaining int
	Exported  string
}

type Service struct {
	pipeline  *pipeline.Service
	cfg       config.Config
	sessionID string
	meta      MetadataStore
	metrics   *metrics.Registry
	logger    *zap.Logger
	interval  time.Duration
	now       func() time.Time
}

// NewService watches the default window of one session. meta may be nil.
func NewService(p *pipeline.Service, cfg config.Config, sessionID string, meta MetadataStore, reg *metrics.Registry, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	interval := time.Duration(cfg.MonitorIntervalSec) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Service{
		pipeline:  p,
		cfg:       cfg,
		sessionID: sessionID,
		meta:      meta,
		metrics:   reg,
		logger:    logger,
		interval:  interval,
		now:       time.Now,
	}
}

// Run repeats RunOnce until ctx is cancelled. Cycle errors are logged and do not
// stop the loop.
func (s *Service) Run(ctx context.Context) error {
	for {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("monitor cycle failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.interval):
		}
	}
}

func (s *Service) RunOnce(ctx context.Context) (Result, error) {
	snap, err := s.pipeline.Load(ctx, s.sessionID, pipeline.Filters{})
	if err != nil {
		s.metrics.MonitorRuns.WithLabelValues("error").Inc()
		return Result{}, err
	}

	res := Result{Orders: len(snap.Orders), Remaining: snap.Totals.Remaining}
	if s.cfg.MonitorAutoExport && len(snap.Orders) > 0 {
		filename := fmt.Sprintf("snapshot_%s.xlsx", s.now().UTC().Format("20060102T150405Z"))
		outputPath := filepath.Join(s.cfg.OutputDir, "monitor", filename)
		if err := pipeline.ExportSnapshotToXLSX(snap, outputPath); err != nil {
			s.metrics.MonitorRuns.WithLabelValues("error").Inc()
			return res, fmt.Errorf("export snapshot: %w", err)
		}
		res.Exported = outputPath
	}

	if s.meta != nil {
		if err := s.meta.SetMetadata(lastRunKey, s.now().UTC().Format(time.RFC3339)); err != nil {
			s.logger.Warn("failed to record monitor run", zap.Error(err))
		}
	}
	s.metrics.MonitorRuns.WithLabelValues("ok").Inc()
	s.logger.Info("monitor cycle done",
		zap.String("from", snap.From),
		zap.String("to", snap.To),
		zap.Int("orders", res.Orders),
		zap.Int("remaining", res.Remaining),
		zap.String("exported", res.Exported))
	return res, nil
}
