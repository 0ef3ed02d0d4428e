package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"purissima/internal"
	"purissima/internal/config"
	"purissima/internal/fetch"
	"purissima/internal/mapping"
	"purissima/internal/metrics"
	"purissima/internal/orders"
	"purissima/internal/production"
	"purissima/internal/session"
)

// Filters narrows a snapshot. Empty From/To fall back to the default lookback
// window; empty Status falls back to the configured default.
type Filters struct {
	From   string
	To     string
	Status string
	Limit  int
	Search string
	Sort   orders.Direction
}

type Snapshot struct {
	FetchedAt         time.Time                 `json:"fetchedAt"`
	From              string                    `json:"from"`
	To                string                    `json:"to"`
	Status            string                    `json:"status"`
	Orders            []internal.Order          `json:"orders"`
	Aggregates        []internal.ItemAggregate  `json:"itemAggregates"`
	ProductionItems   []internal.ProductionItem `json:"productionItems"`
	ProductionContext string                    `json:"productionContext"`
	Totals            production.Totals         `json:"totals"`
	Removed           []internal.RemovalRecord  `json:"removedOrders"`
	RemovedOrders     []internal.Order          `json:"removedOrderDetails"`
	SkippedBlocks     int                       `json:"skippedBlocks"`
	SkippedRows       int                       `json:"skippedRows"`
}

type Service struct {
	fetcher  fetch.Fetcher
	parser   *Parser
	sessions *session.Manager
	cfg      config.Config
	metrics  *metrics.Registry
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(fetcher fetch.Fetcher, parser *Parser, sessions *session.Manager, cfg config.Config, reg *metrics.Registry, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	return &Service{
		fetcher:  fetcher,
		parser:   parser,
		sessions: sessions,
		cfg:      cfg,
		metrics:  reg,
		logger:   logger,
		now:      time.Now,
	}
}

// Window fills in the default lookback window and status.
func (s *Service) Window(f Filters) fetch.Window {
	from, to := f.From, f.To
	if from == "" || to == "" {
		defFrom, defTo := production.DefaultWindow(s.now().In(s.cfg.Location()), s.cfg.DefaultLookbackDays)
		if from == "" {
			from = defFrom
		}
		if to == "" {
			to = defTo
		}
	}
	status := f.Status
	if status == "" {
		status = s.cfg.DefaultStatus
	}
	return fetch.Window{From: from, To: to, Status: status, Limit: f.Limit}
}

// ParseRaw parses one document and records parse metrics.
func (s *Service) ParseRaw(raw []byte) (ParseResult, error) {
	res, err := s.parser.ParseDocument(raw)
	if err != nil {
		s.metrics.ParseFailures.Inc()
		s.logger.Error("failed to parse orders document", zap.Error(err))
		return ParseResult{}, err
	}
	s.metrics.OrdersParsed.Add(float64(len(res.Orders)))
	s.metrics.SkippedBlocks.Add(float64(res.SkippedBlocks))
	s.metrics.SkippedRows.Add(float64(res.SkippedRows))
	s.metrics.DuplicateItems.Add(float64(res.DuplicateItems))
	return res, nil
}

// LoadOrders fetches and parses the orders of a window. Transport and parse
// errors are returned as they are.
func (s *Service) LoadOrders(ctx context.Context, w fetch.Window) (ParseResult, error) {
	raw, err := s.fetcher.Fetch(ctx, w)
	if err != nil {
		s.logger.Error("failed to fetch orders", zap.Error(err), zap.String("from", w.From), zap.String("to", w.To))
		return ParseResult{}, err
	}
	return s.ParseRaw(raw)
}

// Load assembles everything the production dashboard shows for one session.
func (s *Service) Load(ctx context.Context, sessionID string, f Filters) (Snapshot, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	w := s.Window(f)
	res, err := s.LoadOrders(ctx, w)
	if err != nil {
		return Snapshot{}, err
	}
	return s.assemble(ctx, sess, w, f, res)
}

// Build is Load over an already parsed document.
func (s *Service) Build(ctx context.Context, sessionID string, f Filters, res ParseResult) (Snapshot, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	return s.assemble(ctx, sess, s.Window(f), f, res)
}

// AggregateItems totals item quantities over the orders the filters select.
// Orders repeated across a document are counted once.
func (s *Service) AggregateItems(res ParseResult, f Filters) []internal.ItemAggregate {
	return orders.SortAggregates(orders.Aggregate(s.query(res.Orders, f)))
}

func (s *Service) query(list []internal.Order, f Filters) []internal.Order {
	return orders.Query(list, orders.Options{
		Search:   f.Search,
		Sort:     f.Sort,
		Limit:    f.Limit,
		Location: s.cfg.Location(),
	})
}

func (s *Service) assemble(ctx context.Context, sess *session.Session, w fetch.Window, f Filters, res ParseResult) (Snapshot, error) {
	list := s.query(res.Orders, f)
	active, err := sess.Ledger.ActiveOrders(ctx, list)
	if err != nil {
		return Snapshot{}, err
	}
	removedOrders, err := sess.Ledger.RemovedOrders(ctx, list)
	if err != nil {
		return Snapshot{}, err
	}
	removed, err := sess.Ledger.Removed(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	contextKey := production.RangeContext(w.From, w.To)
	items, err := sess.Tracker.Items(ctx, active, contextKey)
	if err != nil {
		return Snapshot{}, err
	}
	totals := sess.Tracker.Totals(items)

	s.metrics.ActiveOrders.Set(float64(len(active)))
	s.metrics.RemainingUnits.Set(float64(totals.Remaining))

	if removed == nil {
		removed = []internal.RemovalRecord{}
	}
	return Snapshot{
		FetchedAt:         s.now().UTC(),
		From:              w.From,
		To:                w.To,
		Status:            w.Status,
		Orders:            active,
		Aggregates:        orders.Aggregate(active),
		ProductionItems:   items,
		ProductionContext: contextKey,
		Totals:            totals,
		Removed:           removed,
		RemovedOrders:     removedOrders,
		SkippedBlocks:     res.SkippedBlocks,
		SkippedRows:       res.SkippedRows,
	}, nil
}

func (s *Service) UpdateProduction(ctx context.Context, sessionID string, req production.UpdateRequest) error {
	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	if err := sess.Tracker.Update(ctx, req.Context, req.Item, req.Quantity); err != nil {
		return err
	}
	s.metrics.ProductionUpdates.Inc()
	return nil
}

func (s *Service) RemoveOrders(ctx context.Context, sessionID string, ids []string) ([]string, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	out, err := sess.Ledger.Remove(ctx, ids)
	if err != nil {
		return nil, err
	}
	s.metrics.OrdersRemoved.Add(float64(len(out)))
	return out, nil
}

func (s *Service) RestoreOrders(ctx context.Context, sessionID string, ids []string) ([]string, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	out, err := sess.Ledger.Restore(ctx, ids)
	if err != nil {
		return nil, err
	}
	s.metrics.OrdersRestored.Add(float64(len(out)))
	return out, nil
}

// PurgeRemoved forgets removals older than maxAge.
func (s *Service) PurgeRemoved(ctx context.Context, sessionID string, maxAge time.Duration) (int, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return 0, err
	}
	return sess.Ledger.Purge(ctx, s.now().Add(-maxAge))
}

func (s *Service) Canonicalize(name string) mapping.Match {
	return s.parser.rules.Resolve(name)
}

func (s *Service) session(id string) (*session.Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: session id is required", internal.ErrInvalidInput)
	}
	return s.sessions.Open(id), nil
}
