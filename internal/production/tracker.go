package production

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"purissima/internal"
	"purissima/internal/orders"
)

var validate = validator.New()

// UpdateRequest is one production counter change. Quantity has no upper bound and
// anything at or below zero clears the counter.
type UpdateRequest struct {
	Context  string `json:"context" validate:"required"`
	Item     string `json:"item" validate:"required"`
	Quantity int    `json:"quantity"`
}

func (r UpdateRequest) Validate() error {
	r.Context = strings.TrimSpace(r.Context)
	r.Item = strings.TrimSpace(r.Item)
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", internal.ErrInvalidInput, err)
	}
	return nil
}

type Totals struct {
	Required  int `json:"required"`
	Produced  int `json:"produced"`
	Remaining int `json:"remaining"`
}

type Tracker struct {
	store   StateStore
	session string
	logger  *zap.Logger
	now     func() time.Time
	mu      sync.Mutex
}

func NewTracker(store StateStore, session string, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{store: store, session: session, logger: logger, now: time.Now}
}

// Items joins the aggregates of orders with the counters stored under contextKey.
// Counters for items no longer present in orders are ignored.
func (t *Tracker) Items(ctx context.Context, list []internal.Order, contextKey string) ([]internal.ProductionItem, error) {
	records, err := t.store.ListProduction(ctx, t.session, contextKey)
	if err != nil {
		return nil, fmt.Errorf("list production %q: %w", contextKey, err)
	}
	produced := make(map[string]int, len(records))
	for _, rec := range records {
		produced[rec.Item] = rec.Quantity
	}

	aggregates := orders.Aggregate(list)
	out := make([]internal.ProductionItem, 0, len(aggregates))
	for _, agg := range aggregates {
		done := produced[agg.Item]
		out = append(out, internal.ProductionItem{
			Item:              agg.Item,
			TotalQuantity:     agg.TotalQuantity,
			ProducedQuantity:  done,
			RemainingQuantity: max(0, agg.TotalQuantity-done),
		})
	}
	return out, nil
}

func (t *Tracker) Update(ctx context.Context, contextKey, item string, quantity int) error {
	req := UpdateRequest{Context: contextKey, Item: item, Quantity: quantity}
	if err := req.Validate(); err != nil {
		t.logger.Warn("production update rejected",
			zap.String("context", contextKey),
			zap.String("item", item),
			zap.Int("quantity", quantity),
			zap.Error(err))
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var err error
	if quantity <= 0 {
		err = t.store.DeleteProduction(ctx, t.session, contextKey, item)
	} else {
		err = t.store.PutProduction(ctx, t.session, internal.ProductionRecord{
			Context:   contextKey,
			Item:      item,
			Quantity:  quantity,
			UpdatedAt: t.now().UTC(),
		})
	}
	if err != nil {
		return fmt.Errorf("update production %q/%q: %w", contextKey, item, err)
	}

	t.logger.Info("production updated",
		zap.String("context", contextKey),
		zap.String("item", item),
		zap.Int("quantity", quantity))
	return nil
}

func (t *Tracker) Totals(items []internal.ProductionItem) Totals {
	return SumTotals(items)
}

func SumTotals(items []internal.ProductionItem) Totals {
	var out Totals
	for _, it := range items {
		out.Required += it.TotalQuantity
		out.Produced += it.ProducedQuantity
		out.Remaining += it.RemainingQuantity
	}
	return out
}

// RangeContext names the production counters for a date window.
func RangeContext(from, to string) string {
	return "range:" + from + "::" + to
}

// WindowLayout is the minute-resolution layout used for window bounds.
const WindowLayout = "2006-01-02T15:04"

// DefaultWindow returns [now-lookback, now] formatted with WindowLayout.
func DefaultWindow(now time.Time, lookbackDays int) (from, to string) {
	if lookbackDays <= 0 {
		lookbackDays = 30
	}
	return now.AddDate(0, 0, -lookbackDays).Format(WindowLayout), now.Format(WindowLayout)
}
