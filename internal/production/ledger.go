package production

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"purissima/internal"
)

// Ledger records orders set aside by an operator. Removing the same id twice
// appends two records; restoring an id drops all of them.
type Ledger struct {
	store   StateStore
	session string
	logger  *zap.Logger
	now     func() time.Time
	mu      sync.Mutex
}

func NewLedger(store StateStore, session string, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{store: store, session: session, logger: logger, now: time.Now}
}

func (l *Ledger) Remove(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return ids, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	at := l.now().UTC()
	recs := make([]internal.RemovalRecord, 0, len(ids))
	for _, id := range ids {
		recs = append(recs, internal.RemovalRecord{OrderID: id, RemovedAt: at})
	}
	if err := l.store.AppendRemovals(ctx, l.session, recs); err != nil {
		return nil, fmt.Errorf("remove orders: %w", err)
	}
	l.logger.Info("orders removed", zap.Int("removed_count", len(ids)), zap.Strings("order_ids", ids))
	return ids, nil
}

func (l *Ledger) Restore(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return ids, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.DeleteRemovals(ctx, l.session, ids); err != nil {
		return nil, fmt.Errorf("restore orders: %w", err)
	}
	l.logger.Info("orders restored", zap.Strings("order_ids", ids))
	return ids, nil
}

func (l *Ledger) Removed(ctx context.Context) ([]internal.RemovalRecord, error) {
	recs, err := l.store.ListRemovals(ctx, l.session)
	if err != nil {
		return nil, fmt.Errorf("list removed orders: %w", err)
	}
	return recs, nil
}

func (l *Ledger) removedSet(ctx context.Context) (map[string]struct{}, error) {
	recs, err := l.Removed(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(recs))
	for _, r := range recs {
		set[r.OrderID] = struct{}{}
	}
	return set, nil
}

// ActiveOrders keeps the orders with no removal record, in input order.
func (l *Ledger) ActiveOrders(ctx context.Context, list []internal.Order) ([]internal.Order, error) {
	return l.partition(ctx, list, false)
}

// RemovedOrders keeps the orders that have at least one removal record.
func (l *Ledger) RemovedOrders(ctx context.Context, list []internal.Order) ([]internal.Order, error) {
	return l.partition(ctx, list, true)
}

func (l *Ledger) partition(ctx context.Context, list []internal.Order, removed bool) ([]internal.Order, error) {
	set, err := l.removedSet(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]internal.Order, 0, len(list))
	for _, o := range list {
		if _, ok := set[o.ID]; ok == removed {
			out = append(out, o)
		}
	}
	return out, nil
}

// Purge drops records removed before cutoff and reports how many went.
func (l *Ledger) Purge(ctx context.Context, cutoff time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n, err := l.store.PurgeRemovals(ctx, l.session, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge removed orders: %w", err)
	}
	if n > 0 {
		l.logger.Info("removed orders purged", zap.Int("purged_count", n), zap.Time("cutoff", cutoff))
	}
	return n, nil
}
