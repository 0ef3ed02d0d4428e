// Package production tracks how much of each aggregated item has been produced and
// which orders an operator has set aside, both scoped to one session.
package production

import (
	"context"
	"time"

	"purissima/internal"
)

// StateStore persists session-scoped state. Implementations must be safe for
// concurrent use; the tracker and ledger add their own per-session serialization
// on top.
type StateStore interface {
	PutProduction(ctx context.Context, session string, rec internal.ProductionRecord) error
	DeleteProduction(ctx context.Context, session, contextKey, item string) error
	ListProduction(ctx context.Context, session, contextKey string) ([]internal.ProductionRecord, error)

	AppendRemovals(ctx context.Context, session string, recs []internal.RemovalRecord) error
	DeleteRemovals(ctx context.Context, session string, orderIDs []string) error
	ListRemovals(ctx context.Context, session string) ([]internal.RemovalRecord, error)
	PurgeRemovals(ctx context.Context, session string, before time.Time) (int, error)

	DropSession(ctx context.Context, session string) error
}
