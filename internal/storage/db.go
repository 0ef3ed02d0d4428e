package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"purissima/internal"
	"purissima/internal/production"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}
	// single writer
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS production (
  session TEXT NOT NULL,
  context TEXT NOT NULL,
  item TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  updatedAt TEXT NOT NULL,
  PRIMARY KEY(session, context, item)
);

CREATE TABLE IF NOT EXISTS removals (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  session TEXT NOT NULL,
  orderId TEXT NOT NULL,
  removedAt TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_removals_session ON removals(session, orderId);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) PutProduction(ctx context.Context, session string, rec internal.ProductionRecord) error {
	_, err := d.conn.ExecContext(ctx, `
INSERT INTO production (session, context, item, quantity, updatedAt)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(session, context, item) DO UPDATE SET
  quantity=excluded.quantity,
  updatedAt=excluded.updatedAt
`, session, rec.Context, rec.Item, rec.Quantity, formatTime(rec.UpdatedAt))
	return err
}

func (d *DB) DeleteProduction(ctx context.Context, session, contextKey, item string) error {
	_, err := d.conn.ExecContext(ctx, `DELETE FROM production WHERE session = ? AND context = ? AND item = ?`, session, contextKey, item)
	return err
}

func (d *DB) ListProduction(ctx context.Context, session, contextKey string) ([]internal.ProductionRecord, error) {
	rows, err := d.conn.QueryContext(ctx, `
SELECT context, item, quantity, updatedAt
FROM production WHERE session = ? AND context = ? ORDER BY item ASC
`, session, contextKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ProductionRecord
	for rows.Next() {
		var rec internal.ProductionRecord
		var updatedAt string
		if err := rows.Scan(&rec.Context, &rec.Item, &rec.Quantity, &updatedAt); err != nil {
			return nil, err
		}
		rec.UpdatedAt = parseTime(updatedAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (d *DB) AppendRemovals(ctx context.Context, session string, recs []internal.RemovalRecord) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO removals (session, orderId, removedAt) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range recs {
		if _, err := stmt.ExecContext(ctx, session, r.OrderID, formatTime(r.RemovedAt)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) DeleteRemovals(ctx context.Context, session string, orderIDs []string) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range orderIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM removals WHERE session = ? AND orderId = ?`, session, id); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListRemovals(ctx context.Context, session string) ([]internal.RemovalRecord, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT orderId, removedAt FROM removals WHERE session = ? ORDER BY id ASC`, session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RemovalRecord
	for rows.Next() {
		var r internal.RemovalRecord
		var removedAt string
		if err := rows.Scan(&r.OrderID, &removedAt); err != nil {
			return nil, err
		}
		r.RemovedAt = parseTime(removedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// PurgeRemovals compares the stored text directly; formatTime writes fixed-width
// UTC so lexical and chronological order agree.
func (d *DB) PurgeRemovals(ctx context.Context, session string, before time.Time) (int, error) {
	res, err := d.conn.ExecContext(ctx, `DELETE FROM removals WHERE session = ? AND removedAt < ?`, session, formatTime(before))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (d *DB) DropSession(ctx context.Context, session string) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM production WHERE session = ?`, session); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM removals WHERE session = ?`, session); err != nil {
		return err
	}

	return tx.Commit()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}

var _ production.StateStore = (*DB)(nil)
