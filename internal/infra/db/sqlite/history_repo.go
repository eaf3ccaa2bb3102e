package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	domain "github.com/bryanwahyu/simtrack/internal/domain/scans"
)

const schema = `
CREATE TABLE IF NOT EXISTS scan_history (
  seq          INTEGER PRIMARY KEY AUTOINCREMENT,
  id           TEXT    NOT NULL UNIQUE,
  code         TEXT    NOT NULL,
  display_code TEXT    NOT NULL,
  captured_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scan_history_code ON scan_history (code);`

// HistoryRepository stores the history in a local SQLite file.
// captured_at is kept as unix nanoseconds.
type HistoryRepository struct {
	db  *sql.DB
	cap int
	mu  sync.Mutex
}

func NewHistoryRepository(db *sql.DB, capacity int) *HistoryRepository {
	if capacity <= 0 {
		capacity = domain.DefaultCap
	}
	return &HistoryRepository{db: db, cap: capacity}
}

func (r *HistoryRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

func (r *HistoryRepository) Append(ctx context.Context, rec domain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	captured := rec.CapturedAt
	if captured.IsZero() {
		captured = time.Now()
	}
	const ins = `INSERT INTO scan_history (id, code, display_code, captured_at) VALUES (?,?,?,?)`
	if _, err := tx.ExecContext(ctx, ins, string(rec.ID), rec.Code, rec.DisplayCode, captured.UnixNano()); err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}

	const trim = `
DELETE FROM scan_history
WHERE seq <= (SELECT seq FROM scan_history ORDER BY seq DESC LIMIT 1 OFFSET ?);`
	if _, err := tx.ExecContext(ctx, trim, r.cap); err != nil {
		return fmt.Errorf("trim history: %w", err)
	}
	return tx.Commit()
}

func (r *HistoryRepository) List(ctx context.Context) ([]domain.Record, error) {
	const q = `
SELECT id, code, display_code, captured_at
FROM scan_history
ORDER BY seq DESC
LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, r.cap)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Record, 0, r.cap)
	for rows.Next() {
		var rec domain.Record
		var nanos int64
		if err := rows.Scan(&rec.ID, &rec.Code, &rec.DisplayCode, &nanos); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		rec.CapturedAt = time.Unix(0, nanos)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *HistoryRepository) ClearAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.db.ExecContext(ctx, `DELETE FROM scan_history`)
	return err
}

func (r *HistoryRepository) DeleteWhere(ctx context.Context, codes []string) (int, error) {
	if len(codes) == 0 {
		return 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	// satu parameter JSON, jumlah codes tidak kena batas variabel SQLite
	list, err := json.Marshal(codes)
	if err != nil {
		return 0, fmt.Errorf("encode codes: %w", err)
	}
	const q = `
DELETE FROM scan_history
WHERE code IN (SELECT value FROM json_each(?1))
   OR display_code IN (SELECT value FROM json_each(?1));`
	res, err := r.db.ExecContext(ctx, q, string(list))
	if err != nil {
		return 0, fmt.Errorf("delete scans: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *HistoryRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scan_history`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
