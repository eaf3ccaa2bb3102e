package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	domain "github.com/bryanwahyu/simtrack/internal/domain/scans"
)

const schema = `
CREATE TABLE IF NOT EXISTS scan_history (
  seq          BIGINT       NOT NULL AUTO_INCREMENT PRIMARY KEY,
  id           CHAR(36)     NOT NULL UNIQUE,
  code         VARCHAR(255) NOT NULL,
  display_code VARCHAR(255) NOT NULL,
  captured_at  DATETIME(3)  NOT NULL,
  INDEX idx_scan_history_code (code),
  INDEX idx_scan_history_display (display_code)
) CHARACTER SET utf8mb4;`

// deleteBatch codes per statement, two placeholders each (MySQL max 65535)
const deleteBatch = 1000

// HistoryRepository stores the scan history in MySQL, trimmed to cap rows.
type HistoryRepository struct {
	db  *sql.DB
	cap int
	mu  sync.Mutex // serialize mutations from this process
}

func NewHistoryRepository(db *sql.DB, capacity int) *HistoryRepository {
	if capacity <= 0 {
		capacity = domain.DefaultCap
	}
	return &HistoryRepository{db: db, cap: capacity}
}

// EnsureSchema buat tabel kalau belum ada
func (r *HistoryRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Append insert di head lalu buang row paling lama di atas cap
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
	if _, err := tx.ExecContext(ctx, ins, string(rec.ID), rec.Code, rec.DisplayCode, captured.UTC()); err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}

	const trim = `
DELETE FROM scan_history
WHERE seq <= (SELECT s FROM (SELECT seq AS s FROM scan_history ORDER BY seq DESC LIMIT 1 OFFSET ?) t);`
	if _, err := tx.ExecContext(ctx, trim, r.cap); err != nil {
		return fmt.Errorf("trim history: %w", err)
	}
	return tx.Commit()
}

// List newest first
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
		if err := rows.Scan(&rec.ID, &rec.Code, &rec.DisplayCode, &rec.CapturedAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
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

// DeleteWhere hapus row yang code atau display_code-nya ada di codes
func (r *HistoryRepository) DeleteWhere(ctx context.Context, codes []string) (int, error) {
	if len(codes) == 0 {
		return 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	total := 0
	for len(codes) > 0 {
		batch := codes[:min(deleteBatch, len(codes))]
		codes = codes[len(batch):]

		ph := placeholders(len(batch))
		q := fmt.Sprintf(`DELETE FROM scan_history WHERE code IN (%s) OR display_code IN (%s)`, ph, ph)
		args := make([]any, 0, 2*len(batch))
		for _, c := range batch {
			args = append(args, c)
		}
		for _, c := range batch {
			args = append(args, c)
		}
		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return 0, fmt.Errorf("delete scans: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		total += int(n)
	}
	return total, tx.Commit()
}

func (r *HistoryRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scan_history`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
