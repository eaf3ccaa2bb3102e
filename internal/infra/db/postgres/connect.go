package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/bryanwahyu/simtrack/internal/logger"
)

// Connect opens a small pool; the history table never holds more than a few
// hundred rows, so a handful of connections is plenty.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var version string
	if err := db.QueryRowContext(ctx2, `SHOW server_version`).Scan(&version); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres handshake: %w", err)
	}
	logger.Named("postgres").Debug().Str("server_version", version).Msg("connected")
	return db, nil
}
