package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"foodcourt/internal/common/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Driver names registered by the imports above.
const (
	DriverPgx    = "pgx"
	DriverSQLite = "sqlite"
)

// Open connects to the configured driver, retrying the ping with a fixed delay until it succeeds,
// the attempts run out, or ctx is canceled.
func Open(ctx context.Context, st config.Storage, cfg config.DB) (*sql.DB, error) {
	var dsn string
	switch st.Driver {
	case DriverPgx:
		sslmode := cfg.SSLMode
		if sslmode == "" {
			sslmode = "disable"
		}
		dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Pass, cfg.Name, sslmode)
	case DriverSQLite:
		if dir := filepath.Dir(st.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create storage directory: %w", err)
			}
		}
		dsn = st.Path
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", st.Driver)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 2 * time.Second
	}
	const pingTTL = 5 * time.Second

	var (
		db  *sql.DB
		err error
	)
	for i := 1; i <= maxRetries; i++ {
		db, err = sql.Open(st.Driver, dsn)
		if err == nil {
			pctx, cancel := context.WithTimeout(ctx, pingTTL)
			err = db.PingContext(pctx)
			cancel()
			if err == nil {
				if st.Driver == DriverSQLite {
					// one writer; avoids SQLITE_BUSY between pooled connections
					db.SetMaxOpenConns(1)
				}
				return db, nil
			}
			_ = db.Close()
		}
		if i == maxRetries {
			break
		}
		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return nil, fmt.Errorf("db connect canceled: %w", ctx.Err())
		}
	}
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", maxRetries, err)
}
