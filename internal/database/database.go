// Package database centralises sqlx connection helpers.  The default driver
// is go-sql-driver/mysql, which also works with MariaDB and Cockroach when
// configured for the MySQL wire protocol.
//
// Public entry points:
//
//	Open(dsn)                      – quick helper with conservative pool sizes.
//	OpenWithOptions(ctx, dsn, opt) – pool sizes plus a bounded ping retry.
//
// Both helpers Ping the database before returning so callers can fail fast
// during bootstrap.  Callers should Close() the returned *sqlx.DB when no
// longer needed.
package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Options tunes the pool and the boot-time ping.
type Options struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	Attempts    int           // ping attempts before giving up
	Backoff     time.Duration // wait between attempts, doubled each time
}

// DefaultOptions are the pool sizes Open uses: 15 max open, 5 idle, and a
// 30-minute connection lifetime.
var DefaultOptions = Options{
	MaxOpen:     15,
	MaxIdle:     5,
	MaxLifetime: 30 * time.Minute,
	Attempts:    3,
	Backoff:     500 * time.Millisecond,
}

// Open returns a *sqlx.DB with DefaultOptions.
func Open(dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(context.Background(), dsn, DefaultOptions)
}

// OpenWithOptions opens a pool and pings it, retrying with backoff so the
// service survives a database that starts a few seconds after it.
func OpenWithOptions(ctx context.Context, dsn string, opt Options) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	configure(db, opt)

	if err := pingWithRetry(ctx, db, opt); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func configure(db *sqlx.DB, opt Options) {
	if opt.MaxOpen > 0 {
		db.SetMaxOpenConns(opt.MaxOpen)
	}
	if opt.MaxIdle > 0 {
		db.SetMaxIdleConns(opt.MaxIdle)
	}
	if opt.MaxLifetime > 0 {
		db.SetConnMaxLifetime(opt.MaxLifetime)
	}
}

func pingWithRetry(ctx context.Context, db *sqlx.DB, opt Options) error {
	attempts := opt.Attempts
	if attempts < 1 {
		attempts = 1
	}
	wait := opt.Backoff

	var err error
	for i := 1; i <= attempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		zap.S().Warnw("database ping failed, retrying", "attempt", i, "wait", wait, "err", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	return fmt.Errorf("database: ping after %d attempts: %w", attempts, err)
}
