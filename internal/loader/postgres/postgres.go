// Package postgres writes the output tables to PostgreSQL through pgx.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/JakeFAU/supermovie/internal/loader"
	"github.com/JakeFAU/supermovie/internal/metrics"
	"github.com/JakeFAU/supermovie/internal/normalize"
)

type txBeginner interface {
	Begin(context.Context) (pgx.Tx, error)
	Close()
}

// Loader implements loader.Loader on a pgx pool.
type Loader struct {
	pool   txBeginner
	logger *zap.Logger
}

// New connects to the database at dsn.
func New(ctx context.Context, dsn string, logger *zap.Logger) (*Loader, error) {
	if dsn == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewWithPool(pool, logger)
}

// NewWithPool constructs a Loader from an existing pool (primarily for testing).
func NewWithPool(pool txBeginner, logger *zap.Logger) (*Loader, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{pool: pool, logger: logger}, nil
}

// Replace drops, recreates, and fills both tables in one transaction.
func (l *Loader) Replace(ctx context.Context, movies []normalize.MovieRow, casts []normalize.CastRow) error {
	tables := loader.Tables(movies, casts)

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := writeTables(ctx, tx, tables); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			l.logger.Warn("rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	for _, t := range tables {
		metrics.ObserveRowsLoaded(t.Name, len(t.Rows))
		l.logger.Info("table replaced", zap.String("table", t.Name), zap.Int("rows", len(t.Rows)))
	}
	return nil
}

func writeTables(ctx context.Context, tx pgx.Tx, tables []loader.Table) error {
	for _, t := range tables {
		if _, err := tx.Exec(ctx, loader.Postgres.DropTable(t)); err != nil {
			return fmt.Errorf("drop %s: %w", t.Name, err)
		}
		if _, err := tx.Exec(ctx, loader.Postgres.CreateTable(t)); err != nil {
			return fmt.Errorf("create %s: %w", t.Name, err)
		}
		insert := loader.Postgres.Insert(t)
		for i, row := range t.Rows {
			if _, err := tx.Exec(ctx, insert, row...); err != nil {
				return fmt.Errorf("insert %s row %d: %w", t.Name, i, err)
			}
		}
	}
	return nil
}

// Close closes the connection pool.
func (l *Loader) Close() error {
	l.pool.Close()
	return nil
}
