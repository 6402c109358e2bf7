// Package sqlite writes the output tables to a single-file SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/JakeFAU/supermovie/internal/loader"
	"github.com/JakeFAU/supermovie/internal/metrics"
	"github.com/JakeFAU/supermovie/internal/normalize"
)

// Loader implements loader.Loader on SQLite.
type Loader struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// Open creates or opens the database file at path.
func Open(path string, logger *zap.Logger) (*Loader, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragma: %w", err)
	}
	return &Loader{db: db, path: path, logger: logger}, nil
}

// Replace drops, recreates, and fills both tables in one transaction.
func (l *Loader) Replace(ctx context.Context, movies []normalize.MovieRow, casts []normalize.CastRow) error {
	return l.replace(ctx, loader.Tables(movies, casts))
}

func (l *Loader) replace(ctx context.Context, tables []loader.Table) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := writeTables(ctx, tx, tables); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			l.logger.Warn("rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	for _, t := range tables {
		metrics.ObserveRowsLoaded(t.Name, len(t.Rows))
		l.logger.Info("table replaced",
			zap.String("path", l.path),
			zap.String("table", t.Name),
			zap.Int("rows", len(t.Rows)))
	}
	return nil
}

func writeTables(ctx context.Context, tx *sql.Tx, tables []loader.Table) error {
	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, loader.SQLite.DropTable(t)); err != nil {
			return fmt.Errorf("drop %s: %w", t.Name, err)
		}
		if _, err := tx.ExecContext(ctx, loader.SQLite.CreateTable(t)); err != nil {
			return fmt.Errorf("create %s: %w", t.Name, err)
		}
		if len(t.Rows) == 0 {
			continue
		}
		stmt, err := tx.PrepareContext(ctx, loader.SQLite.Insert(t))
		if err != nil {
			return fmt.Errorf("prepare insert %s: %w", t.Name, err)
		}
		for i, row := range t.Rows {
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				_ = stmt.Close()
				return fmt.Errorf("insert %s row %d: %w", t.Name, i, err)
			}
		}
		if err := stmt.Close(); err != nil {
			return fmt.Errorf("close insert %s: %w", t.Name, err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (l *Loader) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}
