package database

import (
	"context"
	"fmt"
	"io/fs"
	"sort"

	"go.uber.org/zap"
)

const (
	createMigrationsTable = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name       TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`
	// Serialises concurrent replicas starting at the same time.
	migrationLockID = 7262318
)

// Migrate applies every *.sql file in fsys that is not yet recorded in
// schema_migrations, in name order, each in its own transaction.
func Migrate(ctx context.Context, db PgxIface, fsys fs.FS, log *zap.Logger) error {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	if _, err := db.Exec(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, name := range names {
		if err := applyMigration(ctx, db, fsys, name, log); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(ctx context.Context, db PgxIface, fsys fs.FS, name string, log *zap.Logger) error {
	script, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", name, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockID); err != nil {
		return fmt.Errorf("lock migration %s: %w", name, err)
	}

	var applied bool
	query := `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`
	if err := tx.QueryRow(ctx, query, name).Scan(&applied); err != nil {
		return fmt.Errorf("check migration %s: %w", name, err)
	}
	if applied {
		return nil
	}

	if _, err := tx.Exec(ctx, string(script)); err != nil {
		return fmt.Errorf("apply migration %s: %w", name, err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil {
		return fmt.Errorf("record migration %s: %w", name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit migration %s: %w", name, err)
	}
	log.Info("Migration applied", zap.String("name", name))
	return nil
}
