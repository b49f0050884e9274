package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/ghuser/circulationledger/pkg/logger"
)

// RunMigrations applies all pending goose migrations in files against dbURL
// and logs each applied version.
func RunMigrations(ctx context.Context, dbURL string, files fs.FS, log logger.Logger) error {
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	return Up(ctx, db, files, log)
}

// Up applies pending migrations on an open connection.
func Up(ctx context.Context, db *sql.DB, files fs.FS, log logger.Logger) error {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, files)
	if err != nil {
		return fmt.Errorf("failed to create goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to up migrations: %w", err)
	}
	for _, r := range results {
		log.InfoContext(ctx, "migration applied",
			"version", r.Source.Version,
			"path", r.Source.Path,
			"duration_ms", r.Duration.Milliseconds(),
		)
	}
	if len(results) == 0 {
		log.InfoContext(ctx, "migrations up to date")
	}
	return nil
}
