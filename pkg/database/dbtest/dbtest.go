// Package dbtest starts a throwaway PostgreSQL for integration tests.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ghuser/circulationledger/pkg/database"
	"github.com/ghuser/circulationledger/pkg/logger"
	"github.com/ghuser/circulationledger/pkg/migrator"
)

var (
	once      sync.Once
	sharedDSN string
	initErr   error
)

// Setup starts a shared PostgreSQL container (once per test binary), applies
// the circulation migrations and returns a Database connected to it. Tests
// are skipped under -short or when no container runtime is reachable.
func Setup(t *testing.T, opts ...database.Option) *database.Database {
	t.Helper()

	if testing.Short() {
		t.Skip("dbtest: skipping PostgreSQL integration test in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	once.Do(func() {
		sharedDSN, initErr = startContainerAndMigrate()
	})
	if initErr != nil {
		t.Fatalf("dbtest: failed to set up test DB: %v", initErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.NewPool(ctx, sharedDSN, logger.Nop(), opts...)
	if err != nil {
		t.Fatalf("dbtest: connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// DSN returns the shared container's connection string. Valid after Setup.
func DSN() string {
	return sharedDSN
}

func startContainerAndMigrate() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "circulation",
			"POSTGRES_PASSWORD": "circulation",
			"POSTGRES_DB":       "circulation",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("get mapped port: %w", err)
	}

	dsn := fmt.Sprintf("postgres://circulation:circulation@%s:%s/circulation?sslmode=disable", host, port.Port())

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return "", fmt.Errorf("sql.Open: %w", err)
	}
	defer db.Close() //nolint:errcheck

	if err := db.PingContext(ctx); err != nil {
		return "", fmt.Errorf("db ping: %w", err)
	}

	if err := migrator.Up(ctx, db, os.DirFS(migrationsPath()), logger.Nop()); err != nil {
		return "", err
	}

	return dsn, nil
}

// migrationsPath resolves migrations/circulation relative to this file.
func migrationsPath() string {
	_, currentFile, _, _ := runtime.Caller(0)
	// currentFile is .../pkg/database/dbtest/dbtest.go
	return filepath.Join(filepath.Dir(currentFile), "..", "..", "..", "migrations", "circulation")
}
