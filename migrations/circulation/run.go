package main

import (
	"context"
	"embed"
	"os"

	"github.com/ghuser/circulationledger/pkg/config"
	"github.com/ghuser/circulationledger/pkg/logger"
	"github.com/ghuser/circulationledger/pkg/migrator"
)

//go:embed *.sql
var MigrationsFS embed.FS

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg)
	if err := migrator.RunMigrations(context.Background(), cfg.DatabaseURL, MigrationsFS, log); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}
}
