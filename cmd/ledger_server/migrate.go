package main

import (
	"fmt"

	"github.com/starkbank-ledger/internal/config"
	"github.com/starkbank-ledger/internal/logger"
	"github.com/starkbank-ledger/internal/platform/persistence"
	"github.com/urfave/cli/v2"
)

// migrate applies the PostgreSQL schema without starting the server
func migrate(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load configuration: %v", err), 1)
	}
	log := logger.NewLogger(cfg)

	path := cfg.Postgres.MigrationsPath
	if override := c.String("path"); override != "" {
		path = override
	}

	if err := persistence.RunMigrations(log, cfg.Postgres.URL, path); err != nil {
		log.Error("Migrations failed", "path", path, "error", err)
		return cli.Exit("migrations failed", 1)
	}
	return nil
}
