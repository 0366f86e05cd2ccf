// Package main is a standalone CLI that applies or rolls back the
// db/migrations SQL files against the configured database, replacing the
// teacher's runMigrations call that used to happen inline at server boot.
package main

import (
	"log/slog"
	"os"

	"github.com/evetabi/prediction/internal/config"
	"github.com/evetabi/prediction/internal/migration"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg := config.MustLoad()
	dir := migration.FindDir()

	direction := "up"
	if len(os.Args) > 1 {
		direction = os.Args[1]
	}

	var err error
	switch direction {
	case "up":
		err = migration.Run(dir, cfg.DB.DSN, logger)
	case "down":
		err = migration.Down(dir, cfg.DB.DSN, logger)
	default:
		logger.Error("unknown migrate subcommand", "arg", direction, "usage", "migrate [up|down]")
		os.Exit(2)
	}

	if err != nil {
		logger.Error("migration failed", "direction", direction, "err", err)
		os.Exit(1)
	}
}
