// Package migration applies the db/migrations SQL files with
// golang-migrate, replacing the hand-rolled SQL-file runner the teacher
// used for its markets/bets/wallets schema. Grounded on
// jbrackens-AttaboyGO's internal/infra.RunMigrations: same
// migrate.New(sourceURL, dsn) call, same ErrNoChange tolerance, same
// version/dirty log line.
package migration

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Run applies every pending up migration found in dir against dsn.
func Run(dir, dsn string, logger *slog.Logger) error {
	sourceURL := fmt.Sprintf("file://%s", dir)

	m, err := migrate.New(sourceURL, dsn)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migrate up: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("migrate version: %w", err)
	}
	logger.Info("migrations applied", "version", version, "dirty", dirty)
	return nil
}

// Down rolls back every applied migration. Used by cmd/migrate's "down"
// subcommand; never called from the server binaries.
func Down(dir, dsn string, logger *slog.Logger) error {
	sourceURL := fmt.Sprintf("file://%s", dir)

	m, err := migrate.New(sourceURL, dsn)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Down(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migrate down: %w", err)
	}
	logger.Info("migrations rolled back")
	return nil
}

// FindDir walks up from the current working directory looking for
// db/migrations, so cmd/migrate works the same whether invoked from the
// module root or from within cmd/migrate during local development.
func FindDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "db/migrations"
	}
	for {
		candidate := dir + "/db/migrations"
		if info, statErr := os.Stat(candidate); statErr == nil && info.IsDir() {
			return candidate
		}
		parent := parentDir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "db/migrations"
}

func parentDir(dir string) string {
	for len(dir) > 1 && dir[len(dir)-1] != '/' {
		dir = dir[:len(dir)-1]
	}
	if len(dir) <= 1 {
		return dir
	}
	return dir[:len(dir)-1]
}
