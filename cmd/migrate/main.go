package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"

	"donasi-be/internal/config"
	"donasi-be/internal/db"
	"donasi-be/internal/logger"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// Overridden in tests.
var (
	gooseUp      = goose.Up
	gooseDown    = goose.Down
	gooseStatus  = goose.Status
	gooseVersion = goose.GetDBVersion
)

func main() {
	mode := flag.String("mode", "up", "migration mode: up, down or status")
	dir := flag.String("dir", "./migrations", "directory holding goose *.sql migrations")
	flag.Parse()

	defer logger.Sync()

	database, err := open()
	if err != nil {
		logger.L().Fatal("Failed to open database", zap.Error(err))
	}
	defer database.Close()

	if err := run(database, *mode, *dir); err != nil {
		logger.L().Fatal("Migration failed", zap.Error(err))
	}
}

// open prefers DB_URL and falls back to the DB_* settings the server uses.
func open() (*sql.DB, error) {
	if dbURL := os.Getenv("DB_URL"); dbURL != "" {
		database, err := sql.Open("postgres", dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect db: %w", err)
		}
		return database, nil
	}
	return db.NewDatabase(config.LoadConfig())
}

func run(database *sql.DB, mode, migrationsDir string) error {
	goose.SetLogger(gooseLogger{logger.L().Sugar()})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	switch mode {
	case "up":
		return migrateUp(database, migrationsDir)
	case "down":
		return migrateDown(database, migrationsDir)
	case "status":
		if err := gooseStatus(database, migrationsDir); err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown mode: %s (use 'up', 'down' or 'status')", mode)
	}
}

func migrateUp(database *sql.DB, dir string) error {
	log := logger.L()

	from, err := gooseVersion(database)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	if err := gooseUp(database, dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	to, err := gooseVersion(database)
	if err != nil {
		return fmt.Errorf("failed to get final version: %w", err)
	}

	log.Info("All migrations applied", zap.Int64("from_version", from), zap.Int64("to_version", to))
	return nil
}

func migrateDown(database *sql.DB, dir string) error {
	if err := gooseDown(database, dir); err != nil {
		return fmt.Errorf("failed to roll back: %w", err)
	}

	version, err := gooseVersion(database)
	if err != nil {
		return fmt.Errorf("failed to get version: %w", err)
	}

	logger.L().Info("Rollback successful", zap.Int64("version", version))
	return nil
}

// gooseLogger routes goose output through zap.
type gooseLogger struct {
	s *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.s.Infof(strings.TrimSuffix(format, "\n"), v...)
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.s.Fatalf(strings.TrimSuffix(format, "\n"), v...)
}
