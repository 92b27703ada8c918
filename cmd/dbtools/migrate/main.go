// cmd/dbtools/migrate/main.go
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codr1/biolink/internal/db"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	flags := flag.NewFlagSet("migrate", flag.ContinueOnError)
	var (
		dbPath         = flags.String("db", "", "Path to SQLite database")
		migrationsPath = flags.String("migrations", "", "Path to migrations directory (default: migrations built into the binary)")
		command        = flags.String("command", "", "Command to run (up, down, version, seed)")
	)
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *dbPath == "" || *command == "" {
		flags.Usage()
		return errors.New("-db and -command are required")
	}

	// Convert paths to absolute
	absDB, err := filepath.Abs(*dbPath)
	if err != nil {
		return fmt.Errorf("invalid database path: %w", err)
	}

	// Create database directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(absDB), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	if *command == "seed" {
		database, err := db.New(absDB)
		if err != nil {
			return err
		}
		defer database.Close()
		return database.SeedSystemThemes(log.Logger.WithContext(ctx))
	}

	m, closeFn, err := newMigrator(absDB, *migrationsPath)
	if err != nil {
		return err
	}
	defer closeFn()

	// Execute command
	switch *command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration up failed: %w", err)
		}
		log.Info().Str("db", absDB).Msg("Successfully ran migrations up")
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration down failed: %w", err)
		}
		log.Info().Str("db", absDB).Msg("Successfully ran migrations down")
	case "version":
		version, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("get version failed: %w", err)
		}
		fmt.Fprintf(stdout, "Version: %d, Dirty: %v\n", version, dirty)
	default:
		return fmt.Errorf("unknown command: %s", *command)
	}
	return nil
}

// newMigrator reads migrations from migrationsPath when set and from the
// embedded set otherwise.
func newMigrator(dbPath, migrationsPath string) (*migrate.Migrate, func(), error) {
	if migrationsPath != "" {
		absMigrations, err := filepath.Abs(migrationsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid migrations path: %w", err)
		}
		if _, err := os.Stat(absMigrations); os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("migrations directory does not exist: %s", absMigrations)
		}
		m, err := migrate.New("file://"+absMigrations, "sqlite3://"+dbPath)
		if err != nil {
			return nil, nil, fmt.Errorf("migration init failed: %w", err)
		}
		return m, func() { m.Close() }, nil
	}

	sqlDB, err := sql.Open("sqlite3", dbPath+"?_fk=1")
	if err != nil {
		return nil, nil, fmt.Errorf("error opening database: %w", err)
	}
	m, err := db.NewMigrator(sqlDB)
	if err != nil {
		sqlDB.Close()
		return nil, nil, err
	}
	return m, func() {
		m.Close()
		sqlDB.Close()
	}, nil
}
