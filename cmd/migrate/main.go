package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/wolfman30/crm-assistant/cmd/mainconfig"
	appmigrations "github.com/wolfman30/crm-assistant/migrations"
	"github.com/wolfman30/crm-assistant/pkg/logging"
)

// Usage: migrate [up | down | version | force <version>]
func main() {
	mainconfig.LoadEnvFiles()
	logger := logging.New(os.Getenv("LOG_LEVEL"))

	cmd, err := parseCommand(os.Args[1:])
	if err != nil {
		logger.Error("invalid arguments", "error", err)
		os.Exit(2)
	}

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	m, closeFn, err := newMigrator(databaseURL)
	if err != nil {
		logger.Error("failed to create migrator", "error", err)
		os.Exit(1)
	}
	defer closeFn()

	if err := cmd.run(m); err != nil {
		logger.Error("migration failed", "command", cmd.name, "error", err)
		os.Exit(1)
	}
}

type command struct {
	name    string
	version int
}

func parseCommand(args []string) (command, error) {
	if len(args) == 0 {
		return command{name: "up"}, nil
	}
	switch args[0] {
	case "up", "down", "version":
		return command{name: args[0]}, nil
	case "force":
		if len(args) < 2 {
			return command{}, errors.New("force requires a version")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return command{}, fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		return command{name: "force", version: v}, nil
	default:
		return command{}, fmt.Errorf("unknown command %q", args[0])
	}
}

func (c command) run(m *migrate.Migrate) error {
	switch c.name {
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		fmt.Println("migrations rolled back")
	case "version":
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("no migrations applied")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("version %d (dirty=%t)\n", v, dirty)
	case "force":
		if err := m.Force(c.version); err != nil {
			return err
		}
		fmt.Printf("forced version to %d\n", c.version)
	default:
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		fmt.Println("migrations complete")
	}
	return nil
}

func newMigrator(databaseURL string) (*migrate.Migrate, func(), error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping db: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db driver: %w", err)
	}
	srcDriver, err := iofs.New(appmigrations.FS, ".")
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("source driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", srcDriver, "postgres", dbDriver)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, func() { _, _ = m.Close() }, nil
}
