package bootstrap

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	appconfig "github.com/wolfman30/crm-assistant/internal/config"
	"github.com/wolfman30/crm-assistant/internal/records"
	"github.com/wolfman30/crm-assistant/pkg/logging"
)

// BuildRecordStore selects the Postgres store when a pool is available and the
// in-memory store otherwise, seeded from cfg.SeedFile when set.
func BuildRecordStore(ctx context.Context, cfg *appconfig.Config, pool *pgxpool.Pool, logger *logging.Logger) (records.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if pool != nil {
		return records.NewPostgresRepository(pool), nil
	}

	repo := records.NewInMemoryRepository()
	path := strings.TrimSpace(cfg.SeedFile)
	if path == "" {
		logger.Warn("no DATABASE_URL or SEED_FILE configured; record store is empty")
		return repo, nil
	}
	n, err := SeedFromFile(repo, path)
	if err != nil {
		return nil, err
	}
	logger.Info("in-memory record store seeded", "path", path, "records", n)
	return repo, nil
}

// SeedFromFile loads a JSON array of records into repo and returns the row count.
func SeedFromFile(repo *records.InMemoryRepository, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("bootstrap: open seed file: %w", err)
	}
	defer f.Close()

	recs, err := records.LoadSeed(f)
	if err != nil {
		return 0, fmt.Errorf("bootstrap: %s: %w", path, err)
	}
	if err := repo.Add(recs...); err != nil {
		return 0, fmt.Errorf("bootstrap: seed %s: %w", path, err)
	}
	return len(recs), nil
}
