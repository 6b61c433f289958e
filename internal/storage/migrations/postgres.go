package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"solana-copy-trader/internal/storage/postgres"
)

// RunPostgresMigrations brings the replication journal schema up to date.
// Every migration file is idempotent, so rerunning on startup is safe.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := fs.Glob(PostgresFS, "postgres/*.sql")
	if err != nil {
		return fmt.Errorf("listing postgres migrations: %w", err)
	}
	sort.Strings(files)

	for _, name := range files {
		sql, err := fs.ReadFile(PostgresFS, name)
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		if strings.TrimSpace(string(sql)) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("applying %s: %w", name, err)
		}
	}
	return nil
}
