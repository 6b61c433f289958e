package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	chstore "solana-copy-trader/internal/storage/clickhouse"
)

// RunClickhouseMigrations brings the quote telemetry schema up to date and
// returns the connection for the observation store to reuse. The database
// named in the DSN must already exist; ClickHouse ships with "default".
func RunClickhouseMigrations(ctx context.Context, dsn string) (*chstore.Conn, error) {
	conn, err := chstore.NewConn(ctx, dsn)
	if err != nil {
		return nil, err
	}

	files, err := fs.Glob(ClickhouseFS, "clickhouse/*.sql")
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("listing clickhouse migrations: %w", err)
	}
	sort.Strings(files)

	for _, name := range files {
		sql, err := fs.ReadFile(ClickhouseFS, name)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		if err := checkSplittable(string(sql)); err != nil {
			conn.Close()
			return nil, fmt.Errorf("migration %s: %w", name, err)
		}
		// The driver executes one statement per Exec.
		for _, stmt := range splitStatements(string(sql)) {
			if err := conn.Exec(ctx, stmt); err != nil {
				conn.Close()
				return nil, fmt.Errorf("applying %s: %w", name, err)
			}
		}
	}
	return conn, nil
}

// splitStatements cuts a migration file into statements on semicolons,
// dropping blank lines and -- comments first. Migration files must keep
// semicolons out of string literals; checkSplittable enforces that.
func splitStatements(input string) []string {
	var kept []string
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		kept = append(kept, line)
	}

	var stmts []string
	for _, part := range strings.Split(strings.Join(kept, "\n"), ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// checkSplittable rejects migration SQL whose string literals contain a
// semicolon, which the line-based splitter would cut in half. Doubled
// quotes inside literals are skipped as the escape form.
func checkSplittable(sql string) error {
	inString := false
	for i := 0; i < len(sql); i++ {
		switch sql[i] {
		case '\'':
			if i+1 < len(sql) && sql[i+1] == '\'' {
				i++
				continue
			}
			inString = !inString
		case ';':
			if inString {
				return fmt.Errorf("semicolon inside a string literal at byte %d", i)
			}
		}
	}
	return nil
}
