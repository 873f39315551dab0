package perflog

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
)

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// SQLSink appends entries to a Postgres table through database/sql.
type SQLSink struct {
	db    *sql.DB
	table string
}

// NewSQLSink creates a sink writing to table (default "performance_logs").
func NewSQLSink(db *sql.DB, table string) (*SQLSink, error) {
	if db == nil {
		return nil, fmt.Errorf("perflog: sql db required")
	}
	if table == "" {
		table = "performance_logs"
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("perflog: invalid table name %q", table)
	}
	return &SQLSink{db: db, table: table}, nil
}

func (s *SQLSink) Name() string { return "postgres" }

// Write inserts one row.
func (s *SQLSink) Write(ctx context.Context, entry Entry) error {
	entry = entry.withDefaults()

	query := `
		INSERT INTO ` + s.table + ` (
			id, function_name, duration_ms, status, tenant_id,
			payload, response, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.FunctionName,
		entry.DurationMS,
		entry.Status,
		nullString(entry.TenantID),
		entry.Payload,
		entry.Response,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("perflog: failed to insert entry: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
