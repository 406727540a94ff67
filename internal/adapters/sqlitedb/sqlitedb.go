// Package sqlitedb is the reference database capability binding backed
// by modernc.org/sqlite (the teacher's own pure-Go SQLite driver, used
// for cmd/query-kb and internal/shards/system's learning store), grounded
// on cmd/query-kb/main.go's database/sql "sql.Open + dynamic Columns/Scan"
// query shape. It implements dbcap.Capability for the query-database and
// verify-db-row-count intents.
package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"aistep/internal/dbcap"
)

// DB wraps a database/sql handle over the sqlite driver as a
// dbcap.Capability.
type DB struct {
	conn *sql.DB
}

// Open opens (creating if absent) the sqlite database at path.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Query runs a read query and renders every column to its string form,
// the same dynamic Columns()/Scan() shape as the teacher's queryDB
// helper, generalised to an arbitrary table instead of knowledge_atoms.
func (d *DB) Query(ctx context.Context, query string, args ...any) ([]dbcap.Row, error) {
	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	var out []dbcap.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(dbcap.Row, len(cols))
		for i, col := range cols {
			row[col] = renderValue(values[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Close releases the underlying connection pool.
func (d *DB) Close() error { return d.conn.Close() }

func renderValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
