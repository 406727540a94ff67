// Package dbcap defines the database capability referenced by spec.md §6
// as one of the lazily-instantiated runtime collaborators. It backs
// table-oriented query/assertion intents when their target names a
// database table rather than a page element. The core depends only on
// this interface; the reference implementation (backed by
// modernc.org/sqlite) lives in internal/adapters/sqlitedb.
package dbcap

import "context"

// Row is one result row, column name to rendered string value.
type Row map[string]string

// Capability runs a read query against a configured database and returns
// its result set.
type Capability interface {
	Query(ctx context.Context, query string, args ...any) ([]Row, error)
}
