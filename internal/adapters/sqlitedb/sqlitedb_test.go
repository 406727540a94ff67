package sqlitedb_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"aistep/internal/adapters/sqlitedb"
)

func openTestDB(t *testing.T) *sqlitedb.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlitedb.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDB_QueryReturnsDynamicColumns(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Query(ctx, `CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT, price REAL)`)
	require.NoError(t, err)
	_, err = db.Query(ctx, `INSERT INTO widgets (name, price) VALUES ('bolt', 1.5), ('nut', 0.25)`)
	require.NoError(t, err)

	rows, err := db.Query(ctx, `SELECT id, name, price FROM widgets ORDER BY id`)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "1", rows[0]["id"])
	require.Equal(t, "bolt", rows[0]["name"])
	require.Equal(t, "1.5", rows[0]["price"])
	require.Equal(t, "nut", rows[1]["name"])
}

func TestDB_QueryEmptyResultSet(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Query(ctx, `CREATE TABLE empty_table (id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)

	rows, err := db.Query(ctx, `SELECT * FROM empty_table`)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestDB_QueryRendersNullAsEmptyString(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Query(ctx, `CREATE TABLE sparse (id INTEGER PRIMARY KEY, label TEXT)`)
	require.NoError(t, err)
	_, err = db.Query(ctx, `INSERT INTO sparse (label) VALUES (NULL)`)
	require.NoError(t, err)

	rows, err := db.Query(ctx, `SELECT label FROM sparse`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "", rows[0]["label"])
}

func TestDB_QuerySyntaxErrorIsWrapped(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Query(context.Background(), `SELEKT * FROM nowhere`)
	require.Error(t, err)
}
