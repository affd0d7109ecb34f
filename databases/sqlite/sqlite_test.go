package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/melkeydev/value-finder/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	c, err := NewSQLiteConnector(context.Background(), dbPath)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	for _, stmt := range []string{
		"CREATE TABLE people (id INTEGER PRIMARY KEY, name VARCHAR(40), bio TEXT, score NUMERIC(6,2), photo BLOB)",
		"INSERT INTO people VALUES (1, 'Rodrigo', 'likes chess', 12.5, NULL)",
		"CREATE TABLE tags (label CHAR(8))",
	} {
		_, err := c.db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return dbPath
}

func TestColumnMeta(t *testing.T) {
	intp := func(n int) *int { return &n }

	tests := []struct {
		declared  string
		dataType  types.DataType
		length    *int
		precision *int
	}{
		{"VARCHAR(40)", types.DataTypeChar, intp(40), nil},
		{"nvarchar( 12 )", types.DataTypeChar, intp(12), nil},
		{"CHAR", types.DataTypeChar, intp(types.UnboundedLength), nil},
		{"TEXT", types.DataTypeChar, intp(types.UnboundedLength), nil},
		{"INTEGER", types.DataTypeInteger, nil, intp(integerPrecision)},
		{"NUMERIC(6,2)", types.DataTypeNumeric, nil, intp(6)},
		{"DECIMAL", types.DataTypeNumeric, nil, nil},
		{"REAL", types.DataTypeOther, nil, nil},
		{"BLOB", types.DataTypeOther, nil, nil},
		{"", types.DataTypeOther, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.declared, func(t *testing.T) {
			meta := ColumnMeta("t", "c", tt.declared)
			assert.Equal(t, tt.dataType, meta.DataType)
			assert.Equal(t, tt.length, meta.MaxCharLength)
			assert.Equal(t, tt.precision, meta.NumericPrecision)
		})
	}
}

func TestSQLiteConnector(t *testing.T) {
	dbPath := createTestDB(t)
	c, err := NewSQLiteConnector(context.Background(), dbPath)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	t.Run("tables", func(t *testing.T) {
		tables, err := c.ListTables(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"people", "tags"}, tables)
	})

	t.Run("columns", func(t *testing.T) {
		columns, err := c.LoadColumns(context.Background())
		require.NoError(t, err)
		require.Len(t, columns, 6)

		assert.Equal(t, "people", columns[1].Table)
		assert.Equal(t, "name", columns[1].Name)
		assert.Equal(t, types.DataTypeChar, columns[1].DataType)
		assert.Equal(t, 40, *columns[1].MaxCharLength)
		assert.Equal(t, "tags", columns[5].Table)
	})

	t.Run("query keeps column order", func(t *testing.T) {
		rows, err := c.Query(context.Background(), "SELECT score, name, id FROM people")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, []string{"score", "name", "id"}, rows[0].Columns)
		assert.Equal(t, int64(1), rows[0].Values[2])
	})

	t.Run("query error", func(t *testing.T) {
		_, err := c.Query(context.Background(), "SELECT nope FROM people")
		require.Error(t, err)
	})
}

func TestListDatabaseFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"crm.db", "sales.db", "notes.txt", "sales.db-wal"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}

	names, err := ListDatabaseFiles("file:"+filepath.Join(dir, "{database}.db")+"?cache=shared", "{database}")
	require.NoError(t, err)
	assert.Equal(t, []string{"crm", "sales"}, names)

	_, err = ListDatabaseFiles(filepath.Join(dir, "fixed.db"), "{database}")
	require.Error(t, err)
}
