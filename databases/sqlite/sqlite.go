package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/melkeydev/value-finder/databases/sqlxutil"
	"github.com/melkeydev/value-finder/types"
)

// integerPrecision is the digit count of the largest SQLite INTEGER.
const integerPrecision = 19

type SQLiteConnector struct {
	db *sqlx.DB
}

func NewSQLiteConnector(ctx context.Context, connectionString string) (*SQLiteConnector, error) {
	db, err := sqlx.Open("sqlite3", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	connector := &SQLiteConnector{
		db: db,
	}

	// Test the connection
	if err := connector.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return connector, nil
}

func (c *SQLiteConnector) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// ListDatabases reports the attached schemas. Enumerating the files of a
// server directory is done by ListDatabaseFiles instead.
func (c *SQLiteConnector) ListDatabases(ctx context.Context) ([]string, error) {
	names, err := sqlxutil.Names(ctx, c.db, "SELECT name FROM pragma_database_list WHERE name != 'temp'")
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	return names, nil
}

func (c *SQLiteConnector) ListTables(ctx context.Context) ([]string, error) {
	names, err := sqlxutil.Names(ctx, c.db, `
		SELECT name
		FROM sqlite_master
		WHERE type='table'
		AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return names, nil
}

// LoadColumns derives lengths and precisions from the declared column types,
// since SQLite has no information_schema.
func (c *SQLiteConnector) LoadColumns(ctx context.Context) ([]types.ColumnMeta, error) {
	raw, err := sqlxutil.ScanColumns(ctx, c.db, `
		SELECT p.type, p.name, NULL, NULL, m.name
		FROM sqlite_master m
		JOIN pragma_table_info(m.name) p
		WHERE m.type = 'table'
		AND m.name NOT LIKE 'sqlite_%'
		ORDER BY m.name, p.cid
	`)
	if err != nil {
		return nil, err
	}

	columns := make([]types.ColumnMeta, 0, len(raw))
	for _, r := range raw {
		columns = append(columns, ColumnMeta(r.Table, r.Name, r.DataType))
	}
	return columns, nil
}

// ColumnMeta classifies a declared SQLite column type such as VARCHAR(40)
// or NUMERIC(10,2).
func ColumnMeta(table, name, declared string) types.ColumnMeta {
	meta := types.ColumnMeta{
		Table:    table,
		Name:     name,
		DataType: types.ClassifyDataType(declared),
	}

	base := strings.ToLower(strings.TrimSpace(declared))
	var size *int
	if i := strings.IndexByte(base, '('); i >= 0 {
		args := strings.TrimSuffix(strings.TrimSpace(base[i+1:]), ")")
		first, _, _ := strings.Cut(args, ",")
		if n, err := strconv.Atoi(strings.TrimSpace(first)); err == nil {
			size = &n
		}
		base = strings.TrimSpace(base[:i])
	}

	switch {
	case base == "text" || base == "clob":
		meta.DataType = types.DataTypeChar
		unbounded := types.UnboundedLength
		meta.MaxCharLength = &unbounded
	case meta.DataType == types.DataTypeChar:
		if size == nil {
			unbounded := types.UnboundedLength
			size = &unbounded
		}
		meta.MaxCharLength = size
	case meta.DataType == types.DataTypeInteger:
		p := integerPrecision
		meta.NumericPrecision = &p
	case meta.DataType == types.DataTypeNumeric:
		meta.NumericPrecision = size
	}

	return meta
}

func (c *SQLiteConnector) Query(ctx context.Context, sqlQuery string) ([]types.Row, error) {
	return sqlxutil.Query(ctx, c.db, sqlxutil.ReadOnly, sqlQuery)
}

func (c *SQLiteConnector) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (c *SQLiteConnector) SelectFirst(projection, table, where, groupBy string) string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s GROUP BY %s ORDER BY 1 LIMIT 1", projection, table, where, groupBy)
}

func (c *SQLiteConnector) LikeOperator() string {
	return "LIKE"
}

func (c *SQLiteConnector) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// ListDatabaseFiles treats every file matching template, with placeholder
// standing for the database name, as one database.
func ListDatabaseFiles(template, placeholder string) ([]string, error) {
	path := strings.TrimPrefix(template, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	dir, file := filepath.Split(path)
	i := strings.Index(file, placeholder)
	if i < 0 {
		return nil, fmt.Errorf("connection string %q has no %s placeholder in its file name", template, placeholder)
	}
	prefix, suffix := file[:i], file[i+len(placeholder):]

	matches, err := filepath.Glob(filepath.Join(dir, prefix+"*"+suffix))
	if err != nil {
		return nil, fmt.Errorf("failed to list database files: %w", err)
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), prefix), suffix)
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}
