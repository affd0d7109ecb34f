package sqlserver

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/melkeydev/value-finder/databases/sqlxutil"
	"github.com/melkeydev/value-finder/types"
)

// SystemDatabases are never scanned when no database filter is given.
var SystemDatabases = []string{"master", "tempdb", "model", "msdb"}

type SQLServerConnector struct {
	db *sqlx.DB
}

func NewSQLServerConnector(ctx context.Context, connectionString string) (*SQLServerConnector, error) {
	conn, err := mssql.NewConnector(connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	db := sqlx.NewDb(sql.OpenDB(conn), "sqlserver")
	db.SetMaxOpenConns(1)

	connector := &SQLServerConnector{
		db: db,
	}

	if err := connector.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return connector, nil
}

func (c *SQLServerConnector) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *SQLServerConnector) ListDatabases(ctx context.Context) ([]string, error) {
	names, err := sqlxutil.Names(ctx, c.db, "SELECT name FROM sys.databases ORDER BY database_id")
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	return sqlxutil.Exclude(names, SystemDatabases), nil
}

// ListTables returns user tables only.
func (c *SQLServerConnector) ListTables(ctx context.Context) ([]string, error) {
	names, err := sqlxutil.Names(ctx, c.db, "SELECT name FROM sys.objects WHERE type = 'U' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return names, nil
}

func (c *SQLServerConnector) LoadColumns(ctx context.Context) ([]types.ColumnMeta, error) {
	return sqlxutil.LoadColumns(ctx, c.db, `
		SELECT DATA_TYPE, COLUMN_NAME, CHARACTER_MAXIMUM_LENGTH, NUMERIC_PRECISION, TABLE_NAME
		FROM INFORMATION_SCHEMA.COLUMNS
		ORDER BY TABLE_NAME, ORDINAL_POSITION
	`)
}

// Query runs without a read-only transaction; the driver rejects that option.
func (c *SQLServerConnector) Query(ctx context.Context, sqlQuery string) ([]types.Row, error) {
	return sqlxutil.Query(ctx, c.db, nil, sqlQuery)
}

func (c *SQLServerConnector) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (c *SQLServerConnector) SelectFirst(projection, table, where, groupBy string) string {
	return fmt.Sprintf("SELECT TOP 1 %s FROM %s WHERE %s GROUP BY %s ORDER BY 1", projection, table, where, groupBy)
}

func (c *SQLServerConnector) LikeOperator() string {
	return "LIKE"
}

func (c *SQLServerConnector) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
