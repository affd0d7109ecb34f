package mysql

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/melkeydev/value-finder/databases/sqlxutil"
	"github.com/melkeydev/value-finder/types"
)

// SystemDatabases are never scanned when no database filter is given.
var SystemDatabases = []string{"information_schema", "mysql", "performance_schema", "sys"}

type MySQLConnector struct {
	db *sqlx.DB
}

// DSN rewrites connectionString to target database, replacing any database
// the DSN already names.
func DSN(connectionString, database string) (string, error) {
	cfg, err := mysql.ParseDSN(connectionString)
	if err != nil {
		return "", fmt.Errorf("failed to parse connection string: %w", err)
	}
	if database != "" {
		cfg.DBName = database
	}
	return cfg.FormatDSN(), nil
}

// NewMySQLConnector opens a single connection to database.
func NewMySQLConnector(ctx context.Context, connectionString, database string) (*MySQLConnector, error) {
	dsn, err := DSN(connectionString, database)
	if err != nil {
		return nil, err
	}

	// Open the database connection
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	connector := &MySQLConnector{
		db: db,
	}

	if err := connector.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return connector, nil
}

func (c *MySQLConnector) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *MySQLConnector) ListDatabases(ctx context.Context) ([]string, error) {
	names, err := sqlxutil.Names(ctx, c.db, "SELECT schema_name FROM information_schema.schemata ORDER BY schema_name")
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	return sqlxutil.Exclude(names, SystemDatabases), nil
}

func (c *MySQLConnector) ListTables(ctx context.Context) ([]string, error) {
	names, err := sqlxutil.Names(ctx, c.db, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_type = 'BASE TABLE'
		AND table_schema = DATABASE()
		ORDER BY table_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return names, nil
}

func (c *MySQLConnector) LoadColumns(ctx context.Context) ([]types.ColumnMeta, error) {
	return sqlxutil.LoadColumns(ctx, c.db, `
		SELECT data_type, column_name, character_maximum_length, numeric_precision, table_name
		FROM information_schema.columns
		WHERE table_schema = DATABASE()
		ORDER BY table_name, ordinal_position
	`)
}

func (c *MySQLConnector) Query(ctx context.Context, sqlQuery string) ([]types.Row, error) {
	return sqlxutil.Query(ctx, c.db, sqlxutil.ReadOnly, sqlQuery)
}

func (c *MySQLConnector) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (c *MySQLConnector) SelectFirst(projection, table, where, groupBy string) string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s GROUP BY %s ORDER BY 1 LIMIT 1", projection, table, where, groupBy)
}

func (c *MySQLConnector) LikeOperator() string {
	return "LIKE"
}

func (c *MySQLConnector) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
