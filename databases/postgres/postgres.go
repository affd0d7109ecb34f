package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/melkeydev/value-finder/databases/sqlxutil"
	"github.com/melkeydev/value-finder/types"
)

// SystemDatabases are never scanned when no database filter is given.
// Template databases are filtered by the listing query itself.
var SystemDatabases = []string{"postgres"}

// Both catalog queries stay in the current schema so every table name they
// return resolves unqualified.
const (
	tablesQuery = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_type = 'BASE TABLE'
		AND table_schema = current_schema()
		ORDER BY table_name
	`
	columnsQuery = `
		SELECT data_type, column_name, character_maximum_length, numeric_precision, table_name
		FROM information_schema.columns
		WHERE table_schema = current_schema()
		ORDER BY table_name, ordinal_position
	`
)

type PostgresConnector struct {
	db *sqlx.DB
}

// ParseConfig parses connectionString and points it at database, replacing
// any database the connection string already names.
func ParseConfig(connectionString, database string) (*pgx.ConnConfig, error) {
	config, err := pgx.ParseConfig(connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if database != "" {
		config.Database = database
	}

	config.PreferSimpleProtocol = true
	return config, nil
}

func NewPostgresConnector(ctx context.Context, connectionString, database string) (*PostgresConnector, error) {
	config, err := ParseConfig(connectionString, database)
	if err != nil {
		return nil, err
	}

	db := sqlx.NewDb(stdlib.OpenDB(*config), "pgx")
	db.SetMaxOpenConns(1)

	connector := &PostgresConnector{
		db: db,
	}

	// Test the connection
	if err := connector.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return connector, nil
}

func (c *PostgresConnector) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *PostgresConnector) ListDatabases(ctx context.Context) ([]string, error) {
	names, err := sqlxutil.Names(ctx, c.db, "SELECT datname FROM pg_database WHERE NOT datistemplate ORDER BY datname")
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	return sqlxutil.Exclude(names, SystemDatabases), nil
}

func (c *PostgresConnector) ListTables(ctx context.Context) ([]string, error) {
	names, err := sqlxutil.Names(ctx, c.db, tablesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return names, nil
}

func (c *PostgresConnector) LoadColumns(ctx context.Context) ([]types.ColumnMeta, error) {
	return sqlxutil.LoadColumns(ctx, c.db, columnsQuery)
}

func (c *PostgresConnector) Query(ctx context.Context, sqlQuery string) ([]types.Row, error) {
	return sqlxutil.Query(ctx, c.db, sqlxutil.ReadOnly, sqlQuery)
}

func (c *PostgresConnector) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (c *PostgresConnector) SelectFirst(projection, table, where, groupBy string) string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s GROUP BY %s ORDER BY 1 LIMIT 1", projection, table, where, groupBy)
}

// LikeOperator is ILIKE since LIKE is case sensitive on PostgreSQL.
func (c *PostgresConnector) LikeOperator() string {
	return "ILIKE"
}

func (c *PostgresConnector) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
