package databases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/melkeydev/value-finder/databases/mysql"
	"github.com/melkeydev/value-finder/databases/postgres"
	"github.com/melkeydev/value-finder/databases/sqlite"
	"github.com/melkeydev/value-finder/databases/sqlserver"
	"github.com/melkeydev/value-finder/types"
)

// DatabasePlaceholder is substituted with the target database name in a
// connection string template.
const DatabasePlaceholder = "{database}"

var ErrUnsupportedDatabase = errors.New("unsupported database type")

// Dialect covers the SQL differences the query synthesizer cares about.
type Dialect interface {
	QuoteIdentifier(name string) string
	// SelectFirst renders a query returning at most one row, ordered by
	// the first projected column.
	SelectFirst(projection, table, where, groupBy string) string
	LikeOperator() string
}

// Database is a single open connection bound to one database.
type Database interface {
	Dialect
	Ping(ctx context.Context) error
	ListDatabases(ctx context.Context) ([]string, error)
	ListTables(ctx context.Context) ([]string, error)
	LoadColumns(ctx context.Context) ([]types.ColumnMeta, error)
	Query(ctx context.Context, sql string) ([]types.Row, error)
	Close() error
}

// Connector opens connections to any database on one server.
type Connector interface {
	Connect(ctx context.Context, database string) (Database, error)
	ListDatabases(ctx context.Context) ([]string, error)
}

type openFunc func(ctx context.Context, dsn, database string) (Database, error)

type templateConnector struct {
	dbType    string
	template  string
	bootstrap string
	open      openFunc
}

// NewConnector builds a Connector for dbType. template is a connection string
// that may contain DatabasePlaceholder; bootstrap names the database used to
// enumerate the others.
func NewConnector(dbType, template, bootstrap string) (Connector, error) {
	c := &templateConnector{
		dbType:    dbType,
		template:  template,
		bootstrap: bootstrap,
	}

	switch dbType {
	case "sqlserver":
		c.open = func(ctx context.Context, dsn, _ string) (Database, error) {
			return sqlserver.NewSQLServerConnector(ctx, dsn)
		}
		if c.bootstrap == "" {
			c.bootstrap = "master"
		}
	case "mysql":
		c.open = func(ctx context.Context, dsn, database string) (Database, error) {
			return mysql.NewMySQLConnector(ctx, dsn, database)
		}
		if c.bootstrap == "" {
			c.bootstrap = "information_schema"
		}
	case "postgres":
		c.open = func(ctx context.Context, dsn, database string) (Database, error) {
			return postgres.NewPostgresConnector(ctx, dsn, database)
		}
		if c.bootstrap == "" {
			c.bootstrap = "postgres"
		}
	case "sqlite":
		c.open = func(ctx context.Context, dsn, _ string) (Database, error) {
			return sqlite.NewSQLiteConnector(ctx, dsn)
		}
		return &sqliteConnector{templateConnector: c}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDatabase, dbType)
	}

	return c, nil
}

// ConnectionString resolves the template for database.
func (c *templateConnector) ConnectionString(database string) string {
	return strings.ReplaceAll(c.template, DatabasePlaceholder, database)
}

func (c *templateConnector) Connect(ctx context.Context, database string) (Database, error) {
	db, err := c.open(ctx, c.ConnectionString(database), database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database %q: %w", c.dbType, database, err)
	}
	return db, nil
}

func (c *templateConnector) ListDatabases(ctx context.Context) ([]string, error) {
	db, err := c.Connect(ctx, c.bootstrap)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return db.ListDatabases(ctx)
}

// sqliteConnector treats every file matching the template as a database.
type sqliteConnector struct {
	*templateConnector
}

func (c *sqliteConnector) ListDatabases(ctx context.Context) ([]string, error) {
	return sqlite.ListDatabaseFiles(c.template, DatabasePlaceholder)
}
