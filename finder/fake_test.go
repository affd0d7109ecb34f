package finder

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/melkeydev/value-finder/databases"
	"github.com/melkeydev/value-finder/types"
)

var fromTable = regexp.MustCompile(`FROM "([^"]+)"`)

type fakeTable struct {
	name    string
	columns []types.ColumnMeta
	row     *types.Row
	err     error
	delay   time.Duration
}

type fakeDatabase struct {
	tables []*fakeTable
}

func (d *fakeDatabase) table(name string) *fakeTable {
	for _, t := range d.tables {
		if t.name == name {
			return t
		}
	}
	return nil
}

// fakeServer is an in-memory databases.Connector that records how it is used.
type fakeServer struct {
	mu           sync.Mutex
	order        []string
	databases    map[string]*fakeDatabase
	connectErr   map[string]error
	catalogErr   map[string]error
	tablesErr    map[string]error
	catalogLoads map[string]int
	connects     int
	queries      []string
	queried      map[string]int

	open        atomic.Int64
	inflight    atomic.Int64
	maxInflight atomic.Int64
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		databases:    make(map[string]*fakeDatabase),
		connectErr:   make(map[string]error),
		catalogErr:   make(map[string]error),
		tablesErr:    make(map[string]error),
		catalogLoads: make(map[string]int),
		queried:      make(map[string]int),
	}
}

func (s *fakeServer) addTable(database string, t *fakeTable) {
	db, ok := s.databases[database]
	if !ok {
		db = &fakeDatabase{}
		s.databases[database] = db
		s.order = append(s.order, database)
	}
	for i := range t.columns {
		t.columns[i].Table = t.name
	}
	db.tables = append(db.tables, t)
}

func (s *fakeServer) Connect(ctx context.Context, database string) (databases.Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connectErr[database]; err != nil {
		return nil, err
	}
	if _, ok := s.databases[database]; !ok {
		return nil, fmt.Errorf("database %q does not exist", database)
	}
	s.connects++
	s.open.Add(1)
	return &fakeConn{server: s, name: database}, nil
}

func (s *fakeServer) ListDatabases(ctx context.Context) ([]string, error) {
	return append([]string(nil), s.order...), nil
}

func (s *fakeServer) queryCount(database, table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queried[database+"."+table]
}

type fakeConn struct {
	server *fakeServer
	name   string
	closed bool
}

func (c *fakeConn) QuoteIdentifier(name string) string { return `"` + name + `"` }

func (c *fakeConn) SelectFirst(projection, table, where, groupBy string) string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s GROUP BY %s ORDER BY 1 LIMIT 1", projection, table, where, groupBy)
}

func (c *fakeConn) LikeOperator() string { return "LIKE" }

func (c *fakeConn) Ping(ctx context.Context) error { return nil }

func (c *fakeConn) ListDatabases(ctx context.Context) ([]string, error) {
	return c.server.ListDatabases(ctx)
}

func (c *fakeConn) ListTables(ctx context.Context) ([]string, error) {
	if err := c.server.tablesErr[c.name]; err != nil {
		return nil, err
	}
	var names []string
	for _, t := range c.server.databases[c.name].tables {
		names = append(names, t.name)
	}
	return names, nil
}

func (c *fakeConn) LoadColumns(ctx context.Context) ([]types.ColumnMeta, error) {
	c.server.mu.Lock()
	c.server.catalogLoads[c.name]++
	err := c.server.catalogErr[c.name]
	c.server.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var columns []types.ColumnMeta
	for _, t := range c.server.databases[c.name].tables {
		columns = append(columns, t.columns...)
	}
	return columns, nil
}

func (c *fakeConn) Query(ctx context.Context, sql string) ([]types.Row, error) {
	if c.closed {
		return nil, errors.New("connection closed")
	}
	m := fromTable.FindStringSubmatch(sql)
	if m == nil {
		return nil, fmt.Errorf("syntax error near %q", sql)
	}

	s := c.server
	s.mu.Lock()
	s.queries = append(s.queries, sql)
	s.queried[c.name+"."+m[1]]++
	s.mu.Unlock()

	n := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		peak := s.maxInflight.Load()
		if n <= peak || s.maxInflight.CompareAndSwap(peak, n) {
			break
		}
	}

	t := s.databases[c.name].table(m[1])
	if t == nil {
		return nil, fmt.Errorf("invalid object name %q", m[1])
	}
	if t.delay > 0 {
		select {
		case <-time.After(t.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if t.err != nil {
		return nil, t.err
	}
	if t.row == nil {
		return nil, nil
	}
	return []types.Row{*t.row}, nil
}

func (c *fakeConn) Close() error {
	if !c.closed {
		c.closed = true
		c.server.open.Add(-1)
	}
	return nil
}

func intPtr(n int) *int { return &n }

func intColumn(name string, precision int) types.ColumnMeta {
	return types.ColumnMeta{Name: name, DataType: types.DataTypeInteger, NumericPrecision: intPtr(precision)}
}

func numericColumn(name string, precision int) types.ColumnMeta {
	return types.ColumnMeta{Name: name, DataType: types.DataTypeNumeric, NumericPrecision: intPtr(precision)}
}

func charColumn(name string, length int) types.ColumnMeta {
	return types.ColumnMeta{Name: name, DataType: types.DataTypeChar, MaxCharLength: intPtr(length)}
}

func makeRow(pairs ...any) *types.Row {
	r := &types.Row{}
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Columns = append(r.Columns, pairs[i].(string))
		r.Values = append(r.Values, pairs[i+1])
	}
	return r
}
