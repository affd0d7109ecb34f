// Package finder searches every table of one or more databases for a literal
// value.
//
// A search enumerates (database, table) work units and runs them on a fixed
// pool of workers. Each worker keeps one connection open and reuses it while
// consecutive units target the same database. For every unit the cached
// schema catalog narrows the table to the columns able to hold the value, a
// single existence query is issued, and the returned row is verified again in
// Go before it is reported.
package finder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/melkeydev/value-finder/databases"
	"github.com/melkeydev/value-finder/types"
	"golang.org/x/time/rate"
)

// Progress is reported once per dispatched unit, from the dispatching goroutine.
type Progress struct {
	Database      string
	DatabaseIndex int
	DatabaseTotal int
	Table         string
	TableIndex    int
	TableTotal    int
}

var ErrNoValue = errors.New("search value is not set")

type Option func(*Finder)

// WithThreads sets the worker pool size. Values below one mean one.
func WithThreads(n int) Option {
	return func(f *Finder) {
		if n < 1 {
			n = 1
		}
		f.threads = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(f *Finder) {
		if logger != nil {
			f.logger = logger
		}
	}
}

func WithProgress(fn func(Progress)) Option {
	return func(f *Finder) {
		f.progress = fn
	}
}

// WithUnitTimeout bounds each table query. A unit that times out counts as failed.
func WithUnitTimeout(d time.Duration) Option {
	return func(f *Finder) {
		f.unitTimeout = d
	}
}

// WithQueryRate caps the table queries issued per second across all workers.
// Zero or negative disables the cap.
func WithQueryRate(perSecond float64) Option {
	return func(f *Finder) {
		f.queryRate = perSecond
	}
}

type Finder struct {
	connector   databases.Connector
	threads     int
	logger      *slog.Logger
	progress    func(Progress)
	unitTimeout time.Duration
	queryRate   float64
}

func New(connector databases.Connector, opts ...Option) *Finder {
	f := &Finder{
		connector: connector,
		threads:   1,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Request describes one search. Empty Databases means every non-system
// database; empty Tables means every user table. A non-empty Tables list is
// applied to each scanned database alike.
type Request struct {
	Value      Value
	Databases  []string
	Tables     []string
	ExactMatch bool
}

type Report struct {
	RunID            string              `json:"run_id"`
	Matches          []types.MatchResult `json:"matches"`
	Units            int                 `json:"units"`
	Skipped          int                 `json:"skipped"`
	Failed           int                 `json:"failed"`
	SkippedDatabases []string            `json:"skipped_databases,omitempty"`
	Elapsed          time.Duration       `json:"elapsed"`
}

// Find runs a search and blocks until every dispatched unit has completed.
//
// Errors of a single unit never fail the search; they are counted in
// Report.Failed. Listing databases, and connecting to or loading the catalog
// of a database the caller named explicitly, fail the whole search. When ctx
// is cancelled no further units are dispatched, units already running finish,
// and the partial report is returned along with ctx's error.
func (f *Finder) Find(ctx context.Context, req Request) (*Report, error) {
	if req.Value.Kind() == 0 {
		return nil, ErrNoValue
	}

	runID := uuid.NewString()
	logger := f.logger.With("run_id", runID)
	start := time.Now()

	explicit := len(req.Databases) > 0
	dbNames := slices.Clone(req.Databases)
	if !explicit {
		var err error
		dbNames, err = f.connector.ListDatabases(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list databases: %w", err)
		}
	}
	if len(req.Tables) > 0 && len(dbNames) > 1 {
		logger.Debug("table filter applies to every database", "tables", req.Tables)
	}

	r := &run{
		connector:   f.connector,
		logger:      logger,
		unitTimeout: f.unitTimeout,
		value:       req.Value,
		exactMatch:  req.ExactMatch,
		pool:        newPool(f.threads),
		catalog:     NewCatalog(),
	}
	if f.queryRate > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(f.queryRate), 1)
	}
	defer r.pool.close(logger)

	logger.Info("search started", "value", req.Value.String(), "kind", req.Value.Kind().String(),
		"databases", len(dbNames), "threads", f.threads, "exact_match", req.ExactMatch)

	report := &Report{RunID: runID}
	runErr := f.schedule(ctx, r, dbNames, req.Tables, explicit, report)

	if err := r.pool.wait(); err != nil {
		logger.Error("completion barrier", "error", err)
	}

	report.Matches = r.results.Snapshot()
	report.Units = int(r.units.Load())
	report.Skipped = int(r.skipped.Load())
	report.Failed = int(r.failed.Load())
	report.Elapsed = time.Since(start)

	if runErr != nil {
		if ctx.Err() != nil {
			logger.Warn("search cancelled", "matches", len(report.Matches), "units", report.Units)
			return report, runErr
		}
		return nil, runErr
	}

	logger.Info("search finished", "matches", len(report.Matches), "units", report.Units,
		"skipped", report.Skipped, "failed", report.Failed, "elapsed", report.Elapsed)
	return report, nil
}

// schedule enumerates the work and feeds it to the pool. The catalog of a
// database is loaded before any of its units is dispatched.
func (f *Finder) schedule(ctx context.Context, r *run, dbNames, tables []string, explicit bool, report *Report) error {
	for i, database := range dbNames {
		if err := ctx.Err(); err != nil {
			return err
		}

		dbTables, err := f.prepare(ctx, r.catalog, database, tables)
		if err != nil {
			if explicit {
				return err
			}
			r.logger.Warn("skipping database", "database", database, "error", err)
			report.SkippedDatabases = append(report.SkippedDatabases, database)
			continue
		}

		for j, table := range dbTables {
			if f.progress != nil {
				f.progress(Progress{
					Database:      database,
					DatabaseIndex: i + 1,
					DatabaseTotal: len(dbNames),
					Table:         table,
					TableIndex:    j + 1,
					TableTotal:    len(dbTables),
				})
			}
			if err := r.dispatch(ctx, WorkUnit{Database: database, Table: table}); err != nil {
				return err
			}
		}
	}
	return nil
}

// prepare loads the catalog of database and resolves its table list.
func (f *Finder) prepare(ctx context.Context, catalog *Catalog, database string, tables []string) ([]string, error) {
	conn, err := f.connector.Connect(ctx, database)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if _, err := catalog.Load(ctx, database, conn); err != nil {
		return nil, err
	}

	if len(tables) > 0 {
		return slices.Clone(tables), nil
	}

	names, err := conn.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables of database %q: %w", database, err)
	}
	return names, nil
}

// ListDatabases returns the databases a search without a filter would scan.
func (f *Finder) ListDatabases(ctx context.Context) ([]string, error) {
	return f.connector.ListDatabases(ctx)
}

// ListTables returns the user tables of database.
func (f *Finder) ListTables(ctx context.Context, database string) ([]string, error) {
	conn, err := f.connector.Connect(ctx, database)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	return conn.ListTables(ctx)
}
