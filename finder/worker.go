package finder

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/melkeydev/value-finder/databases"
	"github.com/melkeydev/value-finder/types"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// WorkUnit is one table of one database to scan.
type WorkUnit struct {
	Database string
	Table    string
}

// worker owns at most one open connection, bound to database. A worker
// record is only touched by whoever currently holds its id.
type worker struct {
	id       int
	database string
	conn     databases.Database
}

// bind makes sure the worker is connected to database, closing a connection
// to any other database first.
func (w *worker) bind(ctx context.Context, connector databases.Connector, database string) error {
	if w.conn != nil && w.database == database {
		return nil
	}
	w.release()

	conn, err := connector.Connect(ctx, database)
	if err != nil {
		return err
	}
	w.conn = conn
	w.database = database
	return nil
}

func (w *worker) release() error {
	if w.conn == nil {
		return nil
	}
	err := w.conn.Close()
	w.conn = nil
	w.database = ""
	return err
}

// pool is a fixed set of workers handed out through a free list. The idle
// channel holds the ids of workers not running a unit.
type pool struct {
	workers []*worker
	idle    chan int
	group   errgroup.Group
}

func newPool(size int) *pool {
	p := &pool{
		workers: make([]*worker, size),
		idle:    make(chan int, size),
	}
	for i := range p.workers {
		p.workers[i] = &worker{id: i}
		p.idle <- i
	}
	return p
}

func (p *pool) size() int { return len(p.workers) }

// acquire blocks until a worker is free or ctx is done.
func (p *pool) acquire(ctx context.Context) (*worker, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case id := <-p.idle:
		return p.workers[id], nil
	}
}

func (p *pool) put(w *worker) {
	p.idle <- w.id
}

// wait is the completion barrier: it returns once every dispatched unit has
// finished and all workers are back on the free list.
func (p *pool) wait() error {
	_ = p.group.Wait()
	if n := len(p.idle); n != p.size() {
		return fmt.Errorf("worker pool not drained: %d of %d workers idle", n, p.size())
	}
	return nil
}

func (p *pool) close(logger *slog.Logger) {
	for _, w := range p.workers {
		if err := w.release(); err != nil {
			logger.Debug("failed to close worker connection", "worker", w.id, "error", err)
		}
	}
}

// run is the state of a single Find call.
type run struct {
	connector   databases.Connector
	logger      *slog.Logger
	unitTimeout time.Duration
	limiter     *rate.Limiter
	value       Value
	exactMatch  bool

	pool    *pool
	catalog *Catalog
	results ResultSet

	units   atomic.Int64
	skipped atomic.Int64
	failed  atomic.Int64
}

// dispatch hands unit to the next idle worker. With a single worker the unit
// runs on the calling goroutine.
func (r *run) dispatch(ctx context.Context, unit WorkUnit) error {
	w, err := r.pool.acquire(ctx)
	if err != nil {
		return err
	}
	r.units.Add(1)

	// Units already started finish even if the search is cancelled.
	unitCtx := context.WithoutCancel(ctx)

	if r.pool.size() == 1 {
		r.execute(unitCtx, w, unit)
		return nil
	}
	r.pool.group.Go(func() error {
		r.execute(unitCtx, w, unit)
		return nil
	})
	return nil
}

func (r *run) execute(ctx context.Context, w *worker, unit WorkUnit) {
	defer r.pool.put(w)
	defer func() {
		if p := recover(); p != nil {
			r.failed.Add(1)
			r.logger.Error("unit panicked", "worker", w.id, "database", unit.Database, "table", unit.Table, "panic", p)
		}
	}()

	r.runUnit(ctx, w, unit)
}

func (r *run) runUnit(ctx context.Context, w *worker, unit WorkUnit) {
	logger := r.logger.With("worker", w.id, "database", unit.Database, "table", unit.Table)

	if err := w.bind(ctx, r.connector, unit.Database); err != nil {
		r.failed.Add(1)
		logger.Debug("unit connection failed", "error", err)
		return
	}

	columns, _ := r.catalog.Get(unit.Database)
	candidates := SelectCandidates(columns, unit.Table, r.value)
	if len(candidates) == 0 {
		r.skipped.Add(1)
		return
	}

	query := BuildQuery(w.conn, unit.Table, candidates, r.value, r.exactMatch)

	queryCtx := ctx
	if r.unitTimeout > 0 {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(ctx, r.unitTimeout)
		defer cancel()
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(queryCtx); err != nil {
			r.failed.Add(1)
			logger.Debug("unit rate limited", "error", err)
			return
		}
	}

	rows, err := w.conn.Query(queryCtx, query)
	if err != nil {
		r.failed.Add(1)
		logger.Debug("unit query failed", "error", err)
		return
	}
	if len(rows) == 0 {
		return
	}

	if matched := Verify(r.value, rows[0], r.exactMatch); len(matched) > 0 {
		r.results.Append(types.MatchResult{
			Database: unit.Database,
			Table:    unit.Table,
			Columns:  matched,
		})
		logger.Debug("match found", "columns", matched)
	}
}
