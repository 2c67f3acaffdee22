package migrate

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"mygrate/pkg/observability"
)

// MigrateFunc runs one table migration.
type MigrateFunc func(ctx context.Context, table Table) error

// Dispatcher fans a fixed list of tables out to a pool of workers. Tables
// are claimed in declaration order through a shared counter and complete in
// arbitrary order. The first failure stops the fleet and is the one error
// surfaced to the caller.
type Dispatcher struct {
	workers int
	log     *observability.Logger
}

// NewDispatcher builds a dispatcher with the given worker count; anything
// below 1 means host parallelism.
func NewDispatcher(workers int, log *observability.Logger) *Dispatcher {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &Dispatcher{workers: workers, log: log}
}

// Run migrates every table and blocks until all workers have exited. On
// failure the shared context is cancelled so in-flight tables stop at their
// next row, and idle workers stop claiming; the first captured error is
// returned after the join.
func (d *Dispatcher) Run(ctx context.Context, tables []Table, migrate MigrateFunc) error {
	if len(tables) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := min(d.workers, len(tables))
	d.log.Info("dispatching table migrations",
		zap.Int("tables", len(tables)),
		zap.Int("workers", workers),
	)

	var (
		next     atomic.Int64
		stop     atomic.Bool
		mu       sync.Mutex
		firstErr error
		wg       sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !stop.Load() {
				at := next.Add(1) - 1
				if at >= int64(len(tables)) {
					return
				}
				table := tables[at]
				d.log.Debug("table claimed", zap.String("table", table.Name))
				if err := migrate(ctx, table); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					stop.Store(true)
					cancel()
					return
				}
			}
		}()
	}

	wg.Wait()
	return firstErr
}
