// Package workers tracks the backend worker assigned to each editor window.
package workers

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/pythia-ide/pythia/src/pythia/entity"
	"github.com/pythia-ide/pythia/src/pythia/internal/pyworker"
	tally "github.com/uber-go/tally/v4"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Module provides a module to inject using fx.
var Module = fx.Options(
	fx.Provide(New),
)

// Registry tracks at most one Worker per editor window.
type Registry interface {
	// Lookup returns the window's worker, creating it on first use and
	// restarting it when its backend has died. Concurrent lookups for the
	// same window yield the same worker and a single backend process.
	Lookup(ctx context.Context, session *entity.Session) (pyworker.Worker, error)

	// Get returns the window's worker without creating one.
	Get(id uuid.UUID) (pyworker.Worker, bool)

	// Evict stops the window's worker and forgets it. No-op when absent.
	Evict(ctx context.Context, id uuid.UUID) error

	// RestartAll restarts every tracked worker, aggregating failures.
	RestartAll(ctx context.Context) error

	// Count returns the number of tracked workers.
	Count() int

	// Teardown evicts every worker. Bound to application shutdown.
	Teardown(ctx context.Context) error
}

// Params defines the dependencies of this package.
type Params struct {
	fx.In

	Factory   pyworker.Factory
	Lifecycle fx.Lifecycle
	Logger    *zap.SugaredLogger
	Stats     tally.Scope
}

type registry struct {
	factory pyworker.Factory
	logger  *zap.SugaredLogger
	stats   tally.Scope

	// mu guards the map. Worker construction and revival run under the write
	// lock so that any interleaving of lookups for one window spawns exactly
	// one backend; reads of a present live worker take only the read lock.
	mu      sync.RWMutex
	workers map[uuid.UUID]pyworker.Worker
}

// New creates a Registry and binds its teardown to the application lifecycle.
func New(p Params) Registry {
	r := &registry{
		factory: p.Factory,
		logger:  p.Logger,
		stats:   p.Stats.SubScope("workers"),
		workers: make(map[uuid.UUID]pyworker.Worker),
	}
	p.Lifecycle.Append(fx.Hook{
		OnStop: r.Teardown,
	})
	return r
}

func (r *registry) Lookup(ctx context.Context, session *entity.Session) (pyworker.Worker, error) {
	r.mu.RLock()
	w, ok := r.workers[session.UUID]
	r.mu.RUnlock()
	if ok && w.Alive() {
		return w, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if w, ok := r.workers[session.UUID]; ok {
		if w.Alive() {
			return w, nil
		}
		r.logger.Infow("restarting dead backend worker", "worker", session.UUID.String())
		if err := w.Restart(ctx); err != nil {
			return nil, err
		}
		return w, nil
	}

	w, err := r.factory.New(ctx, session)
	if err != nil {
		return nil, err
	}
	r.workers[session.UUID] = w
	r.stats.Gauge("active_workers").Update(float64(len(r.workers)))
	return w, nil
}

func (r *registry) Get(id uuid.UUID) (pyworker.Worker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.workers[id]
	return w, ok
}

func (r *registry) Evict(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	w, ok := r.workers[id]
	if ok {
		delete(r.workers, id)
		r.stats.Gauge("active_workers").Update(float64(len(r.workers)))
	}
	r.mu.Unlock()
	if !ok {
		return nil
	}

	r.stats.Counter("evicted").Inc(1)
	return w.Stop(ctx)
}

func (r *registry) RestartAll(ctx context.Context) error {
	r.mu.RLock()
	snapshot := make([]pyworker.Worker, 0, len(r.workers))
	for _, w := range r.workers {
		snapshot = append(snapshot, w)
	}
	r.mu.RUnlock()

	var result error
	for _, w := range snapshot {
		// Skip workers evicted since the snapshot.
		r.mu.RLock()
		_, tracked := r.workers[w.ID()]
		r.mu.RUnlock()
		if !tracked {
			continue
		}
		if err := w.Restart(ctx); err != nil {
			result = multierr.Append(result, fmt.Errorf("restarting worker %s: %w", w.ID(), err))
		}
	}
	return result
}

func (r *registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workers)
}

func (r *registry) Teardown(ctx context.Context) error {
	r.mu.Lock()
	snapshot := make([]pyworker.Worker, 0, len(r.workers))
	for _, w := range r.workers {
		snapshot = append(snapshot, w)
	}
	r.workers = make(map[uuid.UUID]pyworker.Worker)
	r.stats.Gauge("active_workers").Update(0)
	r.mu.Unlock()

	var result error
	for _, w := range snapshot {
		if err := w.Stop(ctx); err != nil {
			result = multierr.Append(result, fmt.Errorf("stopping worker %s: %w", w.ID(), err))
		}
	}
	return result
}
