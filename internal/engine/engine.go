// Package engine wires a mempool-tailing collector, a strategy, and one or
// more executors under bounded concurrency.
package engine

import (
	"context"

	"github.com/coilmev/frontrun/internal/evmtypes"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/errgroup"
)

// Collector produces a lazy, possibly infinite stream of observed
// transactions. Implementations hydrate a pending-tx hash into a full
// Transaction by RPC and emit an item only when hydration succeeds.
type Collector interface {
	Collect(ctx context.Context) (<-chan evmtypes.Transaction, error)
}

// Strategy turns one observed transaction into an action, or nil if the
// transaction yields no valuable opportunity. Action is BundleAction or
// MempoolAction (see executor.go); a Strategy implementation owns any
// per-tx mutable state and is only ever invoked from the engine's single
// serialized strategy goroutine.
type Strategy interface {
	Process(ctx context.Context, tx evmtypes.Transaction) (any, error)
}

// Executor consumes actions. Implementations type-switch on the concrete
// action type and ignore actions they don't handle, so a relay executor
// and a mempool executor can both be registered and each only acts on its
// own action kind.
type Executor interface {
	Execute(ctx context.Context, action any) error
}

// Engine hosts one or more collectors, a single strategy, and one or more
// executors.
type Engine struct {
	collectors []Collector
	strategy   Strategy
	executors  []Executor
}

// New builds an Engine around strategy. Collectors and executors are
// added with AddCollector/AddExecutor before calling Run.
func New(strategy Strategy) *Engine {
	return &Engine{strategy: strategy}
}

func (e *Engine) AddCollector(c Collector) { e.collectors = append(e.collectors, c) }
func (e *Engine) AddExecutor(x Executor)   { e.executors = append(e.executors, x) }

// Run starts one long-lived goroutine per collector feeding a single
// serialized strategy goroutine, which in turn spawns one short-lived
// goroutine per executor for every action it produces. Run blocks until
// ctx is canceled or a collector's stream ends in error; individual
// executor failures are logged, not propagated, so one failing submission
// never tears down the pipeline.
func (e *Engine) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	txCh := make(chan evmtypes.Transaction)

	for _, c := range e.collectors {
		c := c
		g.Go(func() error {
			stream, err := c.Collect(ctx)
			if err != nil {
				return err
			}
			for {
				select {
				case tx, ok := <-stream:
					if !ok {
						return nil
					}
					select {
					case txCh <- tx:
					case <-ctx.Done():
						return ctx.Err()
					}
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		})
	}

	g.Go(func() error {
		for {
			select {
			case tx, ok := <-txCh:
				if !ok {
					return nil
				}
				action, err := e.strategy.Process(ctx, tx)
				if err != nil {
					log.Warn("engine: strategy error", "tx", tx.Hash, "err", err)
					continue
				}
				if action == nil {
					continue
				}
				e.dispatch(ctx, g, action)
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	return g.Wait()
}

func (e *Engine) dispatch(ctx context.Context, g *errgroup.Group, action any) {
	for _, x := range e.executors {
		x := x
		g.Go(func() error {
			if err := x.Execute(ctx, action); err != nil {
				log.Error("engine: executor error", "err", err)
			}
			return nil
		})
	}
}
