package engine

import (
	"context"

	"github.com/coilmev/frontrun/internal/evmtypes"
	"github.com/coilmev/frontrun/internal/gateway"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/semaphore"
)

// MempoolCollector tails a node's pending-transaction feed and hydrates
// each hash into a full Transaction, emitting an item only when hydration
// succeeds. Hydration RPCs run under a bounded in-flight count, defaulting
// to 1 to avoid overwhelming the tracing endpoint.
type MempoolCollector struct {
	Watcher     *gateway.PendingTxWatcher
	Gateway     *gateway.Gateway
	MaxInFlight int64
}

// NewMempoolCollector builds a MempoolCollector with the default
// in-flight bound of 1.
func NewMempoolCollector(watcher *gateway.PendingTxWatcher, gw *gateway.Gateway) *MempoolCollector {
	return &MempoolCollector{Watcher: watcher, Gateway: gw, MaxInFlight: 1}
}

func (c *MempoolCollector) Collect(ctx context.Context) (<-chan evmtypes.Transaction, error) {
	maxInFlight := c.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = 1
	}
	sem := semaphore.NewWeighted(maxInFlight)

	hashes := make(chan common.Hash)
	out := make(chan evmtypes.Transaction)

	go func() {
		if err := c.Watcher.Run(ctx, hashes); err != nil {
			log.Error("engine: pending-tx watcher stopped", "err", err)
		}
	}()

	go func() {
		defer close(out)
		for {
			select {
			case hash, ok := <-hashes:
				if !ok {
					return
				}
				if err := sem.Acquire(ctx, 1); err != nil {
					return
				}
				go func(hash common.Hash) {
					defer sem.Release(1)
					tx, _, err := c.Gateway.TransactionByHash(ctx, hash)
					if err != nil {
						log.Warn("engine: hydrate pending tx failed", "hash", hash, "err", err)
						return
					}
					select {
					case out <- *tx:
					case <-ctx.Done():
					}
				}(hash)
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// FixedTxCollector emits exactly one transaction, supplied up front, and
// then closes its stream. Used in tests in place of a live pending-tx
// subscription.
type FixedTxCollector struct {
	Tx evmtypes.Transaction
}

func (c *FixedTxCollector) Collect(ctx context.Context) (<-chan evmtypes.Transaction, error) {
	out := make(chan evmtypes.Transaction, 1)
	out <- c.Tx
	close(out)
	return out, nil
}
