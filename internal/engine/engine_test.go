package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/coilmev/frontrun/internal/evmtypes"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type onceStrategy struct {
	action any
	called int
}

func (s *onceStrategy) Process(ctx context.Context, tx evmtypes.Transaction) (any, error) {
	s.called++
	if s.called > 1 {
		return nil, nil
	}
	return s.action, nil
}

type recordingExecutor struct {
	mu      sync.Mutex
	actions []any
}

func (x *recordingExecutor) Execute(ctx context.Context, action any) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.actions = append(x.actions, action)
	return nil
}

func (x *recordingExecutor) count() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.actions)
}

type erroringExecutor struct{}

func (erroringExecutor) Execute(ctx context.Context, action any) error {
	return errors.New("boom")
}

func TestEngine_DispatchesActionToAllExecutors(t *testing.T) {
	tx := evmtypes.Transaction{Hash: common.HexToHash("0x1")}
	strategy := &onceStrategy{action: BundleAction{{}}}
	collector := &FixedTxCollector{Tx: tx}

	recA := &recordingExecutor{}
	recB := &recordingExecutor{}

	e := New(strategy)
	e.AddCollector(collector)
	e.AddExecutor(recA)
	e.AddExecutor(recB)
	e.AddExecutor(erroringExecutor{}) // must not prevent the others from receiving the action

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	err := e.Run(ctx)
	require.Error(t, err) // context deadline exceeded: the collector stream never restarts after draining

	assert.Equal(t, 1, recA.count())
	assert.Equal(t, 1, recB.count())
}

func TestEngine_NilActionDispatchesNothing(t *testing.T) {
	tx := evmtypes.Transaction{Hash: common.HexToHash("0x1")}
	strategy := &onceStrategy{action: nil}
	collector := &FixedTxCollector{Tx: tx}
	rec := &recordingExecutor{}

	e := New(strategy)
	e.AddCollector(collector)
	e.AddExecutor(rec)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_ = e.Run(ctx)
	assert.Equal(t, 0, rec.count())
}
