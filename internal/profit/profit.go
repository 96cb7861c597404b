// Package profit decides whether replaying a transaction under a
// controlled-actor substitution
// would be profitable, and by how much, by running a set of analyzers over
// a traced execution and summing their native-token-denominated output.
package profit

import (
	"context"
	"errors"

	"github.com/coilmev/frontrun/internal/evmtypes"
	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"
)

// ErrNoOpportunity names the "prefilter rejected" / "traced but zero
// profit" outcome. Nothing in this repository returns or checks it: the
// strategy reports that outcome as a nil action with a nil error.
var ErrNoOpportunity = errors.New("profit: no opportunity")

// Analyzer is the capability every profit-contributing strategy implements.
// It returns nil (not an error) when it finds no profit for this tx.
type Analyzer interface {
	Analyze(ctx context.Context, tx evmtypes.Transaction, trace evmtypes.BlockTrace) (*uint256.Int, error)
}

// Prefilter rejects transactions before the expensive trace_call is issued.
type Prefilter interface {
	Accept(tx evmtypes.Transaction) bool
}

// TransferFilter rejects a transaction with empty calldata: a pure native
// transfer has no call-graph to re-synthesize.
type TransferFilter struct{}

func (TransferFilter) Accept(tx evmtypes.Transaction) bool {
	return len(tx.Input) > 0
}

// FlashloanFilter is an extension hook; the default accepts every
// transaction.
type FlashloanFilter struct{}

func (FlashloanFilter) Accept(evmtypes.Transaction) bool {
	return true
}

// Oracle orchestrates prefilters and analyzers over a traced transaction.
type Oracle struct {
	Prefilters []Prefilter
	Analyzers  []Analyzer
}

// New builds an Oracle with the default prefilters, the native-token
// analyzer, and the no-op token analyzer.
func New() *Oracle {
	return &Oracle{
		Prefilters: []Prefilter{TransferFilter{}, FlashloanFilter{}},
		Analyzers:  []Analyzer{NativeAnalyzer{}, NoopTokenAnalyzer{}},
	}
}

// Accept runs every prefilter; a transaction must pass all of them before
// the caller issues the (expensive) trace_call.
func (o *Oracle) Accept(tx evmtypes.Transaction) bool {
	for _, f := range o.Prefilters {
		if !f.Accept(tx) {
			return false
		}
	}
	return true
}

// Evaluate runs every analyzer concurrently and sums their output. A nil
// result from an analyzer, or an error from one, contributes zero; one
// analyzer's failure is not fatal to the others.
func (o *Oracle) Evaluate(ctx context.Context, tx evmtypes.Transaction, trace evmtypes.BlockTrace) *uint256.Int {
	contributions := make([]*uint256.Int, len(o.Analyzers))

	g, gctx := errgroup.WithContext(ctx)
	for i, analyzer := range o.Analyzers {
		i, analyzer := i, analyzer
		g.Go(func() error {
			v, err := analyzer.Analyze(gctx, tx, trace)
			if err != nil || v == nil {
				contributions[i] = uint256.NewInt(0)
				return nil
			}
			contributions[i] = v
			return nil
		})
	}
	_ = g.Wait() // analyzer errors already folded to zero contribution above

	total := uint256.NewInt(0)
	for _, c := range contributions {
		total.Add(total, c)
	}
	return total
}

// Valuable reports whether the aggregate profit is strictly positive.
func Valuable(profit *uint256.Int) bool {
	return profit != nil && profit.Sign() > 0
}
