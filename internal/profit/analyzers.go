package profit

import (
	"context"

	"github.com/coilmev/frontrun/internal/diffanalysis"
	"github.com/coilmev/frontrun/internal/evmtypes"
	"github.com/holiman/uint256"
)

// NativeAnalyzer scores a transaction by native-token balance deltas: the
// sender's balance must have increased with a valid nonce, and if the tx
// has a recipient whose balance also increased (with a valid nonce) by
// *more* than the sender's delta, that larger delta is added too. The
// strict "greater than" gate prevents double-counting an ordinary transfer
// where the sender pays and the recipient receives the identical amount.
type NativeAnalyzer struct{}

func (NativeAnalyzer) Analyze(_ context.Context, tx evmtypes.Transaction, trace evmtypes.BlockTrace) (*uint256.Int, error) {
	if trace.StateDiff == nil {
		return nil, nil
	}
	diffs := *trace.StateDiff

	fromDiff, ok := diffs[tx.From]
	if !ok {
		return nil, nil
	}
	expectedNonce := tx.Nonce
	fromAnalysis := diffanalysis.Analyze(fromDiff, &expectedNonce)

	if !fromAnalysis.IncreaseBalance || fromAnalysis.InvalidNonce {
		return nil, nil
	}

	profit := new(uint256.Int).Set(fromAnalysis.BalanceDiff)

	if tx.To != nil {
		if toDiff, ok := diffs[*tx.To]; ok {
			toAnalysis := diffanalysis.Analyze(toDiff, nil)
			if toAnalysis.IncreaseBalance && !toAnalysis.InvalidNonce &&
				toAnalysis.BalanceDiff.Cmp(fromAnalysis.BalanceDiff) > 0 {
				profit.Add(profit, toAnalysis.BalanceDiff)
			}
		}
	}

	return profit, nil
}

// NoopTokenAnalyzer is the default pluggable token analyzer: it never finds
// profit. See UniswapV3TokenAnalyzer for an optional, not-wired-by-default
// ERC-20 valuation example.
type NoopTokenAnalyzer struct{}

func (NoopTokenAnalyzer) Analyze(context.Context, evmtypes.Transaction, evmtypes.BlockTrace) (*uint256.Int, error) {
	return nil, nil
}
