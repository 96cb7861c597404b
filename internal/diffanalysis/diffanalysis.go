// Package diffanalysis inspects one account's before/after state diff.
// Given the diff and an optional expected nonce, it reports whether the
// account's balance increased, by how much, and whether
// the diff is trustworthy (i.e. the account's nonce still matches what the
// caller expected it to be before the traced transaction ran).
package diffanalysis

import (
	"github.com/coilmev/frontrun/internal/evmtypes"
	"github.com/holiman/uint256"
)

// Analyze applies two rules:
//
//   - if balance is Changed(from,to): increase = to > from, diff = |to-from|.
//   - if nonce is Changed(from,_) and expectedNonce != nil and *expectedNonce
//     != from, the diff is considered stale (invalid_nonce = true): the
//     candidate has already been mined or superseded and its apparent
//     balance delta can no longer be trusted.
func Analyze(diff evmtypes.AccountDiff, expectedNonce *uint64) evmtypes.DiffAnalysis {
	result := evmtypes.DiffAnalysis{BalanceDiff: uint256.NewInt(0)}

	if diff.Balance.IsChanged {
		from, to := diff.Balance.From, diff.Balance.To
		result.IncreaseBalance = to.Cmp(from) > 0
		if result.IncreaseBalance {
			result.BalanceDiff = new(uint256.Int).Sub(to, from)
		} else {
			result.BalanceDiff = new(uint256.Int).Sub(from, to)
		}
	}

	if diff.Nonce.IsChanged && expectedNonce != nil {
		fromNonce := diff.Nonce.From.Uint64()
		if fromNonce != *expectedNonce {
			result.InvalidNonce = true
		}
	}

	return result
}
