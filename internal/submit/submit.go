// Package submit plans submissions: it wraps a CallQueue's groups into
// either a relay bundle or a list of mempool submissions, computing the
// priority fee as a capped fraction of expected profit.
package submit

import (
	"errors"

	"github.com/coilmev/frontrun/internal/evmtypes"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ErrUnsupportedChain is returned when relay mode is requested for a chain
// ID with no known bundle-relay endpoint.
var ErrUnsupportedChain = errors.New("submit: relay mode unsupported for this chain id")

// mainnetFamilyChainIDs are the chain IDs with a known bundle-relay
// endpoint. Must stay in sync with the relay package's endpoint table.
var mainnetFamilyChainIDs = map[uint64]bool{
	1: true, // mainnet
	5: true, // Goerli
}

// SupportsRelay reports whether relay-mode submission is available for the
// given chain ID.
func SupportsRelay(chainID uint64) bool {
	return mainnetFamilyChainIDs[chainID]
}

// GasBidInfo annotates a mempool submission with the profit-derived bid the
// downstream executor should translate into a gas price.
type GasBidInfo struct {
	TotalProfit   *uint256.Int
	BidPercentage uint64
}

// MempoolSubmission is one call destined for the public mempool.
type MempoolSubmission struct {
	Call   evmtypes.RewrittenCall
	GasBid *GasBidInfo
}

// Planner computes priority fees and builds submission plans from a
// CallQueue, a chain ID, and optional bid configuration.
type Planner struct {
	ChainID        uint64
	BidPercentage  *uint64      // configured percentage p; nil disables bidding
	PriorityCapWei *uint256.Int // nil disables the cap
}

// PriorityFee computes floor(profit * p / 100), capped at PriorityCapWei if
// configured.
func (p *Planner) PriorityFee(profit *uint256.Int) *uint256.Int {
	if p.BidPercentage == nil || profit == nil {
		return uint256.NewInt(0)
	}
	fee := new(uint256.Int).Mul(profit, uint256.NewInt(*p.BidPercentage))
	fee.Div(fee, uint256.NewInt(100))
	if p.PriorityCapWei != nil && fee.Cmp(p.PriorityCapWei) > 0 {
		fee = new(uint256.Int).Set(p.PriorityCapWei)
	}
	return fee
}

// PlanRelay builds one Bundle per group of the CallQueue, anchored to
// parentBlockHash (the zero hash when uncle protection is off), each
// carrying the same priority fee. It fails with
// ErrUnsupportedChain if the planner's chain ID has no known relay
// endpoint.
func (p *Planner) PlanRelay(queue evmtypes.CallQueue, parentBlockHash common.Hash, profit *uint256.Int) ([]evmtypes.Bundle, error) {
	if !SupportsRelay(p.ChainID) {
		return nil, ErrUnsupportedChain
	}
	fee := p.PriorityFee(profit)
	bundles := make([]evmtypes.Bundle, 0, len(queue))
	for _, group := range queue {
		bundles = append(bundles, evmtypes.Bundle{
			ParentBlockHash: parentBlockHash,
			PriorityFee:     fee,
			Calls:           group,
		})
	}
	return bundles, nil
}

// PlanMempool flattens the CallQueue into one submission per call,
// annotating each with GasBidInfo iff a bid percentage is configured.
func (p *Planner) PlanMempool(queue evmtypes.CallQueue, profit *uint256.Int) []MempoolSubmission {
	var subs []MempoolSubmission
	for _, group := range queue {
		for _, call := range group {
			sub := MempoolSubmission{Call: call}
			if p.BidPercentage != nil {
				sub.GasBid = &GasBidInfo{TotalProfit: profit, BidPercentage: *p.BidPercentage}
			}
			subs = append(subs, sub)
		}
	}
	return subs
}
