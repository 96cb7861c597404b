package profit

import (
	"context"
	"fmt"
	"math/big"

	"github.com/coilmev/frontrun/internal/evmtypes"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

var slot0Selector = crypto.Keccak256([]byte("slot0()"))[:4]

// PoolCaller is the minimal read-only call surface a Uniswap-v3 pool price
// lookup needs; *ethclient.Client satisfies it.
type PoolCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// UniswapV3TokenAnalyzer is a stubbed token analyzer that consults a
// Uniswap-v3 pool oracle for converting ERC-20 token deltas to native-token
// units. It is an example, not a required behavior: it is not part of
// Oracle's default Analyzers and must be added explicitly by a caller that
// also supplies a Pools map (ERC-20 token address -> its reference
// Uniswap-v3 pool).
type UniswapV3TokenAnalyzer struct {
	Caller PoolCaller
	Pools  map[common.Address]common.Address
}

// Analyze reads the reference pool's slot0() to learn the current price,
// for a future conversion of an ERC-20 balance delta into native-token
// units. Storage diffs are not decoded anywhere in this repository, so
// there is no token balance delta to convert yet; the call is still issued
// to demonstrate the intended wiring, and the analyzer reports no profit
// until a storage-diff decoder is added.
func (a UniswapV3TokenAnalyzer) Analyze(ctx context.Context, tx evmtypes.Transaction, _ evmtypes.BlockTrace) (*uint256.Int, error) {
	if a.Caller == nil || len(a.Pools) == 0 || tx.To == nil {
		return nil, nil
	}
	pool, ok := a.Pools[*tx.To]
	if !ok {
		return nil, nil
	}
	if _, err := a.Caller.CallContract(ctx, ethereum.CallMsg{To: &pool, Data: slot0Selector}, nil); err != nil {
		return nil, fmt.Errorf("query pool slot0: %w", err)
	}
	return nil, nil
}
