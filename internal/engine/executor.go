package engine

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"

	"github.com/coilmev/frontrun/contracts/arbitrage"
	"github.com/coilmev/frontrun/internal/batch"
	"github.com/coilmev/frontrun/internal/evmtypes"
	"github.com/coilmev/frontrun/internal/gateway"
	"github.com/coilmev/frontrun/internal/submit"
	"github.com/coilmev/frontrun/relay"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
)

// BundleAction is produced by Strategy for relay-mode submission: one
// Bundle per CallQueue group, each dispatched to the relay on its own
// task so one bundle's rejection doesn't cancel the others.
type BundleAction []evmtypes.Bundle

// MempoolAction is produced by Strategy for mempool-mode submission: one
// call per mempool submission, each sent as its own transaction.
type MempoolAction []submit.MempoolSubmission

const defaultCallGasLimit = 500_000

// RelayExecutor submits each BundleAction group to a relay.Client,
// targeting one block past the chain's current head. When Contract names a
// deployed batch-executor, each group is ABI-encoded via
// internal/batch.Build and sent as the single calldata argument of that
// contract's run(bytes) entry point; otherwise each call in the group is
// signed as its own transaction and the signed transactions are sent
// together as the relay bundle.
type RelayExecutor struct {
	Relay    *relay.Client
	Gateway  *gateway.Gateway
	Signer   *ecdsa.PrivateKey
	ChainID  *big.Int
	Contract *common.Address
}

func (x *RelayExecutor) Execute(ctx context.Context, action any) error {
	bundles, ok := action.(BundleAction)
	if !ok {
		return nil
	}

	var wg sync.WaitGroup
	for _, bundle := range bundles {
		bundle := bundle
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := x.submitOne(ctx, bundle); err != nil {
				log.Error("engine: relay bundle submission failed", "err", err)
			}
		}()
	}
	wg.Wait()
	return nil
}

func (x *RelayExecutor) submitOne(ctx context.Context, bundle evmtypes.Bundle) error {
	from := crypto.PubkeyToAddress(x.Signer.PublicKey)
	nonce, err := x.Gateway.PendingNonceAt(ctx, from)
	if err != nil {
		return err
	}
	header, err := x.Gateway.HeaderByNumber(ctx, nil)
	if err != nil {
		return err
	}
	target := header.Number.Uint64() + 1
	stateBlock := header.Number.Uint64()

	var signedTxs [][]byte
	if x.Contract != nil {
		raw, err := x.buildBatchTx(ctx, bundle, from, nonce)
		if err != nil {
			return fmt.Errorf("build batch tx: %w", err)
		}
		signedTxs = [][]byte{raw}
	} else {
		signedTxs, err = x.signCallsDirect(bundle, from, nonce)
		if err != nil {
			return err
		}
	}

	bundleHash, err := x.Relay.SendBundle(ctx, signedTxs, target, stateBlock)
	if err != nil {
		return fmt.Errorf("send bundle: %w", err)
	}
	log.Info("engine: bundle submitted", "hash", bundleHash, "targetBlock", target)
	return nil
}

func (x *RelayExecutor) signCallsDirect(bundle evmtypes.Bundle, from common.Address, nonce uint64) ([][]byte, error) {
	signer := types.LatestSignerForChainID(x.ChainID)
	signedTxs := make([][]byte, len(bundle.Calls))
	for i, call := range bundle.Calls {
		tx := types.NewTx(&types.LegacyTx{
			Nonce:    nonce + uint64(i),
			To:       call.To,
			Value:    call.Value.ToBig(),
			Gas:      defaultCallGasLimit,
			GasPrice: big.NewInt(0),
			Data:     call.Data,
		})
		signedTx, err := types.SignTx(tx, signer, x.Signer)
		if err != nil {
			return nil, fmt.Errorf("sign call %d: %w", i, err)
		}
		raw, err := signedTx.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("encode call %d: %w", i, err)
		}
		signedTxs[i] = raw
	}
	return signedTxs, nil
}

// buildBatchTx ABI-encodes the whole call group via internal/batch.Build
// and packs it through the abigen binding's Run method, producing one
// signed transaction that calls the batch-executor's run(bytes) entry
// point instead of N separately signed calls. The bound contract is given
// a capturingBackend so Run's Transact never actually reaches the node:
// it only needs to produce the signed transaction for bundle submission.
func (x *RelayExecutor) buildBatchTx(ctx context.Context, bundle evmtypes.Bundle, from common.Address, nonce uint64) ([]byte, error) {
	payload, err := batch.Build(bundle.Calls, bundle.ParentBlockHash, bundle.PriorityFee)
	if err != nil {
		return nil, fmt.Errorf("encode batch payload: %w", err)
	}

	cb := &capturingBackend{Client: x.Gateway.Backend()}
	contract, err := arbitrage.NewArbitrage(*x.Contract, cb)
	if err != nil {
		return nil, fmt.Errorf("bind contract: %w", err)
	}

	signer := types.LatestSignerForChainID(x.ChainID)
	gasLimit := defaultCallGasLimit * uint64(len(bundle.Calls)+1)
	opts := &bind.TransactOpts{
		From:     from,
		Nonce:    new(big.Int).SetUint64(nonce),
		GasLimit: gasLimit,
		GasPrice: big.NewInt(0),
		Context:  ctx,
		Signer: func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
			return types.SignTx(tx, signer, x.Signer)
		},
	}
	if _, err := contract.Run(opts, payload); err != nil {
		return nil, fmt.Errorf("sign run tx: %w", err)
	}
	if cb.captured == nil {
		return nil, fmt.Errorf("run tx was not captured")
	}
	return cb.captured.MarshalBinary()
}

// capturingBackend wraps the node's ethclient.Client, keeping every
// bind.ContractBackend method except SendTransaction, which it intercepts
// so Transact's signed transaction can be pulled out and rebundled
// instead of being broadcast directly to the node.
type capturingBackend struct {
	*ethclient.Client
	captured *types.Transaction
}

func (c *capturingBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	c.captured = tx
	return nil
}

// MempoolExecutor signs and broadcasts each call of a MempoolAction as its
// own transaction, adding a profit-derived priority bid on top of the
// node's suggested gas price when GasBidInfo is present.
type MempoolExecutor struct {
	Gateway *gateway.Gateway
	Signer  *ecdsa.PrivateKey
	ChainID *big.Int
}

func (x *MempoolExecutor) Execute(ctx context.Context, action any) error {
	subs, ok := action.(MempoolAction)
	if !ok {
		return nil
	}

	var wg sync.WaitGroup
	for _, sub := range subs {
		sub := sub
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := x.submitOne(ctx, sub); err != nil {
				log.Error("engine: mempool submission failed", "err", err)
			}
		}()
	}
	wg.Wait()
	return nil
}

func (x *MempoolExecutor) submitOne(ctx context.Context, sub submit.MempoolSubmission) error {
	from := crypto.PubkeyToAddress(x.Signer.PublicKey)
	nonce, err := x.Gateway.PendingNonceAt(ctx, from)
	if err != nil {
		return err
	}
	gasPrice, err := x.Gateway.SuggestGasPrice(ctx)
	if err != nil {
		return err
	}
	if sub.GasBid != nil && sub.GasBid.TotalProfit != nil {
		bid := new(big.Int).Mul(sub.GasBid.TotalProfit.ToBig(), big.NewInt(int64(sub.GasBid.BidPercentage)))
		bid.Div(bid, big.NewInt(100))
		gasPrice = new(big.Int).Add(gasPrice, bid)
	}

	value := big.NewInt(0)
	if sub.Call.Value != nil {
		value = sub.Call.Value.ToBig()
	}
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       sub.Call.To,
		Value:    value,
		Gas:      defaultCallGasLimit,
		GasPrice: gasPrice,
		Data:     sub.Call.Data,
	})
	signer := types.LatestSignerForChainID(x.ChainID)
	signedTx, err := types.SignTx(tx, signer, x.Signer)
	if err != nil {
		return fmt.Errorf("sign call: %w", err)
	}
	if err := x.Gateway.SendTransaction(ctx, signedTx); err != nil {
		return err
	}
	log.Info("engine: mempool tx submitted", "hash", signedTx.Hash())
	return nil
}
