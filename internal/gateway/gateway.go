// Copyright 2022 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package gateway is the node-RPC boundary of the pipeline: it composes a
// standard ethclient.Client with a raw rpc.Client for the non-standard
// trace_call method, and a separate pending-transaction watcher for feeds
// that only expose hashes over a websocket subscription.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"

	"github.com/coilmev/frontrun/internal/evmtypes"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
)

// ErrUnsupportedTrace is returned the first time trace_call fails with a
// method-not-found error, so callers can fall back or fail fast instead of
// retrying a call the node will never support.
var ErrUnsupportedTrace = errors.New("gateway: node does not support trace_call")

// Gateway wraps the node connection used by every stage of the pipeline.
type Gateway struct {
	eth *ethclient.Client
	rpc *rpc.Client

	traceUnsupported bool
}

// Dial connects to rawURL, picking the transport by scheme the way the
// node library's own client dialer does (http(s) for unary calls, ws(s)
// for subscriptions), and wraps the resulting client in both its typed
// ethclient.Client and the raw rpc.Client trace_call needs.
func Dial(ctx context.Context, rawURL string) (*Gateway, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("gateway: parse rpc url: %w", err)
	}

	var rpcClient *rpc.Client
	switch u.Scheme {
	case "http", "https":
		rpcClient, err = rpc.DialHTTPWithClient(rawURL, &http.Client{})
	case "ws", "wss":
		rpcClient, err = rpc.DialWebsocket(ctx, rawURL, "")
	default:
		return nil, fmt.Errorf("gateway: no known transport for scheme %q", u.Scheme)
	}
	if err != nil {
		return nil, fmt.Errorf("gateway: dial %s: %w", rawURL, err)
	}

	return &Gateway{eth: ethclient.NewClient(rpcClient), rpc: rpcClient}, nil
}

// Close releases the underlying connection.
func (g *Gateway) Close() {
	g.rpc.Close()
}

// Backend exposes the underlying ethclient.Client for packages that need a
// bind.ContractBackend, such as contracts/arbitrage's generated binding.
func (g *Gateway) Backend() *ethclient.Client {
	return g.eth
}

// TransactionByHash returns the observed transaction, mapped to the
// pipeline's own Transaction type, and whether it is still pending.
func (g *Gateway) TransactionByHash(ctx context.Context, hash common.Hash) (*evmtypes.Transaction, bool, error) {
	tx, isPending, err := g.eth.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, false, fmt.Errorf("gateway: get transaction %s: %w", hash, err)
	}

	signer := types.LatestSignerForChainID(tx.ChainId())
	from, err := types.Sender(signer, tx)
	if err != nil {
		return nil, false, fmt.Errorf("gateway: recover sender of %s: %w", hash, err)
	}

	value, overflow := uint256.FromBig(tx.Value())
	if overflow {
		return nil, false, fmt.Errorf("gateway: transaction %s value overflows uint256", hash)
	}

	result := &evmtypes.Transaction{
		Hash:  tx.Hash(),
		From:  from,
		To:    tx.To(),
		Nonce: tx.Nonce(),
		Value: value,
		Input: tx.Data(),
	}
	return result, isPending, nil
}

// BalanceAt wraps eth_getBalance, used for the strategy's per-opportunity
// balance bookkeeping.
func (g *Gateway) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	balance, err := g.eth.BalanceAt(ctx, account, blockNumber)
	if err != nil {
		return nil, fmt.Errorf("gateway: get balance of %s: %w", account, err)
	}
	return balance, nil
}

// HeaderByNumber wraps eth_getBlockByNumber (header only), used to resolve
// the parent block hash for uncle protection and the target block for
// relay submission.
func (g *Gateway) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	header, err := g.eth.HeaderByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("gateway: get header: %w", err)
	}
	return header, nil
}

// PendingNonceAt wraps eth_getTransactionCount(pending), used by executors
// to assign nonces to freshly signed transactions.
func (g *Gateway) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	nonce, err := g.eth.PendingNonceAt(ctx, account)
	if err != nil {
		return 0, fmt.Errorf("gateway: get pending nonce of %s: %w", account, err)
	}
	return nonce, nil
}

// SuggestGasPrice wraps eth_gasPrice, the base the mempool executor adds
// its profit-derived bid on top of.
func (g *Gateway) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	price, err := g.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("gateway: suggest gas price: %w", err)
	}
	return price, nil
}

// SendTransaction broadcasts a signed transaction to the node's own
// mempool, used by the mempool-mode executor.
func (g *Gateway) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := g.eth.SendTransaction(ctx, tx); err != nil {
		return fmt.Errorf("gateway: send transaction %s: %w", tx.Hash(), err)
	}
	return nil
}

// traceCallRequest is the first positional parameter of trace_call: a
// standard eth_call object.
type traceCallRequest struct {
	From  common.Address  `json:"from,omitempty"`
	To    *common.Address `json:"to,omitempty"`
	Value *hexutil.Big    `json:"value,omitempty"`
	Data  hexutil.Bytes   `json:"data,omitempty"`
}

// TraceCall runs an isolated trace_call simulating msg against blockTag
// (e.g. "latest", "pending", or a quantity hex string), requesting both
// the call trace and the state diff. If the node has no trace_call method,
// it returns ErrUnsupportedTrace.
func (g *Gateway) TraceCall(ctx context.Context, msg ethereum.CallMsg, blockTag string) (*evmtypes.BlockTrace, error) {
	if g.traceUnsupported {
		return nil, ErrUnsupportedTrace
	}

	req := traceCallRequest{From: msg.From, To: msg.To, Data: msg.Data}
	if msg.Value != nil {
		req.Value = (*hexutil.Big)(msg.Value)
	}

	var result evmtypes.BlockTrace
	err := g.rpc.CallContext(ctx, &result, "trace_call", req, []string{"trace", "stateDiff"}, blockTag)
	if err != nil {
		if isMethodNotFound(err) {
			g.traceUnsupported = true
			return nil, ErrUnsupportedTrace
		}
		return nil, fmt.Errorf("gateway: trace_call: %w", err)
	}
	return &result, nil
}

func isMethodNotFound(err error) bool {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == -32601 {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "method not found") ||
		strings.Contains(msg, "method not supported") ||
		strings.Contains(msg, "does not exist")
}
