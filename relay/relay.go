// Package relay is a small HTTPS JSON-RPC client for bundle relays
// (eth_sendBundle), grounded in the Flashbots-style endpoint table and
// request-signing convention.
package relay

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// ErrUnsupportedChain is returned when no relay endpoint is known for a
// chain ID.
var ErrUnsupportedChain = errors.New("relay: no known endpoint for chain id")

// endpoints maps chain ID to its bundle-relay URL. Only the mainnet family
// is populated; everything else falls back to mempool submission.
var endpoints = map[uint64]string{
	1: "https://relay.flashbots.net",
	5: "https://relay-goerli.flashbots.net",
}

// Endpoint returns the bundle-relay URL for chainID.
func Endpoint(chainID uint64) (string, bool) {
	url, ok := endpoints[chainID]
	return url, ok
}

// Client signs and submits eth_sendBundle requests. Requests are
// authenticated with a relay signing key distinct from any key used to
// sign the bundled transactions themselves, per the Flashbots
// X-Flashbots-Signature convention.
type Client struct {
	HTTP       *http.Client
	Endpoint   string
	SigningKey *ecdsa.PrivateKey
}

// New constructs a Client for chainID, failing with ErrUnsupportedChain if
// the chain has no known relay endpoint.
func New(chainID uint64, signingKey *ecdsa.PrivateKey, httpClient *http.Client) (*Client, error) {
	endpoint, ok := Endpoint(chainID)
	if !ok {
		return nil, ErrUnsupportedChain
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{HTTP: httpClient, Endpoint: endpoint, SigningKey: signingKey}, nil
}

type sendBundleParams struct {
	Txs              []hexutil.Bytes `json:"txs"`
	BlockNumber      hexutil.Uint64  `json:"blockNumber"`
	StateBlockNumber string          `json:"stateBlockNumber,omitempty"`
	ReplacementUUID  string          `json:"replacementUuid,omitempty"`
}

type jsonRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type jsonRPCResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SendBundle submits signedTxs (each already RLP-encoded and signed with
// the actor's own key) targeting targetBlock. stateBlock
// is the block the relay should simulate against; passing it separately
// from targetBlock lets the caller re-target a bundle across reorgs
// without resigning. It returns the relay's bundle hash.
func (c *Client) SendBundle(ctx context.Context, signedTxs [][]byte, targetBlock, stateBlock uint64) (string, error) {
	txs := make([]hexutil.Bytes, len(signedTxs))
	for i, tx := range signedTxs {
		txs[i] = tx
	}
	params := sendBundleParams{
		Txs:              txs,
		BlockNumber:      hexutil.Uint64(targetBlock),
		StateBlockNumber: hexutil.Uint64(stateBlock).String(),
		ReplacementUUID:  uuid.NewString(),
	}
	req := jsonRPCRequest{JSONRPC: "2.0", ID: 1, Method: "eth_sendBundle", Params: []any{params}}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("relay: encode request: %w", err)
	}

	result, err := c.do(ctx, body)
	if err != nil {
		return "", err
	}

	var parsed struct {
		BundleHash string `json:"bundleHash"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return "", fmt.Errorf("relay: decode response: %w", err)
	}
	return parsed.BundleHash, nil
}

// signHeader builds the X-Flashbots-Signature value: the relay key's
// address, a colon, and a signature over keccak256 of the hex-encoded
// request body (not its raw bytes) — the convention relays expect.
func (c *Client) signHeader(body []byte) (string, error) {
	digest := crypto.Keccak256Hash([]byte(hexutil.Encode(body)))
	sig, err := crypto.Sign(digest.Bytes(), c.SigningKey)
	if err != nil {
		return "", fmt.Errorf("relay: sign request: %w", err)
	}
	addr := crypto.PubkeyToAddress(c.SigningKey.PublicKey)
	return fmt.Sprintf("%s:%s", addr.Hex(), hexutil.Encode(sig)), nil
}

func (c *Client) do(ctx context.Context, body []byte) (json.RawMessage, error) {
	sigHeader, err := c.signHeader(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("relay: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Flashbots-Signature", sigHeader)

	httpResp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("relay: submit bundle: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("relay: read response: %w", err)
	}

	var rpcResp jsonRPCResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("relay: decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("relay: bundle rejected: %s", rpcResp.Error.Message)
	}
	return rpcResp.Result, nil
}
