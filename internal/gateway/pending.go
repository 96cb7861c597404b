package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/gorilla/websocket"
)

// PendingTxWatcher subscribes to a node's raw newPendingTransactions feed
// over its own websocket connection, independent of the rpc.Client used
// for unary calls, so a collector can keep consuming hashes through a
// trace_call-capable node's subscription endpoint even if that endpoint
// differs from the one used for calls.
type PendingTxWatcher struct {
	url    string
	closed atomic.Bool
}

// NewPendingTxWatcher builds a watcher dialing wsURL on Run.
func NewPendingTxWatcher(wsURL string) *PendingTxWatcher {
	return &PendingTxWatcher{url: wsURL}
}

type subscribeRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type subscriptionNotification struct {
	Method string `json:"method"`
	Params struct {
		Subscription string          `json:"subscription"`
		Result       json.RawMessage `json:"result"`
	} `json:"params"`
}

// Run dials the websocket, subscribes to newPendingTransactions, and
// pushes decoded hashes onto out until ctx is canceled or the connection
// drops. Run does not reconnect; MempoolCollector calls it once and only
// logs a non-nil error return, after which no further hashes arrive.
func (w *PendingTxWatcher) Run(ctx context.Context, out chan<- common.Hash) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("gateway: dial pending-tx feed: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		w.closed.Store(true)
		conn.Close()
	}()

	sub := subscribeRequest{JSONRPC: "2.0", ID: 1, Method: "eth_subscribe", Params: []any{"newPendingTransactions"}}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("gateway: subscribe pending-tx feed: %w", err)
	}

	for {
		var raw json.RawMessage
		if err := conn.ReadJSON(&raw); err != nil {
			if w.closed.Load() {
				return nil
			}
			return fmt.Errorf("gateway: read pending-tx feed: %w", err)
		}

		var note subscriptionNotification
		if err := json.Unmarshal(raw, &note); err != nil {
			log.Warn("gateway: malformed pending-tx notification", "err", err)
			continue
		}
		if note.Method != "eth_subscription" {
			continue // the initial subscribe response; id-keyed, not method-keyed
		}

		var hashHex string
		if err := json.Unmarshal(note.Params.Result, &hashHex); err != nil {
			log.Warn("gateway: malformed pending-tx hash", "err", err)
			continue
		}

		select {
		case out <- common.HexToHash(hashHex):
		case <-ctx.Done():
			return nil
		}
	}
}
