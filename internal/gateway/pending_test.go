package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingTxWatcher_DeliversHashes(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var sub subscribeRequest
		require.NoError(t, conn.ReadJSON(&sub))
		assert.Equal(t, "eth_subscribe", sub.Method)

		notification := `{"jsonrpc":"2.0","method":"eth_subscription","params":{"subscription":"0x1","result":"0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"}}`
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(notification)))

		time.Sleep(50 * time.Millisecond)
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	watcher := NewPendingTxWatcher(wsURL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	out := make(chan common.Hash, 1)
	errCh := make(chan error, 1)
	go func() { errCh <- watcher.Run(ctx, out) }()

	select {
	case hash := <-out:
		assert.Equal(t, common.HexToHash("0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"), hash)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for pending tx hash")
	}
}
