package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coilmev/frontrun/internal/evmtypes"
	"github.com/coilmev/frontrun/internal/gateway"
	"github.com/coilmev/frontrun/internal/profit"
	"github.com/coilmev/frontrun/internal/submit"
	"github.com/coilmev/frontrun/internal/tracequeue"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests exercise the six end-to-end scenarios, one test function
// each, without a live archive node. Scenarios 1-3 feed a fixed BlockTrace
// JSON document through the same oracle/decomposer chain
// FrontrunStrategy.Process drives, with the network boundary
// (Gateway.TraceCall) replaced by the fixture; scenario 4 answers
// trace_call from a canned JSON-RPC error response; scenarios 5 and 6
// exercise the submission planner directly.

var actorSigner = common.HexToAddress("0xcccc000000000000000000000000000000cccc")
var actorSubstitute = common.HexToAddress("0xdddd000000000000000000000000000000dddd")

func mustBlockTrace(t *testing.T, raw string) evmtypes.BlockTrace {
	t.Helper()
	var bt evmtypes.BlockTrace
	require.NoError(t, json.Unmarshal([]byte(raw), &bt))
	return bt
}

// Scenario 1: a simple value-transfer trace where the sender's balance
// strictly increased with a matching nonce diff yields Some(p), p > 0,
// and decomposes into a replayable root call.
func TestScenario1_ProfitableTraceYieldsPositiveProfitAndQueue(t *testing.T) {
	sender := common.HexToAddress("0x1111111111111111111111111111111111111111")
	recipient := common.HexToAddress("0x2222222222222222222222222222222222222222")

	raw := `{
		"trace": [
			{"type":"call","traceAddress":[],"subtraces":0,
			 "action":{"from":"0x1111111111111111111111111111111111111111","to":"0x2222222222222222222222222222222222222222","value":"0x16345785d8a0000","input":"0x"}}
		],
		"stateDiff": {
			"0x1111111111111111111111111111111111111111": {
				"balance": {"*":{"from":"0xde0b6b3a7640000","to":"0x1bc16d674ec80000"}},
				"nonce": {"*":{"from":"0x5","to":"0x6"}},
				"code": "=", "storage": {}
			}
		}
	}`
	trace := mustBlockTrace(t, raw)

	tx := evmtypes.Transaction{From: sender, To: &recipient, Nonce: 5, Input: []byte{0x01}}
	oracle := profit.New()
	require.True(t, oracle.Accept(tx))

	p := oracle.Evaluate(context.Background(), tx, trace)
	require.True(t, profit.Valuable(p))
	assert.Equal(t, uint256.MustFromDecimal("1000000000000000000"), p)

	queue := tracequeue.Decompose(trace, actorSigner, actorSubstitute)
	require.Len(t, queue, 1)
	require.Len(t, queue[0], 1)
	assert.Equal(t, actorSigner, queue[0][0].From)
}

// Scenario 2: the same trace, re-evaluated against state where the
// sender's nonce diff no longer matches the transaction's own nonce
// (because it has already been mined), must yield no profit.
func TestScenario2_StaleNonceDiffYieldsNoProfit(t *testing.T) {
	sender := common.HexToAddress("0x1111111111111111111111111111111111111111")
	recipient := common.HexToAddress("0x2222222222222222222222222222222222222222")

	raw := `{
		"trace": [
			{"type":"call","traceAddress":[],"subtraces":0,
			 "action":{"from":"0x1111111111111111111111111111111111111111","to":"0x2222222222222222222222222222222222222222","value":"0x16345785d8a0000","input":"0x"}}
		],
		"stateDiff": {
			"0x1111111111111111111111111111111111111111": {
				"balance": {"*":{"from":"0xde0b6b3a7640000","to":"0x1bc16d674ec80000"}},
				"nonce": {"*":{"from":"0x6","to":"0x7"}},
				"code": "=", "storage": {}
			}
		}
	}`
	trace := mustBlockTrace(t, raw)

	// tx.Nonce still reflects the pre-inclusion expectation (5); the diff's
	// observed "from" nonce (6) no longer matches, so the diff is stale.
	tx := evmtypes.Transaction{From: sender, To: &recipient, Nonce: 5, Input: []byte{0x01}}
	oracle := profit.New()
	p := oracle.Evaluate(context.Background(), tx, trace)
	assert.False(t, profit.Valuable(p))
}

// Scenario 3: a contract-creation trace in the same block as its own
// creator's deployment has no prior state to diff against, so the
// analyzer never observes a balance increase — profit oracle yields None.
func TestScenario3_SameBlockCreationYieldsNoProfit(t *testing.T) {
	creator := common.HexToAddress("0x3333333333333333333333333333333333333333")

	raw := `{
		"trace": [
			{"type":"create","traceAddress":[],"subtraces":0,
			 "action":{"from":"0x3333333333333333333333333333333333333333","value":"0x0","init":"0x6080"}}
		],
		"stateDiff": {
			"0x3333333333333333333333333333333333333333": {
				"balance": "=",
				"nonce": {"*":{"from":"0x0","to":"0x1"}},
				"code": "=", "storage": {}
			}
		}
	}`
	trace := mustBlockTrace(t, raw)

	tx := evmtypes.Transaction{From: creator, To: nil, Nonce: 0, Input: []byte{0x60, 0x80}}
	oracle := profit.New()
	require.True(t, oracle.Accept(tx))
	p := oracle.Evaluate(context.Background(), tx, trace)
	assert.False(t, profit.Valuable(p))

	// the trace still decomposes (a create is replayable), it simply never
	// looked profitable enough to reach that stage in the real pipeline.
	queue := tracequeue.Decompose(trace, actorSigner, actorSubstitute)
	require.Len(t, queue, 1)
	assert.Nil(t, queue[0][0].To)
}

// Scenario 4: a chain whose node lacks trace_call (e.g. a BNB-chain geth
// fork) must surface the gap as a named, checkable capability error
// instead of a generic RPC failure.
func TestScenario4_UnsupportedTraceCallIsFatalCapabilityError(t *testing.T) {
	const bnbChainID = 56
	assert.False(t, submit.SupportsRelay(bnbChainID))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"the method trace_call does not exist"}}`))
	}))
	defer server.Close()

	gw, err := gateway.Dial(context.Background(), server.URL)
	require.NoError(t, err)
	defer gw.Close()

	_, err = gw.TraceCall(context.Background(), ethereum.CallMsg{}, "latest")
	require.ErrorIs(t, err, gateway.ErrUnsupportedTrace)
}

// Scenario 5: priority fee is the configured percentage of profit, capped
// at the configured absolute ceiling.
func TestScenario5_PriorityFeeCappedBelowPercentage(t *testing.T) {
	pct := uint64(70)
	capWei := uint256.MustFromDecimal("12365048376181357")
	planner := &submit.Planner{ChainID: 1, BidPercentage: &pct, PriorityCapWei: capWei}

	profitAmt := uint256.MustFromDecimal("10000000000000000000") // 10 ether

	fee := planner.PriorityFee(profitAmt)
	assert.Equal(t, capWei, fee)
}

// Scenario 6: uncle protection toggles whether the built bundle anchors to
// the real parent block hash or the zero hash.
func TestScenario6_UncleProtectionTogglesParentHash(t *testing.T) {
	to := common.HexToAddress("0x1111111111111111111111111111111111111111")
	queue := evmtypes.CallQueue{
		{{From: common.HexToAddress("0xaaaa000000000000000000000000000000aaaa"), To: &to, Value: uint256.NewInt(0), Data: []byte{0x01}}},
	}
	planner := &submit.Planner{ChainID: 1}

	offBundles, err := planner.PlanRelay(queue, common.Hash{}, uint256.NewInt(0))
	require.NoError(t, err)
	require.Len(t, offBundles, 1)
	assert.Equal(t, common.Hash{}, offBundles[0].ParentBlockHash)

	realHash := common.HexToHash("0xfeed000000000000000000000000000000000000000000000000000000be")
	onBundles, err := planner.PlanRelay(queue, realHash, uint256.NewInt(0))
	require.NoError(t, err)
	require.Len(t, onBundles, 1)
	assert.Equal(t, realHash, onBundles[0].ParentBlockHash)
	assert.NotEqual(t, offBundles[0].ParentBlockHash, onBundles[0].ParentBlockHash)
}
