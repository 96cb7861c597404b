// Package tracequeue decomposes a simulated execution trace: it turns the
// flat, path-addressed call trace produced by a tracing node into
// an ordered CallQueue of RewrittenCall groups that can be replayed as if
// originated by the controlled actor.
package tracequeue

import (
	"github.com/coilmev/frontrun/internal/evmtypes"
	"github.com/coilmev/frontrun/internal/rewrite"
	"github.com/ethereum/go-ethereum/common"
)

// traceKey maps a trace_address path to a positional index: the empty path
// (root) maps to 0; a path of length n maps to
// sum(path[n-1-i] * 2^i) + n, which uniquely separates the root from every
// first-level sibling (path length 1: keys 1, 2, 3, ...). Deeper nodes are
// never looked up, so collisions below the first level are harmless.
func traceKey(path []int) int {
	key := 0
	for i, v := range reversed(path) {
		key += v*pow2(i) + 1
	}
	return key
}

func reversed(path []int) []int {
	out := make([]int, len(path))
	for i, v := range path {
		out[len(path)-1-i] = v
	}
	return out
}

func pow2(n int) int {
	r := 1
	for i := 0; i < n; i++ {
		r *= 2
	}
	return r
}

// Decompose builds the CallQueue from a BlockTrace:
//
//  1. index every TransactionTrace by traceKey(trace_address);
//  2. the root (key 0), if Call/Create, becomes the sole first group;
//  3. each of the root's subtraces direct children (keys 1..subtraces),
//     if Call/Create, is synthesized and accumulated into a second group;
//     a child whose action is neither Call nor Create is skipped, so one
//     unconvertible subcall does not discard the rest of the group.
//
// substitute is the address calldata should be rewritten to point at (the
// controlled actor's EOA, or its deployed batch-executor contract).
func Decompose(trace evmtypes.BlockTrace, signer, substitute common.Address) evmtypes.CallQueue {
	queue := evmtypes.CallQueue{}
	if trace.Trace == nil {
		return queue
	}

	byKey := make(map[int]*evmtypes.TransactionTrace, len(trace.Trace))
	for i := range trace.Trace {
		t := &trace.Trace[i]
		byKey[traceKey(t.TraceAddress)] = t
	}

	root, ok := byKey[0]
	if !ok {
		return queue
	}

	if call, ok := synthesize(root, signer, substitute); ok {
		queue = append(queue, []evmtypes.RewrittenCall{call})
	}

	var internal []evmtypes.RewrittenCall
	for i := 1; i <= root.Subtraces; i++ {
		child, ok := byKey[i]
		if !ok {
			continue
		}
		call, ok := synthesize(child, signer, substitute)
		if !ok {
			continue
		}
		internal = append(internal, call)
	}
	if len(internal) > 0 {
		queue = append(queue, internal)
	}

	return queue
}

// synthesize builds the RewrittenCall for a single traced action. Gas, gas
// price and nonce are left for the executor to fill in at signing time.
func synthesize(t *evmtypes.TransactionTrace, signer, substitute common.Address) (evmtypes.RewrittenCall, bool) {
	switch t.Action.Type {
	case evmtypes.ActionCall:
		to := t.Action.To
		return evmtypes.RewrittenCall{
			From:  signer,
			To:    &to,
			Value: t.Action.Value,
			Data:  rewrite.Rewrite(t.Action.Input, t.Action.From, substitute),
		}, true
	case evmtypes.ActionCreate:
		return evmtypes.RewrittenCall{
			From:  signer,
			To:    nil,
			Value: t.Action.Value,
			Data:  rewrite.Rewrite(t.Action.Input, t.Action.From, substitute),
		}, true
	default:
		return evmtypes.RewrittenCall{}, false
	}
}
