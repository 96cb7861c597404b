// Package evmtypes holds the data model shared by every stage of the
// frontrunning pipeline: the observed transaction, the state diff and call
// trace produced by a tracing node, and the rewritten calls synthesized from
// them. None of these types carry behavior beyond JSON decoding — they are
// plain records passed from stage to stage and discarded once an action has
// been submitted.
package evmtypes

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// Transaction is the subset of an observed pending (or mined) transaction
// the pipeline needs.
type Transaction struct {
	Hash        common.Hash
	From        common.Address
	To          *common.Address
	Nonce       uint64
	Value       *uint256.Int
	Input       []byte
	BlockNumber *uint64 // nil while still pending
}

// Changed represents the "unchanged or changed" shape Parity/Erigon/Reth
// use for every field of a state diff entry: either the literal string "="
// or an object carrying before/after values (or a one-sided "+"/"-" for
// accounts that were born or destroyed in the traced execution).
type Changed[T any] struct {
	IsChanged bool
	From      T
	To        T
}

func (c Changed[T]) unmarshalFromRaw(raw json.RawMessage, parse func(json.RawMessage) (T, error)) (Changed[T], error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == `"="` {
		return Changed[T]{}, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Changed[T]{}, fmt.Errorf("decode diff entry: %w", err)
	}

	var zero T
	if star, ok := obj["*"]; ok {
		var pair struct {
			From json.RawMessage `json:"from"`
			To   json.RawMessage `json:"to"`
		}
		if err := json.Unmarshal(star, &pair); err != nil {
			return Changed[T]{}, fmt.Errorf("decode changed diff entry: %w", err)
		}
		from, err := parse(pair.From)
		if err != nil {
			return Changed[T]{}, err
		}
		to, err := parse(pair.To)
		if err != nil {
			return Changed[T]{}, err
		}
		return Changed[T]{IsChanged: true, From: from, To: to}, nil
	}
	if born, ok := obj["+"]; ok {
		to, err := parse(born)
		if err != nil {
			return Changed[T]{}, err
		}
		return Changed[T]{IsChanged: true, From: zero, To: to}, nil
	}
	if died, ok := obj["-"]; ok {
		from, err := parse(died)
		if err != nil {
			return Changed[T]{}, err
		}
		return Changed[T]{IsChanged: true, From: from, To: zero}, nil
	}

	return Changed[T]{}, fmt.Errorf("unrecognized diff entry: %s", trimmed)
}

// ChangedU256 is a Changed[*uint256.Int] with its own JSON decoding, since Go
// generics cannot carry methods that specialize on the type parameter.
type ChangedU256 struct {
	Changed[*uint256.Int]
}

func (c *ChangedU256) UnmarshalJSON(raw []byte) error {
	parsed, err := (Changed[*uint256.Int]{}).unmarshalFromRaw(json.RawMessage(raw), parseHexU256)
	if err != nil {
		return err
	}
	// A born/died entry leaves one side as the nil zero value; fold it to 0.
	if parsed.IsChanged {
		if parsed.From == nil {
			parsed.From = uint256.NewInt(0)
		}
		if parsed.To == nil {
			parsed.To = uint256.NewInt(0)
		}
	}
	c.Changed = parsed
	return nil
}

func parseHexU256(raw json.RawMessage) (*uint256.Int, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode hex value: %w", err)
	}
	if s == "" || s == "0x" {
		return uint256.NewInt(0), nil
	}
	v, err := uint256.FromHex(s)
	if err != nil {
		return nil, fmt.Errorf("parse hex value %q: %w", s, err)
	}
	return v, nil
}

// AccountDiff is the per-account entry of a StateDiff. Storage and code
// diffs are decoded (to keep the JSON schema honest) but otherwise ignored:
// only balance and nonce feed the analyzer.
type AccountDiff struct {
	Balance ChangedU256     `json:"balance"`
	Nonce   ChangedU256     `json:"nonce"`
	Code    json.RawMessage `json:"code"`
	Storage json.RawMessage `json:"storage"`
}

// StateDiff maps address to its AccountDiff.
type StateDiff map[common.Address]AccountDiff

// ActionType discriminates the TraceAction union.
type ActionType string

const (
	ActionCall   ActionType = "call"
	ActionCreate ActionType = "create"
	ActionOther  ActionType = "other"
)

// TraceAction is the flattened union of Call/Create/other trace actions.
// Only Call and Create carry fields the rest of the pipeline consumes;
// any other `type` (e.g. "suicide", "reward") decodes to ActionOther with
// no fields populated, and is always skipped downstream.
type TraceAction struct {
	Type  ActionType
	From  common.Address
	To    common.Address // Call only
	Value *uint256.Int
	Input []byte // Call: calldata: Create: init code
}

type rawTraceEntry struct {
	Type         string          `json:"type"`
	Action       json.RawMessage `json:"action"`
	TraceAddress []int           `json:"traceAddress"`
	Subtraces    int             `json:"subtraces"`
}

type rawCallAction struct {
	From  common.Address `json:"from"`
	To    common.Address `json:"to"`
	Value hexutil.Big    `json:"value"`
	Input hexutil.Bytes  `json:"input"`
}

type rawCreateAction struct {
	From  common.Address `json:"from"`
	Value hexutil.Big    `json:"value"`
	Init  hexutil.Bytes  `json:"init"`
}

// TransactionTrace is one flattened node of the call tree, addressed by its
// path into the tree (empty for the root).
type TransactionTrace struct {
	Action       TraceAction
	TraceAddress []int
	Subtraces    int
}

func (t *TransactionTrace) UnmarshalJSON(data []byte) error {
	var raw rawTraceEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode trace entry: %w", err)
	}
	t.TraceAddress = raw.TraceAddress
	t.Subtraces = raw.Subtraces

	switch raw.Type {
	case "call":
		var a rawCallAction
		if err := json.Unmarshal(raw.Action, &a); err != nil {
			return fmt.Errorf("decode call action: %w", err)
		}
		t.Action = TraceAction{
			Type:  ActionCall,
			From:  a.From,
			To:    a.To,
			Value: uint256.MustFromBig(a.Value.ToInt()),
			Input: a.Input,
		}
	case "create":
		var a rawCreateAction
		if err := json.Unmarshal(raw.Action, &a); err != nil {
			return fmt.Errorf("decode create action: %w", err)
		}
		t.Action = TraceAction{
			Type:  ActionCreate,
			From:  a.From,
			Value: uint256.MustFromBig(a.Value.ToInt()),
			Input: a.Init,
		}
	default:
		t.Action = TraceAction{Type: ActionOther}
	}
	return nil
}

// BlockTrace is the merged node response for a single simulated
// transaction: the flattened call trace plus the resulting state diff.
type BlockTrace struct {
	StateDiff *StateDiff         `json:"stateDiff"`
	Trace     []TransactionTrace `json:"trace"`
}

// RewrittenCall is a single call synthesized from a traced action, with its
// originator substituted for the controlled actor. Gas, gas price and nonce
// are intentionally left unset; the executor fills them in at signing time.
type RewrittenCall struct {
	From  common.Address
	To    *common.Address // nil for a Create
	Value *uint256.Int
	Data  []byte
}

// CallQueue is an ordered list of groups of calls meant to be replayed
// atomically. It has at most two groups: the root call alone, then the
// root's direct subcalls.
type CallQueue [][]RewrittenCall

// Bundle is the fully-formed payload handed to the submission planner.
type Bundle struct {
	ParentBlockHash common.Hash
	PriorityFee     *uint256.Int
	Calls           []RewrittenCall
}

// DiffAnalysis is the output of the diff analyzer for a single account.
type DiffAnalysis struct {
	IncreaseBalance bool
	BalanceDiff     *uint256.Int
	InvalidNonce    bool
}
