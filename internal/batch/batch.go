// Package batch encodes a group of rewritten calls into the calldata the
// batch-executor contract's
// `run(bytes payload)` entry point expects, anchored to a parent block hash
// for uncle protection and carrying a priority fee for the block producer.
package batch

import (
	"fmt"
	"math/big"

	"github.com/coilmev/frontrun/internal/evmtypes"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	bytes32Type, _  = abi.NewType("bytes32", "", nil)
	uint256Type, _  = abi.NewType("uint256", "", nil)
	bytesArrType, _ = abi.NewType("bytes[]", "", nil)
	addressType, _  = abi.NewType("address", "", nil)
	bytesType, _    = abi.NewType("bytes", "", nil)

	payloadArgs = abi.Arguments{
		{Type: bytes32Type},
		{Type: uint256Type},
		{Type: bytesArrType},
	}
	callArgs = abi.Arguments{
		{Type: addressType},
		{Type: uint256Type},
		{Type: bytesType},
	}
)

// Build ABI-encodes the tuple (bytes32 parentBlockHash, uint256 priorityFee,
// bytes[] calls), where each calls[i] is itself abi.encode(address to,
// uint256 value, bytes data). A Create call (To == nil) encodes its `to`
// argument as the zero address; the contract is expected to treat a call
// with a zero `to` and non-empty `data` as a deployment.
func Build(calls []evmtypes.RewrittenCall, parentBlockHash common.Hash, priorityFee *uint256.Int) ([]byte, error) {
	if priorityFee == nil {
		priorityFee = uint256.NewInt(0)
	}

	encodedCalls := make([][]byte, len(calls))
	for i, c := range calls {
		to := common.Address{}
		if c.To != nil {
			to = *c.To
		}
		value := c.Value
		if value == nil {
			value = uint256.NewInt(0)
		}
		packed, err := callArgs.Pack(to, value.ToBig(), c.Data)
		if err != nil {
			return nil, fmt.Errorf("encode call %d: %w", i, err)
		}
		encodedCalls[i] = packed
	}

	payload, err := payloadArgs.Pack(parentBlockHash, priorityFee.ToBig(), encodedCalls)
	if err != nil {
		return nil, fmt.Errorf("encode batch payload: %w", err)
	}
	return payload, nil
}

// DecodedCall is the decoded form of one inner encoded call, used by
// Decode's round-trip verification.
type DecodedCall struct {
	To    common.Address
	Value *uint256.Int
	Data  []byte
}

// DecodedBatch is the decoded form of a payload built by Build.
type DecodedBatch struct {
	ParentBlockHash common.Hash
	PriorityFee     *uint256.Int
	Calls           []DecodedCall
}

// Decode is the inverse of Build: decoding a built batch payload yields the
// original parent hash, priority fee, and call list bit-for-bit.
func Decode(payload []byte) (*DecodedBatch, error) {
	values, err := payloadArgs.Unpack(payload)
	if err != nil {
		return nil, fmt.Errorf("decode batch payload: %w", err)
	}
	if len(values) != 3 {
		return nil, fmt.Errorf("decode batch payload: expected 3 fields, got %d", len(values))
	}

	parentHash, ok := values[0].([32]byte)
	if !ok {
		return nil, fmt.Errorf("decode batch payload: unexpected parentBlockHash type %T", values[0])
	}
	priorityFeeBig, ok := values[1].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("decode batch payload: unexpected priorityFee type %T", values[1])
	}
	encodedCalls, ok := values[2].([][]byte)
	if !ok {
		return nil, fmt.Errorf("decode batch payload: unexpected calls type %T", values[2])
	}

	decoded := &DecodedBatch{
		ParentBlockHash: common.Hash(parentHash),
		PriorityFee:     uint256.MustFromBig(priorityFeeBig),
	}
	for i, raw := range encodedCalls {
		values, err := callArgs.Unpack(raw)
		if err != nil {
			return nil, fmt.Errorf("decode call %d: %w", i, err)
		}
		to, ok := values[0].(common.Address)
		if !ok {
			return nil, fmt.Errorf("decode call %d: unexpected to type %T", i, values[0])
		}
		value, ok := values[1].(*big.Int)
		if !ok {
			return nil, fmt.Errorf("decode call %d: unexpected value type %T", i, values[1])
		}
		data, ok := values[2].([]byte)
		if !ok {
			return nil, fmt.Errorf("decode call %d: unexpected data type %T", i, values[2])
		}
		decoded.Calls = append(decoded.Calls, DecodedCall{
			To:    to,
			Value: uint256.MustFromBig(value),
			Data:  data,
		})
	}
	return decoded, nil
}
