package batch

import (
	"testing"

	"github.com/coilmev/frontrun/internal/evmtypes"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDecode_RoundTrip(t *testing.T) {
	to1 := common.HexToAddress("0x1111111111111111111111111111111111111111")
	calls := []evmtypes.RewrittenCall{
		{From: common.HexToAddress("0xaaaa000000000000000000000000000000aaaa"), To: &to1, Value: uint256.NewInt(7), Data: []byte{0xde, 0xad, 0xbe, 0xef}},
		{From: common.HexToAddress("0xaaaa000000000000000000000000000000aaaa"), To: nil, Value: uint256.NewInt(0), Data: []byte{0x60, 0x80}},
	}
	parentHash := common.HexToHash("0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef")
	priority := uint256.NewInt(12345)

	payload, err := Build(calls, parentHash, priority)
	require.NoError(t, err)

	decoded, err := Decode(payload)
	require.NoError(t, err)

	assert.Equal(t, parentHash, decoded.ParentBlockHash)
	assert.Equal(t, priority, decoded.PriorityFee)
	require.Len(t, decoded.Calls, 2)
	assert.Equal(t, to1, decoded.Calls[0].To)
	assert.Equal(t, uint256.NewInt(7), decoded.Calls[0].Value)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, decoded.Calls[0].Data)
	assert.Equal(t, common.Address{}, decoded.Calls[1].To)
	assert.Equal(t, []byte{0x60, 0x80}, decoded.Calls[1].Data)
}

func TestBuild_ZeroHashWithoutUncleProtection(t *testing.T) {
	payload, err := Build(nil, common.Hash{}, uint256.NewInt(0))
	require.NoError(t, err)
	decoded, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, common.Hash{}, decoded.ParentBlockHash)
	assert.Empty(t, decoded.Calls)
}
