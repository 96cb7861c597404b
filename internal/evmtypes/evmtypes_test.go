package evmtypes

import (
	"encoding/json"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangedU256_UnmarshalJSON_Unchanged(t *testing.T) {
	var c ChangedU256
	require.NoError(t, json.Unmarshal([]byte(`"="`), &c))
	assert.False(t, c.IsChanged)
	assert.Nil(t, c.From)
	assert.Nil(t, c.To)
}

func TestChangedU256_UnmarshalJSON_Changed(t *testing.T) {
	var c ChangedU256
	require.NoError(t, json.Unmarshal([]byte(`{"*":{"from":"0x1","to":"0x2"}}`), &c))
	assert.True(t, c.IsChanged)
	assert.Equal(t, uint256.NewInt(1), c.From)
	assert.Equal(t, uint256.NewInt(2), c.To)
}

func TestChangedU256_UnmarshalJSON_Born(t *testing.T) {
	var c ChangedU256
	require.NoError(t, json.Unmarshal([]byte(`{"+":"0x64"}`), &c))
	assert.True(t, c.IsChanged)
	assert.Equal(t, uint256.NewInt(0), c.From)
	assert.Equal(t, uint256.NewInt(100), c.To)
}

func TestChangedU256_UnmarshalJSON_Died(t *testing.T) {
	var c ChangedU256
	require.NoError(t, json.Unmarshal([]byte(`{"-":"0x64"}`), &c))
	assert.True(t, c.IsChanged)
	assert.Equal(t, uint256.NewInt(100), c.From)
	assert.Equal(t, uint256.NewInt(0), c.To)
}

func TestChangedU256_UnmarshalJSON_Unrecognized(t *testing.T) {
	var c ChangedU256
	err := json.Unmarshal([]byte(`{"?":"0x1"}`), &c)
	assert.Error(t, err)
}

// AccountDiff is the shape this decoder actually runs through in practice:
// a trace_call stateDiff entry mixing the changed and unchanged forms
// across its fields.
func TestAccountDiff_UnmarshalJSON_MixedEntry(t *testing.T) {
	raw := []byte(`{
		"balance": {"*":{"from":"0xde0b6b3a7640000","to":"0x1bc16d674ec80000"}},
		"nonce": "=",
		"code": "=",
		"storage": {}
	}`)
	var diff AccountDiff
	require.NoError(t, json.Unmarshal(raw, &diff))

	assert.True(t, diff.Balance.IsChanged)
	assert.Equal(t, uint256.NewInt(1000000000000000000), diff.Balance.From)
	assert.Equal(t, uint256.NewInt(2000000000000000000), diff.Balance.To)
	assert.False(t, diff.Nonce.IsChanged)
}

func TestAccountDiff_UnmarshalJSON_BornAccount(t *testing.T) {
	raw := []byte(`{
		"balance": {"+":"0x1"},
		"nonce": {"+":"0x0"},
		"code": "=",
		"storage": {}
	}`)
	var diff AccountDiff
	require.NoError(t, json.Unmarshal(raw, &diff))

	assert.True(t, diff.Balance.IsChanged)
	assert.Equal(t, uint256.NewInt(0), diff.Balance.From)
	assert.Equal(t, uint256.NewInt(1), diff.Balance.To)
}

func TestStateDiff_UnmarshalJSON(t *testing.T) {
	raw := []byte(`{
		"0xaaaa00000000000000000000000000000000aaaa": {
			"balance": {"-":"0x64"},
			"nonce": "=",
			"code": "=",
			"storage": {}
		}
	}`)
	var diff StateDiff
	require.NoError(t, json.Unmarshal(raw, &diff))
	require.Len(t, diff, 1)
	for _, acc := range diff {
		assert.True(t, acc.Balance.IsChanged)
		assert.Equal(t, uint256.NewInt(100), acc.Balance.From)
		assert.Equal(t, uint256.NewInt(0), acc.Balance.To)
	}
}
