// Package rewrite substitutes the original sender's address for the
// controlled actor's address wherever it appears in a call's data, so that
// contract calls which embed the caller's address as an argument (recipient,
// beneficiary) redirect their value to the controlled actor instead.
//
// This is a heuristic, not an ABI-aware rewrite: it performs a global,
// byte-aligned replace of one 20-byte address for another anywhere in the
// calldata. Collisions with unrelated calldata segments are possible but
// rare in practice.
package rewrite

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
)

// Rewrite returns data with every byte-aligned occurrence of from's 20
// bytes replaced by to's. If from does not occur in data, data is
// returned unchanged. Rewrite depends only on its arguments: no network or
// clock access.
func Rewrite(data []byte, from, to common.Address) []byte {
	if len(data) == 0 {
		return data
	}

	if !bytes.Contains(data, from.Bytes()) {
		return data
	}
	return bytes.ReplaceAll(data, from.Bytes(), to.Bytes())
}
