package types

import (
	"encoding/hex"

	"github.com/nomadprotocol/agents/pkg/cryptoutil"
)

// Hash is a 32-byte opaque digest produced by Keccak256 over a
// canonical byte image. It is the unit of comparison throughout the
// protocol: leaves, roots, and update images are all Hash values.
type Hash [32]byte

// ZeroHash is the 32-byte zero leaf, ZERO[0] in the accumulator's constant
// table.
var ZeroHash Hash

// HashBytes hashes the concatenation of its arguments.
func HashBytes(parts ...[]byte) Hash {
	return Hash(cryptoutil.Keccak256(parts...))
}

// Bytes returns a copy of h as a slice.
func (h Hash) Bytes() []byte {
	b := make([]byte, 32)
	copy(b, h[:])
	return b
}

// String renders h as a 0x-prefixed hex string.
func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// HashFromBytes copies b (which must be exactly 32 bytes) into a Hash.
func HashFromBytes(b []byte) (Hash, bool) {
	var h Hash
	if len(b) != 32 {
		return h, false
	}
	copy(h[:], b)
	return h, true
}
