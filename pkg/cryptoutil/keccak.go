// Package cryptoutil wraps the hashing and signing primitives the rest of
// the module needs: Keccak256 for leaf and domain hashing, and secp256k1
// ECDSA sign/recover for Update attestations. Both are provided by
// go-ethereum's crypto package rather than reimplemented, since the wire
// formats in spec section 6 (65-byte r||s||v signatures, Keccak256 images)
// are exactly go-ethereum's conventions.
package cryptoutil

import "github.com/ethereum/go-ethereum/crypto"

// Keccak256 hashes the concatenation of all arguments and returns the
// 32-byte digest.
func Keccak256(data ...[]byte) [32]byte {
	return [32]byte(crypto.Keccak256(data...))
}

// Keccak256Hash is Keccak256 with a single []byte argument, kept for call
// sites that already have one contiguous buffer.
func Keccak256Hash(data []byte) [32]byte {
	return Keccak256(data)
}
