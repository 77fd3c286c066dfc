// Package types defines the protocol's wire-level data model: Hash, ID32,
// Message, Update, SignedUpdate, DoubleUpdate, Proof, and the
// CommittedMessage/RawCommittedMessage pair, along with their canonical
// big-endian encodings from spec section 6.
package types
