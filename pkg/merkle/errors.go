package merkle

import "errors"

var (
	// ErrTreeFull is returned by Insert once count has reached 2^Depth.
	ErrTreeFull = errors.New("merkle: tree is full")

	// ErrIndexOutOfRange is returned by Prove when the requested index has
	// not been inserted yet.
	ErrIndexOutOfRange = errors.New("merkle: leaf index out of range")

	// ErrDepthMismatch is returned when two trees or a proof and a tree
	// disagree on Depth.
	ErrDepthMismatch = errors.New("merkle: depth mismatch")
)
