package types

import (
	"encoding/binary"
	"fmt"
)

// Depth is the canonical accumulator depth, D in spec section 3.
const Depth = 32

// Proof is an inclusion path: hashing Leaf up through Path, choosing
// left/right at level i by bit i of Index, reproduces an accepted root.
type Proof struct {
	Leaf  Hash
	Index uint32
	Path  [Depth]Hash
}

// proofWireLen is leaf(32) || index(8) || path(32*Depth), per spec section 6.
const proofWireLen = 32 + 8 + 32*Depth

// Encode returns the storage framing of p.
func (p Proof) Encode() []byte {
	out := make([]byte, proofWireLen)
	copy(out[0:32], p.Leaf[:])
	binary.BigEndian.PutUint64(out[32:40], uint64(p.Index))
	for i, h := range p.Path {
		copy(out[40+i*32:40+(i+1)*32], h[:])
	}
	return out
}

// DecodeProof unframes b into a Proof.
func DecodeProof(b []byte) (Proof, error) {
	if len(b) != proofWireLen {
		return Proof{}, fmt.Errorf("types: decode proof: wrong length (%d != %d)", len(b), proofWireLen)
	}
	var p Proof
	copy(p.Leaf[:], b[0:32])
	p.Index = uint32(binary.BigEndian.Uint64(b[32:40]))
	for i := range p.Path {
		copy(p.Path[i][:], b[40+i*32:40+(i+1)*32])
	}
	return p, nil
}
