package index

import (
	"fmt"

	"github.com/nomadprotocol/agents/pkg/types"
)

// StoreProof writes the inclusion proof for leafIndex. Proofs are
// write-once: per the Index's lifecycle rules only tip-block markers and
// processor_nonce are overwritten, so a second, differing write is treated
// as a reorg contradiction rather than silently accepted.
func (db *DB) StoreProof(entity string, leafIndex uint32, p types.Proof) error {
	existing, err := db.RetrieveEncodable(entity, PrefixProofByIndex, encodeUint32(leafIndex))
	if err == nil {
		if string(existing) != string(p.Encode()) {
			return fmt.Errorf("%w: proof_by_index[%d]", ErrReorgContradiction, leafIndex)
		}
		return nil
	}
	if err != ErrNotFound {
		return err
	}
	return db.StoreEncodable(entity, PrefixProofByIndex, encodeUint32(leafIndex), p.Encode())
}

// LookupProof returns the stored proof for leafIndex, or ErrNotFound.
func (db *DB) LookupProof(entity string, leafIndex uint32) (types.Proof, error) {
	raw, err := db.RetrieveEncodable(entity, PrefixProofByIndex, encodeUint32(leafIndex))
	if err != nil {
		return types.Proof{}, err
	}
	p, err := types.DecodeProof(raw)
	if err != nil {
		return types.Proof{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return p, nil
}
