package index

import (
	"fmt"

	"github.com/nomadprotocol/agents/pkg/types"
)

// ErrProducerConflict is returned by StoreProducedUpdate when a different
// value already exists for the same previous root — the local agent
// attempted to sign two different roots on top of one previous root.
// Invariant I4 requires the Index to detect and refuse this, never
// overwrite.
var ErrProducerConflict = fmt.Errorf("index: producer conflict")

// StoreProducedUpdate records a locally-produced SignedUpdate under
// produced_update[previous_root]. It enforces I4: a second write for the
// same previous root with a different new root is refused and reported,
// not persisted.
func (db *DB) StoreProducedUpdate(entity string, su types.SignedUpdate) error {
	existing, err := db.LookupProducedUpdate(entity, su.Update.PreviousRoot)
	if err == nil {
		if existing.Update.NewRoot != su.Update.NewRoot {
			return fmt.Errorf("%w: previous_root=%s existing_new=%s attempted_new=%s",
				ErrProducerConflict, su.Update.PreviousRoot, existing.Update.NewRoot, su.Update.NewRoot)
		}
		return nil
	}
	if err != ErrNotFound {
		return err
	}
	return db.StoreEncodable(entity, PrefixProducedUpdate, su.Update.PreviousRoot[:], su.Encode())
}

// LookupProducedUpdate returns the locally-produced update for
// previousRoot, or ErrNotFound.
func (db *DB) LookupProducedUpdate(entity string, previousRoot types.Hash) (types.SignedUpdate, error) {
	raw, err := db.RetrieveEncodable(entity, PrefixProducedUpdate, previousRoot[:])
	if err != nil {
		return types.SignedUpdate{}, err
	}
	su, err := types.DecodeSignedUpdate(raw)
	if err != nil {
		return types.SignedUpdate{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return su, nil
}
