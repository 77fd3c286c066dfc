package index

import (
	"encoding/binary"
	"fmt"

	"github.com/nomadprotocol/agents/pkg/types"
)

// MarkAttemptedProcessing records that the processor has attempted (or
// completed) processing of leaf, so a restarted processor does not
// resubmit after a prior revert.
func (db *DB) MarkAttemptedProcessing(entity string, leaf types.Hash) error {
	return db.StoreEncodable(entity, PrefixAttemptedProcessing, leaf[:], []byte{})
}

// AttemptedProcessing reports whether leaf has an attempted_processing
// marker.
func (db *DB) AttemptedProcessing(entity string, leaf types.Hash) (bool, error) {
	return db.Exists(entity, PrefixAttemptedProcessing, leaf[:])
}

// SetProcessorNonce overwrites the last-processed nonce for destination.
// Unlike most of the Index, processor_nonce is monotonically overwritten
// rather than append-only (spec section 3, Lifecycle).
func (db *DB) SetProcessorNonce(entity string, destination uint32, nonce uint32) error {
	return db.StoreEncodable(entity, PrefixProcessorNonce, encodeUint32(destination), encodeUint32(nonce))
}

// ProcessorNonce returns the last-processed nonce for destination, and
// false if none has been processed yet.
func (db *DB) ProcessorNonce(entity string, destination uint32) (uint32, bool, error) {
	raw, err := db.RetrieveEncodable(entity, PrefixProcessorNonce, encodeUint32(destination))
	if err == ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if len(raw) != 4 {
		return 0, false, fmt.Errorf("%w: processor_nonce value wrong length", ErrDecode)
	}
	return binary.BigEndian.Uint32(raw), true, nil
}
