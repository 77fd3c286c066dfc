package index

import (
	"encoding/binary"
	"fmt"

	"github.com/nomadprotocol/agents/pkg/types"
)

// UpdateMeta is the value stored under update_meta: the block the update
// was observed in, and an optional observation timestamp (unix seconds).
type UpdateMeta struct {
	BlockNumber uint64
	Timestamp   *int64
}

func encodeUpdateMeta(m UpdateMeta) []byte {
	out := make([]byte, 8, 17)
	binary.BigEndian.PutUint64(out, m.BlockNumber)
	if m.Timestamp == nil {
		return append(out, 0)
	}
	out = append(out, 1)
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(*m.Timestamp))
	return append(out, ts[:]...)
}

func decodeUpdateMeta(b []byte) (UpdateMeta, error) {
	if len(b) < 9 {
		return UpdateMeta{}, fmt.Errorf("%w: update meta too short", ErrDecode)
	}
	m := UpdateMeta{BlockNumber: binary.BigEndian.Uint64(b[0:8])}
	if b[8] == 1 {
		if len(b) < 17 {
			return UpdateMeta{}, fmt.Errorf("%w: update meta missing timestamp", ErrDecode)
		}
		ts := int64(binary.BigEndian.Uint64(b[9:17]))
		m.Timestamp = &ts
	}
	return m, nil
}

// StoreUpdate writes a SignedUpdate under both update_prev[previous_root]
// and update_new[new_root], satisfying invariant I1: the same object is
// reachable from either root. meta, if non-nil, is stored alongside under
// update_meta[new_root].
func (db *DB) StoreUpdate(entity string, su types.SignedUpdate, meta *UpdateMeta) error {
	encoded := su.Encode()
	if err := db.StoreEncodable(entity, PrefixUpdatePrev, su.Update.PreviousRoot[:], encoded); err != nil {
		return err
	}
	if err := db.StoreEncodable(entity, PrefixUpdateNew, su.Update.NewRoot[:], encoded); err != nil {
		return err
	}
	if meta != nil {
		if err := db.StoreEncodable(entity, PrefixUpdateMeta, su.Update.NewRoot[:], encodeUpdateMeta(*meta)); err != nil {
			return err
		}
	}
	return nil
}

// LookupUpdateByPrev returns the SignedUpdate advancing away from
// previousRoot, or ErrNotFound.
func (db *DB) LookupUpdateByPrev(entity string, previousRoot types.Hash) (types.SignedUpdate, error) {
	raw, err := db.RetrieveEncodable(entity, PrefixUpdatePrev, previousRoot[:])
	if err != nil {
		return types.SignedUpdate{}, err
	}
	su, err := types.DecodeSignedUpdate(raw)
	if err != nil {
		return types.SignedUpdate{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return su, nil
}

// LookupUpdateByNew returns the SignedUpdate that advanced the root to
// newRoot, or ErrNotFound.
func (db *DB) LookupUpdateByNew(entity string, newRoot types.Hash) (types.SignedUpdate, error) {
	raw, err := db.RetrieveEncodable(entity, PrefixUpdateNew, newRoot[:])
	if err != nil {
		return types.SignedUpdate{}, err
	}
	su, err := types.DecodeSignedUpdate(raw)
	if err != nil {
		return types.SignedUpdate{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return su, nil
}

// TipBlockKind distinguishes the two independently-watermarked sync loops.
type TipBlockKind string

const (
	TipBlockUpdates  TipBlockKind = "updates"
	TipBlockMessages TipBlockKind = "messages"
)

func (k TipBlockKind) prefix() Prefix {
	if k == TipBlockUpdates {
		return PrefixUpdateTipBlock
	}
	return PrefixMsgTipBlock
}

// SetTipBlock advances the watermark for kind to height. Per invariant I5
// tip blocks are monotonically non-decreasing; callers that might regress
// should check GetTipBlock first.
func (db *DB) SetTipBlock(entity string, kind TipBlockKind, height uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], height)
	return db.StoreEncodable(entity, kind.prefix(), nil, b[:])
}

// GetTipBlock returns the current watermark for kind, and false if unset.
func (db *DB) GetTipBlock(entity string, kind TipBlockKind) (uint64, bool, error) {
	raw, err := db.RetrieveEncodable(entity, kind.prefix(), nil)
	if err == ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if len(raw) != 8 {
		return 0, false, fmt.Errorf("%w: tip block value wrong length", ErrDecode)
	}
	return binary.BigEndian.Uint64(raw), true, nil
}
