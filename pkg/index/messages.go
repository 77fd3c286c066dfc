package index

import (
	"fmt"

	"github.com/nomadprotocol/agents/pkg/types"
)

// StoreMessage writes a CommittedMessage under msg_nonce, msg_leaf, and
// leaf_by_index, satisfying invariant I2. It enforces I3 (leaf_by_index is
// dense) by rejecting an insert that would leave a gap.
func (db *DB) StoreMessage(entity string, c types.CommittedMessage) error {
	if c.LeafIndex > 0 {
		if _, _, err := db.LookupLeafByIndex(entity, c.LeafIndex-1); err != nil {
			if err == ErrNotFound {
				return fmt.Errorf("index: store message: leaf_by_index would have a gap before index %d", c.LeafIndex)
			}
			return err
		}
	}

	leaf := c.Leaf()
	raw := types.EncodeRawCommittedMessage(c)

	nonceKey := msgNonceKey(c.Message.DestinationDomain, c.Message.Nonce)
	if err := db.StoreEncodable(entity, PrefixMsgNonce, nonceKey, raw); err != nil {
		return err
	}
	if err := db.StoreEncodable(entity, PrefixMsgLeaf, leaf[:], raw); err != nil {
		return err
	}
	if err := db.StoreEncodable(entity, PrefixLeafByIndex, encodeUint32(c.LeafIndex), leaf[:]); err != nil {
		return err
	}
	return nil
}

// LookupMessageByNonce returns the message dispatched to (destination, nonce).
func (db *DB) LookupMessageByNonce(entity string, destination, nonce uint32) (types.CommittedMessage, error) {
	raw, err := db.RetrieveEncodable(entity, PrefixMsgNonce, msgNonceKey(destination, nonce))
	if err != nil {
		return types.CommittedMessage{}, err
	}
	return decodeCommittedMessage(raw)
}

// LookupMessageByLeaf returns the message whose leaf hash is leaf.
func (db *DB) LookupMessageByLeaf(entity string, leaf types.Hash) (types.CommittedMessage, error) {
	raw, err := db.RetrieveEncodable(entity, PrefixMsgLeaf, leaf[:])
	if err != nil {
		return types.CommittedMessage{}, err
	}
	return decodeCommittedMessage(raw)
}

// LookupLeafByIndex returns the leaf hash stored at leafIndex and, for
// convenience, the full message (a second lookup via msg_leaf).
func (db *DB) LookupLeafByIndex(entity string, leafIndex uint32) (types.Hash, types.CommittedMessage, error) {
	raw, err := db.RetrieveEncodable(entity, PrefixLeafByIndex, encodeUint32(leafIndex))
	if err != nil {
		return types.Hash{}, types.CommittedMessage{}, err
	}
	leaf, ok := types.HashFromBytes(raw)
	if !ok {
		return types.Hash{}, types.CommittedMessage{}, fmt.Errorf("%w: leaf_by_index value wrong length", ErrDecode)
	}
	msg, err := db.LookupMessageByLeaf(entity, leaf)
	if err != nil {
		return leaf, types.CommittedMessage{}, err
	}
	return leaf, msg, nil
}

func decodeCommittedMessage(raw []byte) (types.CommittedMessage, error) {
	c, err := types.RawCommittedMessage(raw).Decode()
	if err != nil {
		return types.CommittedMessage{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return c, nil
}
