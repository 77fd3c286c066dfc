package types

import (
	"encoding/binary"
	"fmt"
)

// CommittedMessage is emitted by the home at dispatch time. LeafIndex
// equals tree size immediately before insertion; CommittedRoot is the tree
// root immediately after insertion.
type CommittedMessage struct {
	LeafIndex     uint32
	CommittedRoot Hash
	Message       Message
}

// Leaf returns the leaf hash of the wrapped message.
func (c CommittedMessage) Leaf() Hash {
	return c.Message.Leaf()
}

// RawCommittedMessage is the storage framing of a CommittedMessage:
// leaf_index(4) || committed_root(32) || message_bytes(var).
type RawCommittedMessage []byte

// EncodeRawCommittedMessage frames c for storage.
func EncodeRawCommittedMessage(c CommittedMessage) RawCommittedMessage {
	msgBytes := c.Message.Encode()
	out := make([]byte, 4+32+len(msgBytes))
	binary.BigEndian.PutUint32(out[0:4], c.LeafIndex)
	copy(out[4:36], c.CommittedRoot[:])
	copy(out[36:], msgBytes)
	return RawCommittedMessage(out)
}

// Decode unframes r back into a CommittedMessage.
func (r RawCommittedMessage) Decode() (CommittedMessage, error) {
	if len(r) < 36 {
		return CommittedMessage{}, fmt.Errorf("types: decode raw committed message: short buffer (%d < 36)", len(r))
	}
	var c CommittedMessage
	c.LeafIndex = binary.BigEndian.Uint32(r[0:4])
	copy(c.CommittedRoot[:], r[4:36])
	msg, err := DecodeMessage(r[36:])
	if err != nil {
		return CommittedMessage{}, fmt.Errorf("types: decode raw committed message: %w", err)
	}
	c.Message = msg
	return c, nil
}
