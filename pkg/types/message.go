package types

import (
	"encoding/binary"
	"fmt"
)

// Message is the unit dispatched by a home and, eventually, processed by a
// replica.
type Message struct {
	OriginDomain      uint32
	Sender            ID32
	DestinationDomain uint32
	Recipient         ID32
	Nonce             uint32
	Body              []byte
}

// Encode returns the canonical wire image of m:
// origin(4) || sender(32) || nonce(4) || destination(4) || recipient(32) || body(var),
// big-endian. This is the byte image that is hashed to produce a Leaf and
// the image persisted inside a RawCommittedMessage.
func (m Message) Encode() []byte {
	out := make([]byte, 0, 4+32+4+4+32+len(m.Body))
	out = appendUint32(out, m.OriginDomain)
	out = append(out, m.Sender[:]...)
	out = appendUint32(out, m.Nonce)
	out = appendUint32(out, m.DestinationDomain)
	out = append(out, m.Recipient[:]...)
	out = append(out, m.Body...)
	return out
}

// Leaf returns keccak(m.Encode()), the accumulator's unit of insertion.
func (m Message) Leaf() Hash {
	return HashBytes(m.Encode())
}

// DecodeMessage parses the canonical encoding produced by Message.Encode.
func DecodeMessage(b []byte) (Message, error) {
	const minLen = 4 + 32 + 4 + 4 + 32
	if len(b) < minLen {
		return Message{}, fmt.Errorf("types: decode message: short buffer (%d < %d)", len(b), minLen)
	}
	var m Message
	off := 0
	m.OriginDomain = binary.BigEndian.Uint32(b[off:])
	off += 4
	copy(m.Sender[:], b[off:off+32])
	off += 32
	m.Nonce = binary.BigEndian.Uint32(b[off:])
	off += 4
	m.DestinationDomain = binary.BigEndian.Uint32(b[off:])
	off += 4
	copy(m.Recipient[:], b[off:off+32])
	off += 32
	if off < len(b) {
		m.Body = append([]byte(nil), b[off:]...)
	}
	return m, nil
}

func appendUint32(dst []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(dst, tmp[:]...)
}
