package types

import (
	"encoding/binary"
	"fmt"

	"github.com/nomadprotocol/agents/pkg/cryptoutil"
)

// signedUpdateWireLen is home_domain(4) || previous_root(32) || new_root(32) || signature(65).
const signedUpdateWireLen = 4 + 32 + 32 + cryptoutil.SignatureLength

// Encode returns the storage framing of a SignedUpdate.
func (s SignedUpdate) Encode() []byte {
	out := make([]byte, signedUpdateWireLen)
	binary.BigEndian.PutUint32(out[0:4], s.Update.HomeDomain)
	copy(out[4:36], s.Update.PreviousRoot[:])
	copy(out[36:68], s.Update.NewRoot[:])
	copy(out[68:], s.Signature[:])
	return out
}

// DecodeSignedUpdate unframes b into a SignedUpdate.
func DecodeSignedUpdate(b []byte) (SignedUpdate, error) {
	if len(b) != signedUpdateWireLen {
		return SignedUpdate{}, fmt.Errorf("types: decode signed update: wrong length (%d != %d)", len(b), signedUpdateWireLen)
	}
	var s SignedUpdate
	s.Update.HomeDomain = binary.BigEndian.Uint32(b[0:4])
	copy(s.Update.PreviousRoot[:], b[4:36])
	copy(s.Update.NewRoot[:], b[36:68])
	copy(s.Signature[:], b[68:])
	return s, nil
}
