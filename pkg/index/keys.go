package index

import "encoding/binary"

// Prefix is one of the typed key namespaces from spec section 3.
type Prefix string

const (
	PrefixUpdatePrev          Prefix = "update_prev"
	PrefixUpdateNew           Prefix = "update_new"
	PrefixUpdateMeta          Prefix = "update_meta"
	PrefixUpdateTipBlock      Prefix = "update_tip_block"
	PrefixMsgNonce            Prefix = "msg_nonce"
	PrefixMsgLeaf             Prefix = "msg_leaf"
	PrefixLeafByIndex         Prefix = "leaf_by_index"
	PrefixProofByIndex        Prefix = "proof_by_index"
	PrefixMsgTipBlock         Prefix = "msg_tip_block"
	PrefixProducedUpdate      Prefix = "produced_update"
	PrefixAttemptedProcessing Prefix = "attempted_processing"
	PrefixProcessorNonce      Prefix = "processor_nonce"
)

const keySep = 0x00

// buildKey produces the full backing-store key
// <entity>\x00<prefix_tag>\x00<key_bytes>.
func buildKey(entity string, prefix Prefix, keyBytes []byte) []byte {
	out := make([]byte, 0, len(entity)+1+len(prefix)+1+len(keyBytes))
	out = append(out, entity...)
	out = append(out, keySep)
	out = append(out, prefix...)
	out = append(out, keySep)
	out = append(out, keyBytes...)
	return out
}

// scanPrefix returns the prefix shared by every key under (entity, prefix),
// suitable as a Pebble iterator lower bound; upperBound extends it to an
// exclusive upper bound.
func scanPrefix(entity string, prefix Prefix) []byte {
	return buildKey(entity, prefix, nil)
}

func prefixUpperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] != 0xFF {
			upper[i]++
			return upper[:i+1]
		}
	}
	// all 0xFF: no finite upper bound, caller should not bound the scan.
	return nil
}

func encodeUint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func decodeUint32(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}

// msgNonceKey encodes (destination, nonce) as an 8-byte big-endian pair.
func msgNonceKey(destination, nonce uint32) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint32(b[0:4], destination)
	binary.BigEndian.PutUint32(b[4:8], nonce)
	return b
}
