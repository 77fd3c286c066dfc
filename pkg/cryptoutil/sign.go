package cryptoutil

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureLength is the wire length of a recoverable secp256k1 signature:
// 32 bytes r, 32 bytes s, 1 byte v.
const SignatureLength = 65

// Sign produces a 65-byte r||s||v signature over digest using key. digest
// must already be the 32-byte image to be signed — this function does not
// hash its input again.
func Sign(digest [32]byte, key *ecdsa.PrivateKey) ([SignatureLength]byte, error) {
	sig, err := crypto.Sign(digest[:], key)
	if err != nil {
		return [SignatureLength]byte{}, fmt.Errorf("cryptoutil: sign: %w", err)
	}
	var out [SignatureLength]byte
	copy(out[:], sig)
	return out, nil
}

// RecoverAddress recovers the 20-byte address that produced sig over
// digest.
func RecoverAddress(digest [32]byte, sig [SignatureLength]byte) ([20]byte, error) {
	pub, err := crypto.SigToPub(digest[:], sig[:])
	if err != nil {
		return [20]byte{}, fmt.Errorf("cryptoutil: recover: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// ParsePrivateKeyHex parses a hex-encoded (no 0x prefix required) secp256k1
// private key, as used by the local-key variant of the signer document.
func ParsePrivateKeyHex(hexkey string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(trim0x(hexkey))
	if err != nil {
		return nil, fmt.Errorf("cryptoutil: parse private key: %w", err)
	}
	return key, nil
}

func trim0x(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
