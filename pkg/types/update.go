package types

import (
	"encoding/binary"
	"fmt"

	"github.com/nomadprotocol/agents/pkg/cryptoutil"
)

// Update is a signed attestation that previous_root was a committed root
// and is being advanced to new_root.
type Update struct {
	HomeDomain   uint32
	PreviousRoot Hash
	NewRoot      Hash
}

// domainHash returns keccak(home_domain || "NOMAD"), the fixed domain
// separator mixed into every signed update image for this home.
func domainHash(homeDomain uint32) Hash {
	var domainBytes [4]byte
	binary.BigEndian.PutUint32(domainBytes[:], homeDomain)
	return HashBytes(domainBytes[:], []byte("NOMAD"))
}

// SignedImage returns the 32-byte digest that SignedUpdate.Signature signs:
// keccak(home_domain_hash || previous_root || new_root).
func (u Update) SignedImage() Hash {
	dh := domainHash(u.HomeDomain)
	return HashBytes(dh[:], u.PreviousRoot[:], u.NewRoot[:])
}

// SignedUpdate is an Update plus a 65-byte recoverable ECDSA signature.
type SignedUpdate struct {
	Update    Update
	Signature [cryptoutil.SignatureLength]byte
}

// Recover recovers the address that produced Signature over the update's
// signed image.
func (s SignedUpdate) Recover() ([20]byte, error) {
	addr, err := cryptoutil.RecoverAddress(s.Update.SignedImage(), s.Signature)
	if err != nil {
		return [20]byte{}, fmt.Errorf("types: recover signed update: %w", err)
	}
	return addr, nil
}

// DoubleUpdate is two SignedUpdates sharing PreviousRoot but differing in
// NewRoot — the slashable fault proof.
type DoubleUpdate struct {
	First  SignedUpdate
	Second SignedUpdate
}

// Valid reports whether d is a genuine double-update: same previous root,
// different new root, both well-formed signatures from the same updater.
func (d DoubleUpdate) Valid() (bool, error) {
	if d.First.Update.PreviousRoot != d.Second.Update.PreviousRoot {
		return false, nil
	}
	if d.First.Update.NewRoot == d.Second.Update.NewRoot {
		return false, nil
	}
	a1, err := d.First.Recover()
	if err != nil {
		return false, fmt.Errorf("types: double update: recover first: %w", err)
	}
	a2, err := d.Second.Recover()
	if err != nil {
		return false, fmt.Errorf("types: double update: recover second: %w", err)
	}
	return a1 == a2, nil
}
