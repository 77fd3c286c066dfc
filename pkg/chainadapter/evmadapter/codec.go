package evmadapter

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nomadprotocol/agents/pkg/cryptoutil"
	"github.com/nomadprotocol/agents/pkg/types"
)

func decodeSignedUpdate(fields map[string]interface{}) (types.SignedUpdate, error) {
	domain, err := fieldUint32(fields, "homeDomain")
	if err != nil {
		return types.SignedUpdate{}, err
	}
	oldRoot, err := fieldBytes32(fields, "oldRoot")
	if err != nil {
		return types.SignedUpdate{}, err
	}
	newRoot, err := fieldBytes32(fields, "newRoot")
	if err != nil {
		return types.SignedUpdate{}, err
	}
	sig, err := fieldBytes(fields, "signature")
	if err != nil {
		return types.SignedUpdate{}, err
	}
	if len(sig) != cryptoutil.SignatureLength {
		return types.SignedUpdate{}, fmt.Errorf("evmadapter: signature field has length %d, want %d", len(sig), cryptoutil.SignatureLength)
	}
	su := types.SignedUpdate{
		Update: types.Update{
			HomeDomain:   domain,
			PreviousRoot: types.Hash(oldRoot),
			NewRoot:      types.Hash(newRoot),
		},
	}
	copy(su.Signature[:], sig)
	return su, nil
}

func decodeCommittedMessage(fields map[string]interface{}) (types.CommittedMessage, error) {
	leafIndex, err := fieldUint32(fields, "leafIndex")
	if err != nil {
		return types.CommittedMessage{}, err
	}
	root, err := fieldBytes32(fields, "committedRoot")
	if err != nil {
		return types.CommittedMessage{}, err
	}
	raw, err := fieldBytes(fields, "message")
	if err != nil {
		return types.CommittedMessage{}, err
	}
	msg, err := types.DecodeMessage(raw)
	if err != nil {
		return types.CommittedMessage{}, fmt.Errorf("evmadapter: decode dispatched message: %w", err)
	}
	return types.CommittedMessage{
		LeafIndex:     leafIndex,
		CommittedRoot: types.Hash(root),
		Message:       msg,
	}, nil
}

func decodeProcessEvent(fields map[string]interface{}) (types.Hash, error) {
	leaf, err := fieldBytes32(fields, "messageHash")
	if err != nil {
		return types.Hash{}, err
	}
	return types.Hash(leaf), nil
}

func decodeAddress(vals []interface{}) ([20]byte, error) {
	if len(vals) == 0 {
		return [20]byte{}, fmt.Errorf("evmadapter: empty return")
	}
	addr, ok := vals[0].(common.Address)
	if !ok {
		return [20]byte{}, fmt.Errorf("evmadapter: unexpected return type for address")
	}
	return [20]byte(addr), nil
}

func decodeHashReturn(vals []interface{}) (types.Hash, error) {
	if len(vals) == 0 {
		return types.Hash{}, fmt.Errorf("evmadapter: empty return")
	}
	h, ok := vals[0].([32]byte)
	if !ok {
		return types.Hash{}, fmt.Errorf("evmadapter: unexpected return type for hash")
	}
	return types.Hash(h), nil
}
