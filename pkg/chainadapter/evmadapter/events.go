package evmadapter

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// decodeLog unpacks both the indexed (topic) and non-indexed (data) fields
// of log against event's ABI definition into a name-keyed map.
func decodeLog(event abi.Event, log ethtypes.Log) (map[string]interface{}, error) {
	out := make(map[string]interface{})
	if err := event.Inputs.UnpackIntoMap(out, log.Data); err != nil {
		return nil, fmt.Errorf("evmadapter: unpack %s data: %w", event.Name, err)
	}

	var indexed abi.Arguments
	for _, in := range event.Inputs {
		if in.Indexed {
			indexed = append(indexed, in)
		}
	}
	if len(indexed) > 0 {
		if len(log.Topics) < len(indexed)+1 {
			return nil, fmt.Errorf("evmadapter: %s: expected %d topics, got %d", event.Name, len(indexed)+1, len(log.Topics))
		}
		if err := abi.ParseTopicsIntoMap(out, indexed, log.Topics[1:]); err != nil {
			return nil, fmt.Errorf("evmadapter: unpack %s topics: %w", event.Name, err)
		}
	}
	return out, nil
}

func fieldBytes32(m map[string]interface{}, name string) ([32]byte, error) {
	v, ok := m[name]
	if !ok {
		return [32]byte{}, fmt.Errorf("evmadapter: missing field %q", name)
	}
	b, ok := v.([32]byte)
	if !ok {
		return [32]byte{}, fmt.Errorf("evmadapter: field %q is not bytes32", name)
	}
	return b, nil
}

func fieldUint32(m map[string]interface{}, name string) (uint32, error) {
	v, ok := m[name]
	if !ok {
		return 0, fmt.Errorf("evmadapter: missing field %q", name)
	}
	u, ok := v.(uint32)
	if !ok {
		return 0, fmt.Errorf("evmadapter: field %q is not uint32", name)
	}
	return u, nil
}

func fieldBytes(m map[string]interface{}, name string) ([]byte, error) {
	v, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("evmadapter: missing field %q", name)
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("evmadapter: field %q is not bytes", name)
	}
	return b, nil
}
