package evmadapter

import (
	"context"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/nomadprotocol/agents/pkg/chainadapter"
	"github.com/nomadprotocol/agents/pkg/submitter"
)

// Spec names the Solidity surface a deployed contract presents. Event and
// method names are resolved against ABI at construction time; callers
// supply the concrete ABI JSON via config, keeping this package agnostic of
// any one contract's signature set.
type Spec struct {
	ABI     abi.ABI
	Address common.Address
}

// contract is the shared read/write plumbing behind Home, Replica, and
// ConnectionManager: generic call-packing over an EthClient for reads,
// delegating writes to a Submitter so signing, broadcast, and
// confirmation stay out of this package.
type contract struct {
	client EthClient
	spec   Spec
	sub    submitter.Submitter // nil for read-only (e.g. monitor) bindings
}

func newContract(client EthClient, spec Spec, sub submitter.Submitter) *contract {
	return &contract{client: client, spec: spec, sub: sub}
}

// call packs method(args...), executes an eth_call against the contract
// address, and returns the method's unpacked return values.
func (c *contract) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.spec.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("evmadapter: pack %s: %w", method, err)
	}
	out, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &c.spec.Address, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("evmadapter: call %s: %w", method, err)
	}
	vals, err := c.spec.ABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("evmadapter: unpack %s: %w", method, err)
	}
	return vals, nil
}

// send packs method(args...) and hands it to the configured Submitter.
func (c *contract) send(ctx context.Context, method string, args ...interface{}) (chainadapter.TxOutcome, error) {
	if c.sub == nil {
		return chainadapter.TxOutcome{}, fmt.Errorf("evmadapter: %s: no submitter configured for this binding", method)
	}
	data, err := c.spec.ABI.Pack(method, args...)
	if err != nil {
		return chainadapter.TxOutcome{}, fmt.Errorf("evmadapter: pack %s: %w", method, err)
	}
	out, err := c.sub.Submit(ctx, submitter.Intent{
		ContractAddress: [20]byte(c.spec.Address),
		Data:            data,
	})
	if err != nil {
		return chainadapter.TxOutcome{}, fmt.Errorf("evmadapter: submit %s: %w", method, err)
	}
	return out, nil
}

// filterLogs queries the contract's address for logs named eventName
// between from and to, inclusive.
func (c *contract) filterLogs(ctx context.Context, eventName string, from, to uint64) ([]ethtypes.Log, error) {
	ev, ok := c.spec.ABI.Events[eventName]
	if !ok {
		return nil, fmt.Errorf("evmadapter: abi has no event %q", eventName)
	}
	fromB := new(big.Int).SetUint64(from)
	toB := new(big.Int).SetUint64(to)
	logs, err := c.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: fromB,
		ToBlock:   toB,
		Addresses: []common.Address{c.spec.Address},
		Topics:    [][]common.Hash{{ev.ID}},
	})
	if err != nil {
		return nil, fmt.Errorf("evmadapter: filter logs %s: %w", eventName, err)
	}
	return logs, nil
}
