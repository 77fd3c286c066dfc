package evmadapter

import (
	"context"
	"fmt"

	"github.com/nomadprotocol/agents/pkg/chainadapter"
	"github.com/nomadprotocol/agents/pkg/submitter"
	"github.com/nomadprotocol/agents/pkg/types"
)

// ConnectionManager is a chainadapter.ConnectionManager bound to a deployed
// EVM connection-manager contract, expecting a
// submitDoubleUpdate(uint32,bytes32,bytes32,bytes32,bytes,bytes) method.
type ConnectionManager struct {
	c *contract
}

// NewConnectionManager binds a ConnectionManager to client using spec.
func NewConnectionManager(client EthClient, spec Spec, sub submitter.Submitter) *ConnectionManager {
	return &ConnectionManager{c: newContract(client, spec, sub)}
}

func (cm *ConnectionManager) SubmitDoubleUpdate(ctx context.Context, d types.DoubleUpdate) (chainadapter.TxOutcome, error) {
	valid, err := d.Valid()
	if err != nil {
		return chainadapter.TxOutcome{}, fmt.Errorf("evmadapter: double update: %w: %v", chainadapter.ErrLogical, err)
	}
	if !valid {
		return chainadapter.TxOutcome{}, fmt.Errorf("evmadapter: double update: %w: not genuine", chainadapter.ErrLogical)
	}

	out, err := cm.c.send(ctx, "submitDoubleUpdate",
		d.First.Update.HomeDomain,
		[32]byte(d.First.Update.PreviousRoot),
		[32]byte(d.First.Update.NewRoot),
		[32]byte(d.Second.Update.NewRoot),
		d.First.Signature[:],
		d.Second.Signature[:],
	)
	if err != nil {
		return chainadapter.TxOutcome{}, fmt.Errorf("%w: %v", chainadapter.ErrTransient, err)
	}
	return out, nil
}
