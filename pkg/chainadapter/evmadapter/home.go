package evmadapter

import (
	"context"
	"fmt"

	"github.com/nomadprotocol/agents/pkg/chainadapter"
	"github.com/nomadprotocol/agents/pkg/submitter"
	"github.com/nomadprotocol/agents/pkg/types"
)

// Home is a chainadapter.Home bound to a deployed EVM home contract. It
// expects an ABI exposing: state() -> uint8, updater() -> address,
// committedRoot() -> bytes32, update(uint32,bytes32,bytes32,bytes) plus the
// events Update(homeDomain,oldRoot,newRoot,signature) and
// Dispatch(leafIndex,committedRoot,message).
type Home struct {
	c *contract
}

// NewHome binds a Home to client using spec. sub may be nil for a
// read-only binding (e.g. the monitor, which never submits transactions).
func NewHome(client EthClient, spec Spec, sub submitter.Submitter) *Home {
	return &Home{c: newContract(client, spec, sub)}
}

func (h *Home) TipBlock(ctx context.Context) (uint64, error) {
	n, err := h.c.client.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("evmadapter: home tip block: %w: %v", chainadapter.ErrTransient, err)
	}
	return n, nil
}

func (h *Home) FetchUpdates(ctx context.Context, from, to uint64) ([]chainadapter.SignedUpdateWithMeta, error) {
	logs, err := h.c.filterLogs(ctx, "Update", from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", chainadapter.ErrTransient, err)
	}
	ev := h.c.spec.ABI.Events["Update"]
	out := make([]chainadapter.SignedUpdateWithMeta, 0, len(logs))
	for _, log := range logs {
		fields, err := decodeLog(ev, log)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", chainadapter.ErrLogical, err)
		}
		su, err := decodeSignedUpdate(fields)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", chainadapter.ErrLogical, err)
		}
		out = append(out, chainadapter.SignedUpdateWithMeta{
			Update:          su,
			BlockNumber:     log.BlockNumber,
			IntraBlockIndex: uint32(log.Index),
		})
	}
	return out, nil
}

func (h *Home) FetchDispatches(ctx context.Context, from, to uint64) ([]chainadapter.DispatchEvent, error) {
	logs, err := h.c.filterLogs(ctx, "Dispatch", from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", chainadapter.ErrTransient, err)
	}
	ev := h.c.spec.ABI.Events["Dispatch"]
	out := make([]chainadapter.DispatchEvent, 0, len(logs))
	for _, log := range logs {
		fields, err := decodeLog(ev, log)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", chainadapter.ErrLogical, err)
		}
		cm, err := decodeCommittedMessage(fields)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", chainadapter.ErrLogical, err)
		}
		out = append(out, chainadapter.DispatchEvent{
			Message:         cm,
			BlockNumber:     log.BlockNumber,
			IntraBlockIndex: uint32(log.Index),
		})
	}
	return out, nil
}

func (h *Home) State(ctx context.Context) (chainadapter.State, error) {
	vals, err := h.c.call(ctx, "state")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", chainadapter.ErrTransient, err)
	}
	code, ok := vals[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("evmadapter: home state: %w: unexpected return type", chainadapter.ErrLogical)
	}
	return chainadapter.State(code), nil
}

func (h *Home) Updater(ctx context.Context) ([20]byte, error) {
	vals, err := h.c.call(ctx, "updater")
	if err != nil {
		return [20]byte{}, fmt.Errorf("%w: %v", chainadapter.ErrTransient, err)
	}
	return decodeAddress(vals)
}

func (h *Home) CommittedRoot(ctx context.Context) (types.Hash, error) {
	vals, err := h.c.call(ctx, "committedRoot")
	if err != nil {
		return types.Hash{}, fmt.Errorf("%w: %v", chainadapter.ErrTransient, err)
	}
	return decodeHashReturn(vals)
}

func (h *Home) SubmitUpdate(ctx context.Context, su types.SignedUpdate) (chainadapter.TxOutcome, error) {
	out, err := h.c.send(ctx, "update",
		su.Update.HomeDomain, [32]byte(su.Update.PreviousRoot), [32]byte(su.Update.NewRoot), su.Signature[:])
	if err != nil {
		return chainadapter.TxOutcome{}, fmt.Errorf("%w: %v", chainadapter.ErrTransient, err)
	}
	return out, nil
}
