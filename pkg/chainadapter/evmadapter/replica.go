package evmadapter

import (
	"context"
	"fmt"

	"github.com/nomadprotocol/agents/pkg/chainadapter"
	"github.com/nomadprotocol/agents/pkg/submitter"
	"github.com/nomadprotocol/agents/pkg/types"
)

// Replica is a chainadapter.Replica bound to a deployed EVM replica
// contract. In addition to Home's surface it expects acceptableRoot(bytes32)
// -> bool, messageStatus(bytes32) -> uint8, prove(bytes32,uint32,bytes32[32])
// and process(bytes) methods, plus Update(...) and Process(messageHash)
// events.
type Replica struct {
	c *contract
}

// NewReplica binds a Replica to client using spec. sub may be nil for a
// read-only binding.
func NewReplica(client EthClient, spec Spec, sub submitter.Submitter) *Replica {
	return &Replica{c: newContract(client, spec, sub)}
}

func (r *Replica) TipBlock(ctx context.Context) (uint64, error) {
	n, err := r.c.client.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("evmadapter: replica tip block: %w: %v", chainadapter.ErrTransient, err)
	}
	return n, nil
}

func (r *Replica) FetchUpdates(ctx context.Context, from, to uint64) ([]chainadapter.SignedUpdateWithMeta, error) {
	logs, err := r.c.filterLogs(ctx, "Update", from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", chainadapter.ErrTransient, err)
	}
	ev := r.c.spec.ABI.Events["Update"]
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

// FetchDispatches is unused on a replica binding; replicas never originate
// dispatch events.
func (r *Replica) FetchDispatches(ctx context.Context, from, to uint64) ([]chainadapter.DispatchEvent, error) {
	return nil, nil
}

func (r *Replica) State(ctx context.Context) (chainadapter.State, error) {
	vals, err := r.c.call(ctx, "state")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", chainadapter.ErrTransient, err)
	}
	code, ok := vals[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("evmadapter: replica state: %w: unexpected return type", chainadapter.ErrLogical)
	}
	return chainadapter.State(code), nil
}

func (r *Replica) Updater(ctx context.Context) ([20]byte, error) {
	vals, err := r.c.call(ctx, "updater")
	if err != nil {
		return [20]byte{}, fmt.Errorf("%w: %v", chainadapter.ErrTransient, err)
	}
	return decodeAddress(vals)
}

func (r *Replica) CommittedRoot(ctx context.Context) (types.Hash, error) {
	vals, err := r.c.call(ctx, "committedRoot")
	if err != nil {
		return types.Hash{}, fmt.Errorf("%w: %v", chainadapter.ErrTransient, err)
	}
	return decodeHashReturn(vals)
}

func (r *Replica) AcceptsRoot(ctx context.Context, root types.Hash) (bool, error) {
	vals, err := r.c.call(ctx, "acceptableRoot", [32]byte(root))
	if err != nil {
		return false, fmt.Errorf("%w: %v", chainadapter.ErrTransient, err)
	}
	ok, isBool := vals[0].(bool)
	if !isBool {
		return false, fmt.Errorf("evmadapter: acceptableRoot: %w: unexpected return type", chainadapter.ErrLogical)
	}
	return ok, nil
}

func (r *Replica) SubmitUpdate(ctx context.Context, su types.SignedUpdate) (chainadapter.TxOutcome, error) {
	out, err := r.c.send(ctx, "update",
		su.Update.HomeDomain, [32]byte(su.Update.PreviousRoot), [32]byte(su.Update.NewRoot), su.Signature[:])
	if err != nil {
		return chainadapter.TxOutcome{}, fmt.Errorf("%w: %v", chainadapter.ErrTransient, err)
	}
	return out, nil
}

func (r *Replica) SubmitProve(ctx context.Context, p types.Proof) (chainadapter.TxOutcome, error) {
	var path [types.Depth][32]byte
	for i, h := range p.Path {
		path[i] = [32]byte(h)
	}
	out, err := r.c.send(ctx, "prove", [32]byte(p.Leaf), p.Index, path)
	if err != nil {
		return chainadapter.TxOutcome{}, fmt.Errorf("%w: %v", chainadapter.ErrTransient, err)
	}
	return out, nil
}

func (r *Replica) SubmitProcess(ctx context.Context, msg types.Message) (chainadapter.TxOutcome, error) {
	out, err := r.c.send(ctx, "process", msg.Encode())
	if err != nil {
		return chainadapter.TxOutcome{}, fmt.Errorf("%w: %v", chainadapter.ErrTransient, err)
	}
	return out, nil
}

func (r *Replica) MessageStatus(ctx context.Context, leaf types.Hash) (chainadapter.MessageStatus, error) {
	vals, err := r.c.call(ctx, "messageStatus", [32]byte(leaf))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", chainadapter.ErrTransient, err)
	}
	code, ok := vals[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("evmadapter: messageStatus: %w: unexpected return type", chainadapter.ErrLogical)
	}
	return chainadapter.MessageStatus(code), nil
}

func (r *Replica) FetchProcesses(ctx context.Context, from, to uint64) ([]chainadapter.ProcessEvent, error) {
	logs, err := r.c.filterLogs(ctx, "Process", from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", chainadapter.ErrTransient, err)
	}
	ev := r.c.spec.ABI.Events["Process"]
	out := make([]chainadapter.ProcessEvent, 0, len(logs))
	for _, log := range logs {
		fields, err := decodeLog(ev, log)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", chainadapter.ErrLogical, err)
		}
		leaf, err := decodeProcessEvent(fields)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", chainadapter.ErrLogical, err)
		}
		out = append(out, chainadapter.ProcessEvent{
			Leaf:            leaf,
			BlockNumber:     log.BlockNumber,
			IntraBlockIndex: uint32(log.Index),
		})
	}
	return out, nil
}
