package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nomadprotocol/agents/pkg/chainadapter"
	"github.com/nomadprotocol/agents/pkg/index"
	"github.com/nomadprotocol/agents/pkg/merkle"
	"github.com/nomadprotocol/agents/pkg/pipeline"
	"github.com/nomadprotocol/agents/pkg/types"
)

// ErrProverConflict reports a stored proof whose leaf does not match the
// message it is supposed to cover. This is a serious local fault, never
// expected in normal operation.
var ErrProverConflict = errors.New("processor: prover conflict")

// Config parameterizes one Processor instance. A Processor serves exactly
// one (entity, replica domain) pair; Entity is the Index namespace shared
// with ProverSync and message-sync, ReplicaDomain picks the nonce lane.
type Config struct {
	Entity        string
	ReplicaDomain uint32
	RetryInterval time.Duration
	Filter        MessageFilter
}

// Processor implements spec section 4.F.3's main loop: it advances
// processor_nonce strictly in nonce order, waiting for each message to
// become provable against a root the replica accepts before submitting
// prove-and-process. A missing nonce blocks this destination's progress
// until contract sync fills the gap; the processor never reorders.
type Processor struct {
	Config  Config
	DB      *index.DB
	Replica chainadapter.Replica
	Log     *zap.Logger
}

func (p *Processor) Name() string {
	return fmt.Sprintf("processor:%s:%d", p.Config.Entity, p.Config.ReplicaDomain)
}

func (p *Processor) Step(ctx context.Context) pipeline.Outcome {
	for {
		select {
		case <-ctx.Done():
			return pipeline.Cancelled()
		default:
		}
		if outcome := p.advance(ctx); outcome != nil {
			return *outcome
		}
	}
}

// advance runs one pass of the ten-step loop for the current nonce. A nil
// return means progress was made (or a harmless idle wait elapsed) and
// the caller should loop again; a non-nil return ends the Step.
func (p *Processor) advance(ctx context.Context) *pipeline.Outcome {
	nonce, err := p.nextNonce()
	if err != nil {
		o := pipeline.Recoverable(fmt.Errorf("processor: next nonce: %w", err))
		return &o
	}

	msg, err := p.DB.LookupMessageByNonce(p.Config.Entity, p.Config.ReplicaDomain, nonce)
	if err == index.ErrNotFound {
		return p.idle(ctx)
	}
	if err != nil {
		o := pipeline.Recoverable(fmt.Errorf("processor: lookup message by nonce: %w", err))
		return &o
	}

	if p.Config.Filter.Skip(msg.Message.Sender) {
		return p.advanceNonce(nonce)
	}

	proof, err := p.DB.LookupProof(p.Config.Entity, msg.LeafIndex)
	if err == index.ErrNotFound {
		return p.idle(ctx)
	}
	if err != nil {
		o := pipeline.Recoverable(fmt.Errorf("processor: lookup proof: %w", err))
		return &o
	}

	leaf := msg.Leaf()
	if proof.Leaf != leaf {
		o := pipeline.Unrecoverable(fmt.Errorf("processor: %w: leaf_index=%d", ErrProverConflict, msg.LeafIndex), true)
		return &o
	}

	root := merkle.ProofRoot(proof)
	accepted, err := p.Replica.AcceptsRoot(ctx, root)
	if err != nil {
		o := classifyAdapterError("processor: accepts root", err)
		return &o
	}
	if !accepted {
		return p.idle(ctx)
	}

	attempted, err := p.DB.AttemptedProcessing(p.Config.Entity, leaf)
	if err != nil {
		o := pipeline.Recoverable(fmt.Errorf("processor: attempted processing: %w", err))
		return &o
	}
	if attempted {
		return p.advanceNonce(nonce)
	}

	status, err := p.Replica.MessageStatus(ctx, leaf)
	if err != nil {
		o := classifyAdapterError("processor: message status", err)
		return &o
	}

	if status == chainadapter.MessageStatusProcessed {
		return p.markAttemptedAndAdvance(nonce, leaf)
	}

	if status == chainadapter.MessageStatusNone {
		if _, err := p.Replica.SubmitProve(ctx, proof); err != nil {
			o := classifyAdapterError("processor: submit prove", err)
			return &o
		}
	}
	if _, err := p.Replica.SubmitProcess(ctx, msg.Message); err != nil {
		o := classifyAdapterError("processor: submit process", err)
		return &o
	}

	return p.markAttemptedAndAdvance(nonce, leaf)
}

func (p *Processor) nextNonce() (uint32, error) {
	last, ok, err := p.DB.ProcessorNonce(p.Config.Entity, p.Config.ReplicaDomain)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return last + 1, nil
}

func (p *Processor) markAttemptedAndAdvance(nonce uint32, leaf types.Hash) *pipeline.Outcome {
	if err := p.DB.MarkAttemptedProcessing(p.Config.Entity, leaf); err != nil {
		o := pipeline.Recoverable(fmt.Errorf("processor: mark attempted: %w", err))
		return &o
	}
	return p.advanceNonce(nonce)
}

func (p *Processor) advanceNonce(nonce uint32) *pipeline.Outcome {
	if err := p.DB.SetProcessorNonce(p.Config.Entity, p.Config.ReplicaDomain, nonce); err != nil {
		o := pipeline.Recoverable(fmt.Errorf("processor: advance nonce: %w", err))
		return &o
	}
	return nil
}

func (p *Processor) idle(ctx context.Context) *pipeline.Outcome {
	if sleepIdle(ctx, p.Config.RetryInterval) {
		o := pipeline.Cancelled()
		return &o
	}
	return nil
}

// sleepIdle waits interval or until ctx is cancelled, reporting which
// happened.
func sleepIdle(ctx context.Context, interval time.Duration) (cancelled bool) {
	if interval <= 0 {
		return false
	}
	select {
	case <-ctx.Done():
		return true
	case <-time.After(interval):
		return false
	}
}
