package processor

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/nomadprotocol/agents/pkg/index"
	"github.com/nomadprotocol/agents/pkg/merkle"
	"github.com/nomadprotocol/agents/pkg/pipeline"
)

// ProverSync is the prover-sync sub-task named in spec section 4.F.3: it
// walks leaf_by_index ascending, ingests each leaf into a full
// accumulator, and for each new leaf stores the resulting inclusion
// proof under proof_by_index. It owns the tree as a struct field so a
// Recoverable restart resumes from the same tree state instead of
// re-ingesting from leaf zero.
//
// It may lag message-sync; Processor tolerates "proof not yet
// available" by polling proof_by_index itself.
type ProverSync struct {
	Entity string
	DB     *index.DB
	Log    *zap.Logger

	// Poller configures wait-for-leaf polling; the zero value selects
	// index.DefaultWaitPoller.
	Poller index.WaitPoller

	tree *merkle.FullTree
}

func (s *ProverSync) Name() string { return "prover-sync:" + s.Entity }

func (s *ProverSync) Step(ctx context.Context) pipeline.Outcome {
	if s.tree == nil {
		s.tree = merkle.NewFullTree()
	}
	poller := s.Poller
	if poller == (index.WaitPoller{}) {
		poller = index.DefaultWaitPoller
	}

	for {
		next := uint32(s.tree.Count())
		leaf, err := s.DB.WaitForLeaf(ctx, s.Entity, next, poller)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return pipeline.Cancelled()
			}
			return pipeline.Recoverable(fmt.Errorf("prover sync: wait for leaf %d: %w", next, err))
		}
		if _, err := s.tree.Insert(leaf); err != nil {
			return pipeline.Unrecoverable(fmt.Errorf("prover sync: insert leaf %d: %w", next, err), true)
		}
		proof, err := s.tree.Prove(next)
		if err != nil {
			return pipeline.Unrecoverable(fmt.Errorf("prover sync: prove leaf %d: %w", next, err), true)
		}
		if err := s.DB.StoreProof(s.Entity, next, proof); err != nil {
			if errors.Is(err, index.ErrReorgContradiction) {
				return pipeline.Unrecoverable(fmt.Errorf("prover sync: %w", err), true)
			}
			return pipeline.Recoverable(fmt.Errorf("prover sync: store proof %d: %w", next, err))
		}
	}
}
