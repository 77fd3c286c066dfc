package producer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nomadprotocol/agents/pkg/cryptoutil"
	"github.com/nomadprotocol/agents/pkg/index"
	"github.com/nomadprotocol/agents/pkg/pipeline"
	"github.com/nomadprotocol/agents/pkg/types"
)

// Config parameterizes one Producer instance.
type Config struct {
	Entity     string
	HomeDomain uint32
	Interval   time.Duration
}

// Producer is the signing loop: on each tick it compares the locally
// mirrored accumulator root against the latest known committed root and,
// if they differ, signs and stores a new produced update under
// produced_update[committed]. It never submits to chain itself — Submitter
// owns that.
type Producer struct {
	Config Config
	DB     *index.DB
	Tree   *Accumulator
	Signer *ecdsa.PrivateKey
	Log    *zap.Logger
}

func (p *Producer) Name() string { return "producer:" + p.Config.Entity }

func (p *Producer) Step(ctx context.Context) pipeline.Outcome {
	ticker := time.NewTicker(p.Config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return pipeline.Cancelled()
		case <-ticker.C:
		}

		if outcome := p.tick(ctx); outcome != nil {
			return *outcome
		}
	}
}

func (p *Producer) tick(ctx context.Context) *pipeline.Outcome {
	committed, err := LatestCommittedRoot(p.DB, p.Config.Entity)
	if err != nil {
		o := pipeline.Recoverable(fmt.Errorf("producer: latest committed root: %w", err))
		return &o
	}

	newRoot := p.Tree.Root()
	if committed == newRoot {
		return nil
	}

	update := types.Update{HomeDomain: p.Config.HomeDomain, PreviousRoot: committed, NewRoot: newRoot}
	sig, err := cryptoutil.Sign(update.SignedImage(), p.Signer)
	if err != nil {
		o := pipeline.Recoverable(fmt.Errorf("producer: sign update: %w", err))
		return &o
	}
	su := types.SignedUpdate{Update: update, Signature: sig}

	if err := p.DB.StoreProducedUpdate(p.Config.Entity, su); err != nil {
		o := classifyProducedUpdateError("producer: store produced update", err)
		if p.Log != nil && o.Kind == pipeline.KindUnrecoverable {
			p.Log.Error("producer conflict detected", zap.String("entity", p.Config.Entity), zap.Error(o.Reason))
		}
		return &o
	}
	return nil
}
