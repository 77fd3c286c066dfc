package contractsync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nomadprotocol/agents/pkg/chainadapter"
	"github.com/nomadprotocol/agents/pkg/index"
	"github.com/nomadprotocol/agents/pkg/pipeline"
	"github.com/nomadprotocol/agents/pkg/types"
)

// fakeIndexer is a chainadapter.Indexer with caller-controlled contents,
// used to drive contract sync deterministically without a real adapter.
type fakeIndexer struct {
	mu         sync.Mutex
	tip        uint64
	updates    []chainadapter.SignedUpdateWithMeta
	dispatches []chainadapter.DispatchEvent
}

func (f *fakeIndexer) setTip(tip uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tip = tip
}

func (f *fakeIndexer) TipBlock(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tip, nil
}

func (f *fakeIndexer) FetchUpdates(ctx context.Context, from, to uint64) ([]chainadapter.SignedUpdateWithMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []chainadapter.SignedUpdateWithMeta
	for _, u := range f.updates {
		if u.BlockNumber >= from && u.BlockNumber <= to {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeIndexer) FetchDispatches(ctx context.Context, from, to uint64) ([]chainadapter.DispatchEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []chainadapter.DispatchEvent
	for _, d := range f.dispatches {
		if d.BlockNumber >= from && d.BlockNumber <= to {
			out = append(out, d)
		}
	}
	return out, nil
}

func testMessage(destination, nonce uint32) types.Message {
	return types.Message{OriginDomain: 1, DestinationDomain: destination, Nonce: nonce, Body: []byte("m")}
}

func TestMessageSyncIsIdempotentAcrossRestart(t *testing.T) {
	db, err := index.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	entity := index.Entity("home", "test")

	msg0 := testMessage(2, 0)
	msg1 := testMessage(2, 1)
	fi := &fakeIndexer{
		tip: 10,
		dispatches: []chainadapter.DispatchEvent{
			{Message: types.CommittedMessage{LeafIndex: 0, CommittedRoot: types.Hash{1}, Message: msg0}, BlockNumber: 3},
			{Message: types.CommittedMessage{LeafIndex: 1, CommittedRoot: types.Hash{2}, Message: msg1}, BlockNumber: 7},
		},
	}

	cfg := MessageSyncerConfig{Entity: entity, ChunkSize: 5, IdleInterval: 10 * time.Millisecond, DeploymentBlock: 0}

	runOnceToIdle := func() {
		syncer := &MessageSyncer{Config: cfg, DB: db, Indexer: fi, Log: zap.NewNop()}
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		outcome := syncer.Step(ctx)
		require.Equal(t, pipeline.KindCancelled, outcome.Kind)
	}

	runOnceToIdle()

	_, msg, err := db.LookupLeafByIndex(entity, 0)
	require.NoError(t, err)
	require.Equal(t, msg0.Nonce, msg.Message.Nonce)
	_, msg, err = db.LookupLeafByIndex(entity, 1)
	require.NoError(t, err)
	require.Equal(t, msg1.Nonce, msg.Message.Nonce)

	tip, ok, err := db.GetTipBlock(entity, index.TipBlockMessages)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(10), tip)

	// Restart from the persisted watermark (10): the tip has not moved past
	// it, so nothing is re-fetched, the step idles without error, and the
	// stored messages are unchanged.
	runOnceToIdle()

	_, msg, err = db.LookupLeafByIndex(entity, 0)
	require.NoError(t, err)
	require.Equal(t, msg0.Nonce, msg.Message.Nonce)
}

func signedUpdateFor(domain uint32, prev, next types.Hash) chainadapter.SignedUpdateWithMeta {
	return chainadapter.SignedUpdateWithMeta{
		Update: types.SignedUpdate{Update: types.Update{HomeDomain: domain, PreviousRoot: prev, NewRoot: next}},
	}
}

func TestUpdateSyncLaggedRespectsFinalityLag(t *testing.T) {
	db, err := index.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	entity := index.Entity("home", "test")

	prev := types.Hash{0}
	next := types.Hash{1}
	u := signedUpdateFor(1, prev, next)
	u.BlockNumber = 8

	fi := &fakeIndexer{tip: 10, updates: []chainadapter.SignedUpdateWithMeta{u}}
	cfg := UpdateSyncerConfig{
		Entity: entity, ChunkSize: 100, IdleInterval: 10 * time.Millisecond,
		DeploymentBlock: 0, FinalityLag: 5, Mode: Lagged,
	}
	syncer := &UpdateSyncer{Config: cfg, DB: db, Indexer: fi, Log: zap.NewNop()}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	outcome := syncer.Step(ctx)
	require.Equal(t, pipeline.KindCancelled, outcome.Kind)

	// effective tip = 10 - 5 = 5, block 8 is beyond it and must not be synced yet.
	_, err = db.LookupUpdateByPrev(entity, prev)
	require.ErrorIs(t, err, index.ErrNotFound)
}

func TestUpdateSyncTipChasingDetectsReorgContradiction(t *testing.T) {
	db, err := index.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	entity := index.Entity("home", "test")

	prev := types.Hash{0}
	firstNext := types.Hash{1}
	reorgedNext := types.Hash{2}

	u1 := signedUpdateFor(1, prev, firstNext)
	u1.BlockNumber = 1
	fi := &fakeIndexer{tip: 3, updates: []chainadapter.SignedUpdateWithMeta{u1}}

	cfg := UpdateSyncerConfig{
		Entity: entity, ChunkSize: 100, IdleInterval: 5 * time.Millisecond,
		DeploymentBlock: 0, Mode: TipChasing, ReorgWindow: 2,
	}
	syncer := &UpdateSyncer{Config: cfg, DB: db, Indexer: fi, Log: zap.NewNop()}

	ctx1, cancel1 := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel1()
	outcome := syncer.Step(ctx1)
	require.Equal(t, pipeline.KindCancelled, outcome.Kind)

	stored, err := db.LookupUpdateByPrev(entity, prev)
	require.NoError(t, err)
	require.Equal(t, firstNext, stored.Update.NewRoot)

	// Simulate a reorg: the chain now reports a different new_root for
	// the same previous_root within the rescan window.
	fi.mu.Lock()
	fi.updates[0].Update.Update.NewRoot = reorgedNext
	fi.updates[0].BlockNumber = 4
	fi.tip = 5
	fi.mu.Unlock()

	// Fresh syncer (as a crash-restart would produce), high-water mark
	// reset, so the rescan window fires immediately.
	syncer2 := &UpdateSyncer{Config: cfg, DB: db, Indexer: fi, Log: zap.NewNop()}
	ctx2, cancel2 := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel2()
	outcome = syncer2.Step(ctx2)
	require.Equal(t, pipeline.KindUnrecoverable, outcome.Kind)
	require.ErrorIs(t, outcome.Reason, index.ErrReorgContradiction)
	require.True(t, outcome.WorthLogging)
}
