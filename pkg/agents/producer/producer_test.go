package producer

import (
	"context"
	"crypto/ecdsa"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/nomadprotocol/agents/pkg/chainadapter/mockadapter"
	"github.com/nomadprotocol/agents/pkg/cryptoutil"
	"github.com/nomadprotocol/agents/pkg/index"
	"github.com/nomadprotocol/agents/pkg/merkle"
	"github.com/nomadprotocol/agents/pkg/pipeline"
	"github.com/nomadprotocol/agents/pkg/types"
)

const testDomain = uint32(7)

func openTestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close()) })
	return db
}

func testMessage(destination, nonce uint32, body string) types.Message {
	return types.Message{
		OriginDomain:      testDomain,
		DestinationDomain: destination,
		Nonce:             nonce,
		Body:              []byte(body),
	}
}

func storeLeaf(t *testing.T, db *index.DB, entity string, tree *merkle.FullTree, msg types.Message) types.CommittedMessage {
	t.Helper()
	leafIndex := uint32(tree.Count())
	root, err := tree.Insert(msg.Leaf())
	require.NoError(t, err)
	cm := types.CommittedMessage{LeafIndex: leafIndex, CommittedRoot: root, Message: msg}
	require.NoError(t, db.StoreMessage(entity, cm))
	return cm
}

func TestAccumulatorSyncerIngestsLeavesInOrder(t *testing.T) {
	db := openTestDB(t)
	entity := index.Entity("home", "test")
	reference := merkle.NewFullTree()

	storeLeaf(t, db, entity, reference, testMessage(2, 0, "a"))
	storeLeaf(t, db, entity, reference, testMessage(2, 1, "b"))

	tree := NewAccumulator()
	syncer := &AccumulatorSyncer{Entity: entity, DB: db, Tree: tree, Poller: index.WaitPoller{Initial: time.Millisecond, Max: 10 * time.Millisecond}}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	// Step blocks forever (it is the full ingest loop); race it against
	// the context deadline and assert progress made before cancellation.
	done := make(chan pipeline.Outcome, 1)
	go func() { done <- syncer.Step(ctx) }()

	require.Eventually(t, func() bool { return tree.Count() == 2 }, time.Second, time.Millisecond)
	require.Equal(t, reference.Root(), tree.Root())

	cancel()
	outcome := <-done
	require.Equal(t, pipeline.KindCancelled, outcome.Kind)
}

func TestProducerSignsAndStoresOnDivergence(t *testing.T) {
	db := openTestDB(t)
	entity := index.Entity("home", "test")
	key, _ := testKey(t)

	tree := NewAccumulator()
	msg := testMessage(2, 0, "hello")
	leaf := msg.Leaf()
	newRoot, err := tree.Insert(leaf)
	require.NoError(t, err)

	p := &Producer{
		Config: Config{Entity: entity, HomeDomain: testDomain, Interval: time.Hour},
		DB:     db,
		Tree:   tree,
		Signer: key,
	}

	outcome := p.tick(context.Background())
	require.Nil(t, outcome)

	su, err := db.LookupProducedUpdate(entity, merkle.EmptyRoot())
	require.NoError(t, err)
	require.Equal(t, newRoot, su.Update.NewRoot)
	require.Equal(t, merkle.EmptyRoot(), su.Update.PreviousRoot)

	signer, err := su.Recover()
	require.NoError(t, err)
	require.Equal(t, [20]byte(crypto.PubkeyToAddress(key.PublicKey)), signer)
}

func TestProducerNoopWhenRootsMatch(t *testing.T) {
	db := openTestDB(t)
	entity := index.Entity("home", "test")
	key, _ := testKey(t)

	p := &Producer{
		Config: Config{Entity: entity, HomeDomain: testDomain, Interval: time.Hour},
		DB:     db,
		Tree:   NewAccumulator(), // empty tree, root == EmptyRoot == latest committed root
		Signer: key,
	}

	outcome := p.tick(context.Background())
	require.Nil(t, outcome)

	_, err := db.LookupProducedUpdate(entity, merkle.EmptyRoot())
	require.ErrorIs(t, err, index.ErrNotFound)
}

// TestProducerConflictDetection mirrors the spec's scenario 3: a
// produced_update already exists for the current committed root with a
// different new_root than what the local tree now computes. The producer
// must not overwrite it, and must terminate with WorthLogging set.
func TestProducerConflictDetection(t *testing.T) {
	db := openTestDB(t)
	entity := index.Entity("home", "test")
	key, _ := testKey(t)

	existing := types.Update{HomeDomain: testDomain, PreviousRoot: merkle.EmptyRoot(), NewRoot: types.Hash{0xAA}}
	existingSigned := signUpdate(t, key, existing)
	require.NoError(t, db.StoreProducedUpdate(entity, existingSigned))

	tree := NewAccumulator()
	_, err := tree.Insert(types.Hash{0xBB})
	require.NoError(t, err)
	require.NotEqual(t, types.Hash{0xAA}, tree.Root())

	p := &Producer{
		Config: Config{Entity: entity, HomeDomain: testDomain, Interval: time.Hour},
		DB:     db,
		Tree:   tree,
		Signer: key,
	}

	outcome := p.tick(context.Background())
	require.NotNil(t, outcome)
	require.Equal(t, pipeline.KindUnrecoverable, outcome.Kind)
	require.True(t, outcome.WorthLogging)
	require.ErrorIs(t, outcome.Reason, index.ErrProducerConflict)

	stillExisting, err := db.LookupProducedUpdate(entity, merkle.EmptyRoot())
	require.NoError(t, err)
	require.Equal(t, types.Hash{0xAA}, stillExisting.Update.NewRoot)
}

func TestSubmitterSubmitsProducedUpdate(t *testing.T) {
	db := openTestDB(t)
	entity := index.Entity("home", "test")
	key, addr := testKey(t)

	home := mockadapter.NewHome(testDomain, addr)
	committed, err := home.CommittedRoot(context.Background())
	require.NoError(t, err)

	update := types.Update{HomeDomain: testDomain, PreviousRoot: committed, NewRoot: types.Hash{0x42}}
	su := signUpdate(t, key, update)
	require.NoError(t, db.StoreProducedUpdate(entity, su))

	s := &Submitter{
		Config: SubmitterConfig{Entity: entity, PollInterval: time.Millisecond, FinalityWait: time.Hour},
		DB:     db,
		Home:   home,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	done := make(chan pipeline.Outcome, 1)
	go func() { done <- s.Step(ctx) }()

	require.Eventually(t, func() bool {
		root, err := home.CommittedRoot(context.Background())
		require.NoError(t, err)
		return root == types.Hash{0x42}
	}, time.Second, time.Millisecond)

	cancel()
	outcome := <-done
	require.Equal(t, pipeline.KindCancelled, outcome.Kind)
}

func testKey(t *testing.T) (*ecdsa.PrivateKey, [20]byte) {
	t.Helper()
	key, err := cryptoutil.ParsePrivateKeyHex("0202020202020202020202020202020202020202020202020202020202020202")
	require.NoError(t, err)
	return key, [20]byte(crypto.PubkeyToAddress(key.PublicKey))
}

func signUpdate(t *testing.T, key *ecdsa.PrivateKey, u types.Update) types.SignedUpdate {
	t.Helper()
	sig, err := cryptoutil.Sign(u.SignedImage(), key)
	require.NoError(t, err)
	return types.SignedUpdate{Update: u, Signature: sig}
}
