package processor

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/nomadprotocol/agents/pkg/chainadapter"
	"github.com/nomadprotocol/agents/pkg/chainadapter/mockadapter"
	"github.com/nomadprotocol/agents/pkg/cryptoutil"
	"github.com/nomadprotocol/agents/pkg/index"
	"github.com/nomadprotocol/agents/pkg/merkle"
	"github.com/nomadprotocol/agents/pkg/pipeline"
	"github.com/nomadprotocol/agents/pkg/types"
)

const (
	testOriginDomain  = uint32(1)
	testReplicaDomain = uint32(7)
)

func openTestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close()) })
	return db
}

func testMessage(nonce uint32, body byte) types.Message {
	return types.Message{
		OriginDomain:      testOriginDomain,
		Sender:            types.ID32{0x01},
		DestinationDomain: testReplicaDomain,
		Recipient:         types.ID32{0x02},
		Nonce:             nonce,
		Body:              []byte{body},
	}
}

// seedMessage ingests msg into tree at the next leaf index, stores the
// CommittedMessage and its inclusion proof under entity, and returns the
// tree's new root.
func seedMessage(t *testing.T, db *index.DB, tree *merkle.FullTree, entity string, msg types.Message) types.Hash {
	t.Helper()
	leafIndex := uint32(tree.Count())
	root, err := tree.Insert(msg.Leaf())
	require.NoError(t, err)
	require.NoError(t, db.StoreMessage(entity, types.CommittedMessage{
		LeafIndex:     leafIndex,
		CommittedRoot: root,
		Message:       msg,
	}))
	proof, err := tree.Prove(leafIndex)
	require.NoError(t, err)
	require.NoError(t, db.StoreProof(entity, leafIndex, proof))
	return root
}

func TestProcessorProvesAndProcessesMessage(t *testing.T) {
	db := openTestDB(t)
	entity := index.Entity("replica", "test")
	tree := merkle.NewFullTree()

	root := seedMessage(t, db, tree, entity, testMessage(0, 0x01))
	replica := mockadapter.NewReplica(testOriginDomain, [20]byte{0xAA}, root)

	p := &Processor{
		Config:  Config{Entity: entity, ReplicaDomain: testReplicaDomain, RetryInterval: 5 * time.Millisecond},
		DB:      db,
		Replica: replica,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	outcome := p.Step(ctx)
	require.Equal(t, pipeline.KindCancelled, outcome.Kind)

	nonce, ok, err := db.ProcessorNonce(entity, testReplicaDomain)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(0), nonce)

	leaf := testMessage(0, 0x01).Leaf()
	status, err := replica.MessageStatus(context.Background(), leaf)
	require.NoError(t, err)
	require.Equal(t, chainadapter.MessageStatusProcessed, status)

	attempted, err := db.AttemptedProcessing(entity, leaf)
	require.NoError(t, err)
	require.True(t, attempted)
}

func TestProcessorGapWaitThenResumes(t *testing.T) {
	db := openTestDB(t)
	entity := index.Entity("replica", "test")
	tree := merkle.NewFullTree()

	key, err := cryptoutil.ParsePrivateKeyHex("0505050505050505050505050505050505050505050505050505050505050505")
	require.NoError(t, err)
	updater := [20]byte(crypto.PubkeyToAddress(key.PublicKey))

	root0 := seedMessage(t, db, tree, entity, testMessage(0, 0x01))
	replica := mockadapter.NewReplica(testOriginDomain, updater, root0)

	p := &Processor{
		Config:  Config{Entity: entity, ReplicaDomain: testReplicaDomain, RetryInterval: 5 * time.Millisecond},
		DB:      db,
		Replica: replica,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	done := make(chan pipeline.Outcome, 1)
	go func() { done <- p.Step(ctx) }()

	require.Eventually(t, func() bool {
		nonce, ok, err := db.ProcessorNonce(entity, testReplicaDomain)
		require.NoError(t, err)
		return ok && nonce == 0
	}, time.Second, 5*time.Millisecond, "processor must process nonce 0 and then block on the missing nonce 1")

	// Give the processor a few idle retries against the gap before filling it,
	// to exercise the blocked-wait behavior rather than a lucky race.
	time.Sleep(50 * time.Millisecond)
	nonce, ok, err := db.ProcessorNonce(entity, testReplicaDomain)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(0), nonce, "processor must still be blocked on nonce 1")

	root1 := seedMessage(t, db, tree, entity, testMessage(1, 0x02))
	update := types.Update{HomeDomain: testOriginDomain, PreviousRoot: root0, NewRoot: root1}
	sig, err := cryptoutil.Sign(update.SignedImage(), key)
	require.NoError(t, err)
	_, err = replica.SubmitUpdate(context.Background(), types.SignedUpdate{Update: update, Signature: sig})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		nonce, ok, err := db.ProcessorNonce(entity, testReplicaDomain)
		require.NoError(t, err)
		return ok && nonce == 1
	}, time.Second, 5*time.Millisecond, "processor must resume once nonce 1 is seeded and accepted")

	cancel()
	outcome := <-done
	require.Equal(t, pipeline.KindCancelled, outcome.Kind)
}

func TestProcessorDetectsProverConflict(t *testing.T) {
	db := openTestDB(t)
	entity := index.Entity("replica", "test")
	tree := merkle.NewFullTree()

	msg := testMessage(0, 0x01)
	leafIndex := uint32(tree.Count())
	root, err := tree.Insert(msg.Leaf())
	require.NoError(t, err)
	require.NoError(t, db.StoreMessage(entity, types.CommittedMessage{
		LeafIndex:     leafIndex,
		CommittedRoot: root,
		Message:       msg,
	}))

	proof, err := tree.Prove(leafIndex)
	require.NoError(t, err)
	proof.Leaf = types.Hash{0xFF} // tamper: no longer matches msg.Leaf()
	require.NoError(t, db.StoreProof(entity, leafIndex, proof))

	replica := mockadapter.NewReplica(testOriginDomain, [20]byte{0xAA}, root)
	p := &Processor{
		Config:  Config{Entity: entity, ReplicaDomain: testReplicaDomain, RetryInterval: 5 * time.Millisecond},
		DB:      db,
		Replica: replica,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	outcome := p.Step(ctx)
	require.Equal(t, pipeline.KindUnrecoverable, outcome.Kind)
	require.True(t, outcome.WorthLogging)
	require.ErrorIs(t, outcome.Reason, ErrProverConflict)
}

func TestMessageFilterSkip(t *testing.T) {
	sender := types.ID32{0x01}
	other := types.ID32{0x02}

	denyOnly := MessageFilter{Deny: map[types.ID32]bool{sender: true}}
	require.True(t, denyOnly.Skip(sender))
	require.False(t, denyOnly.Skip(other))

	allowOnly := MessageFilter{Allow: map[types.ID32]bool{sender: true}}
	require.False(t, allowOnly.Skip(sender))
	require.True(t, allowOnly.Skip(other))

	empty := MessageFilter{}
	require.False(t, empty.Skip(sender))
}
