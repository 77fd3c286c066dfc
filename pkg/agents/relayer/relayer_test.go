package relayer

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

const testDomain = uint32(3)

func testKey(t *testing.T) (*ecdsa.PrivateKey, [20]byte) {
	t.Helper()
	key, err := cryptoutil.ParsePrivateKeyHex("0303030303030303030303030303030303030303030303030303030303030303")
	require.NoError(t, err)
	return key, [20]byte(crypto.PubkeyToAddress(key.PublicKey))
}

func signUpdate(t *testing.T, key *ecdsa.PrivateKey, u types.Update) types.SignedUpdate {
	t.Helper()
	sig, err := cryptoutil.Sign(u.SignedImage(), key)
	require.NoError(t, err)
	return types.SignedUpdate{Update: u, Signature: sig}
}

func openTestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close()) })
	return db
}

func TestRelayerSubmitsExtendingUpdate(t *testing.T) {
	db := openTestDB(t)
	entity := index.Entity("home", "test")
	key, addr := testKey(t)

	home := mockadapter.NewHome(testDomain, addr)
	replica := mockadapter.NewReplica(testDomain, addr, merkle.EmptyRoot())

	newRoot := types.Hash{0x99}
	update := types.Update{HomeDomain: testDomain, PreviousRoot: merkle.EmptyRoot(), NewRoot: newRoot}
	su := signUpdate(t, key, update)
	require.NoError(t, db.StoreUpdate(entity, su, nil))

	r := &Relayer{
		Config:  Config{Entity: entity, Interval: 10 * time.Millisecond},
		DB:      db,
		Home:    home,
		Replica: replica,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	done := make(chan pipeline.Outcome, 1)
	go func() { done <- r.Step(ctx) }()

	require.Eventually(t, func() bool {
		root, err := replica.CommittedRoot(context.Background())
		require.NoError(t, err)
		return root == newRoot
	}, time.Second, 5*time.Millisecond)

	cancel()
	outcome := <-done
	require.Equal(t, pipeline.KindCancelled, outcome.Kind)
}

func TestRelayerDetectsUpdaterMismatch(t *testing.T) {
	db := openTestDB(t)
	entity := index.Entity("home", "test")
	_, addr := testKey(t)
	otherKey, err := cryptoutil.ParsePrivateKeyHex("0404040404040404040404040404040404040404040404040404040404040404")
	require.NoError(t, err)
	otherAddr := [20]byte(crypto.PubkeyToAddress(otherKey.PublicKey))

	home := mockadapter.NewHome(testDomain, addr)
	replica := mockadapter.NewReplica(testDomain, otherAddr, merkle.EmptyRoot())

	r := &Relayer{
		Config:  Config{Entity: entity, Interval: 5 * time.Millisecond},
		DB:      db,
		Home:    home,
		Replica: replica,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	outcome := r.Step(ctx)
	require.Equal(t, pipeline.KindUnrecoverable, outcome.Kind)
	require.True(t, outcome.WorthLogging)
}
