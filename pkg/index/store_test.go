package index

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nomadprotocol/agents/pkg/types"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestStoreUpdateSatisfiesI1(t *testing.T) {
	db := newTestDB(t)
	entity := Entity("home", "test")

	su := types.SignedUpdate{Update: types.Update{
		HomeDomain:   1,
		PreviousRoot: types.HashBytes([]byte("p")),
		NewRoot:      types.HashBytes([]byte("n")),
	}}
	require.NoError(t, db.StoreUpdate(entity, su, nil))

	byPrev, err := db.LookupUpdateByPrev(entity, su.Update.PreviousRoot)
	require.NoError(t, err)
	byNew, err := db.LookupUpdateByNew(entity, su.Update.NewRoot)
	require.NoError(t, err)
	require.Equal(t, su, byPrev)
	require.Equal(t, su, byNew)
}

func TestStoreMessageSatisfiesI2AndI3(t *testing.T) {
	db := newTestDB(t)
	entity := Entity("home", "test")

	for i := uint32(0); i < 5; i++ {
		c := types.CommittedMessage{
			LeafIndex:     i,
			CommittedRoot: types.HashBytes([]byte{byte(i)}),
			Message:       types.Message{DestinationDomain: 9, Nonce: i, Body: []byte{byte(i)}},
		}
		require.NoError(t, db.StoreMessage(entity, c))

		leaf, byLeaf, err := db.LookupLeafByIndex(entity, i)
		require.NoError(t, err)
		require.Equal(t, c.Leaf(), leaf)
		require.Equal(t, c, byLeaf)

		byNonce, err := db.LookupMessageByNonce(entity, 9, i)
		require.NoError(t, err)
		require.Equal(t, c, byNonce)
	}
}

func TestStoreMessageRejectsGap(t *testing.T) {
	db := newTestDB(t)
	entity := Entity("home", "test")

	c := types.CommittedMessage{
		LeafIndex:     5,
		CommittedRoot: types.HashBytes([]byte("x")),
		Message:       types.Message{DestinationDomain: 1, Nonce: 5},
	}
	err := db.StoreMessage(entity, c)
	require.Error(t, err)
}

func TestProducerConflictDetection(t *testing.T) {
	db := newTestDB(t)
	entity := Entity("home", "test")

	prev := types.Hash{}
	first := types.SignedUpdate{Update: types.Update{PreviousRoot: prev, NewRoot: types.HashBytes([]byte{0xAA})}}
	require.NoError(t, db.StoreProducedUpdate(entity, first))

	second := types.SignedUpdate{Update: types.Update{PreviousRoot: prev, NewRoot: types.HashBytes([]byte{0xBB})}}
	err := db.StoreProducedUpdate(entity, second)
	require.ErrorIs(t, err, ErrProducerConflict)

	stored, err := db.LookupProducedUpdate(entity, prev)
	require.NoError(t, err)
	require.Equal(t, first, stored, "conflicting write must not be persisted")
}

func TestTipBlockSetAndGet(t *testing.T) {
	db := newTestDB(t)
	entity := Entity("home", "test")

	_, ok, err := db.GetTipBlock(entity, TipBlockUpdates)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, db.SetTipBlock(entity, TipBlockUpdates, 100))
	got, ok, err := db.GetTipBlock(entity, TipBlockUpdates)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 100, got)
}

func TestWaitForLeafUnblocksOnWrite(t *testing.T) {
	db := newTestDB(t)
	entity := Entity("home", "test")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		leaf, err := db.WaitForLeaf(ctx, entity, 0, WaitPoller{Initial: 5 * time.Millisecond, Max: 20 * time.Millisecond})
		require.NoError(t, err)
		require.Equal(t, types.HashBytes([]byte("leaf0")), leaf)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	c := types.CommittedMessage{
		LeafIndex: 0,
		Message:   types.Message{Body: []byte("leaf0-src")},
	}
	// Store a message whose leaf equals HashBytes([]byte("leaf0")) by
	// constructing it directly rather than via Message.Leaf(), since the
	// wait target is an arbitrary content-addressed hash in this test.
	c.Message = types.Message{}
	leafTarget := types.HashBytes([]byte("leaf0"))
	require.NoError(t, db.StoreEncodable(entity, PrefixLeafByIndex, encodeUint32(0), leafTarget[:]))

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("WaitForLeaf did not unblock")
	}
}
