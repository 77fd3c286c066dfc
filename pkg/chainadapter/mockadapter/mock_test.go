package mockadapter

import (
	"context"
	"crypto/ecdsa"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/nomadprotocol/agents/pkg/cryptoutil"
	"github.com/nomadprotocol/agents/pkg/merkle"
	"github.com/nomadprotocol/agents/pkg/types"
)

const testDomain = uint32(1)

func testKey(t *testing.T) (*ecdsa.PrivateKey, [20]byte) {
	t.Helper()
	key, err := cryptoutil.ParsePrivateKeyHex("0101010101010101010101010101010101010101010101010101010101010101")
	require.NoError(t, err)
	addr := [20]byte(crypto.PubkeyToAddress(key.PublicKey))
	return key, addr
}

func signUpdate(t *testing.T, key *ecdsa.PrivateKey, u types.Update) types.SignedUpdate {
	t.Helper()
	sig, err := cryptoutil.Sign(u.SignedImage(), key)
	require.NoError(t, err)
	return types.SignedUpdate{Update: u, Signature: sig}
}

func TestHomeDispatchAndUpdate(t *testing.T) {
	ctx := context.Background()
	key, addr := testKey(t)
	home := NewHome(testDomain, addr)

	msg := types.Message{
		OriginDomain:      testDomain,
		Sender:            types.ID32{},
		DestinationDomain: 2,
		Recipient:         types.ID32{},
		Nonce:             0,
		Body:              []byte("hello"),
	}
	cm, err := home.Dispatch(msg)
	require.NoError(t, err)
	require.Equal(t, uint32(0), cm.LeafIndex)

	prevRoot, err := home.CommittedRoot(ctx)
	require.NoError(t, err)
	require.Equal(t, merkle.NewFullTree().Root(), prevRoot)

	update := types.Update{HomeDomain: testDomain, PreviousRoot: prevRoot, NewRoot: cm.CommittedRoot}
	su := signUpdate(t, key, update)

	out, err := home.SubmitUpdate(ctx, su)
	require.NoError(t, err)
	require.NotZero(t, out.TxID)

	root, err := home.CommittedRoot(ctx)
	require.NoError(t, err)
	require.Equal(t, cm.CommittedRoot, root)

	dispatches, err := home.FetchDispatches(ctx, 0, 100)
	require.NoError(t, err)
	require.Len(t, dispatches, 1)

	updates, err := home.FetchUpdates(ctx, 0, 100)
	require.NoError(t, err)
	require.Len(t, updates, 1)
}

func TestReplicaProveAndProcess(t *testing.T) {
	ctx := context.Background()
	key, addr := testKey(t)

	tree := merkle.NewFullTree()
	msg := types.Message{OriginDomain: testDomain, DestinationDomain: 2, Nonce: 0, Body: []byte("x")}
	root, err := tree.Insert(msg.Leaf())
	require.NoError(t, err)

	replica := NewReplica(testDomain, addr, merkle.NewFullTree().Root())
	update := types.Update{HomeDomain: testDomain, PreviousRoot: merkle.NewFullTree().Root(), NewRoot: root}
	su := signUpdate(t, key, update)

	_, err = replica.SubmitUpdate(ctx, su)
	require.NoError(t, err)

	accepted, err := replica.AcceptsRoot(ctx, root)
	require.NoError(t, err)
	require.True(t, accepted)

	proof, err := tree.Prove(0)
	require.NoError(t, err)

	_, err = replica.SubmitProve(ctx, proof)
	require.NoError(t, err)

	status, err := replica.MessageStatus(ctx, msg.Leaf())
	require.NoError(t, err)
	require.Equal(t, 1, int(status))

	_, err = replica.SubmitProcess(ctx, msg)
	require.NoError(t, err)

	status, err = replica.MessageStatus(ctx, msg.Leaf())
	require.NoError(t, err)
	require.Equal(t, 2, int(status))

	_, err = replica.SubmitProcess(ctx, msg)
	require.Error(t, err)
}

func TestConnectionManagerRejectsInvalidDoubleUpdate(t *testing.T) {
	ctx := context.Background()
	key, _ := testKey(t)

	u1 := types.Update{HomeDomain: testDomain, PreviousRoot: types.Hash{1}, NewRoot: types.Hash{2}}
	su1 := signUpdate(t, key, u1)

	cm := NewConnectionManager()
	_, err := cm.SubmitDoubleUpdate(ctx, types.DoubleUpdate{First: su1, Second: su1})
	require.Error(t, err)
	require.Empty(t, cm.Submitted())
}
