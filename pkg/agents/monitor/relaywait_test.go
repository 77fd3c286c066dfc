package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/nomadprotocol/agents/pkg/chainadapter/mockadapter"
	"github.com/nomadprotocol/agents/pkg/cryptoutil"
	"github.com/nomadprotocol/agents/pkg/merkle"
	"github.com/nomadprotocol/agents/pkg/types"
)

func TestRelayWaitObservesProcessAfterRelay(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	metrics := m.NewRelayWaitMetrics("replica", "home", "replica-contract")

	key, err := cryptoutil.ParsePrivateKeyHex("0808080808080808080808080808080808080808080808080808080808080808")
	require.NoError(t, err)
	updater := [20]byte(crypto.PubkeyToAddress(key.PublicKey))

	tree := merkle.NewFullTree()
	root0 := tree.Root()

	msg := testDispatchMessage(0)
	leafIndex := uint32(tree.Count())
	newRoot, err := tree.Insert(msg.Leaf())
	require.NoError(t, err)

	replica := mockadapter.NewReplica(1, updater, root0)

	rw := &RelayWait{
		Config:  RelayWaitConfig{Network: "replica", ReplicaOf: "home", Emitter: "replica-contract", ChunkSize: 100, IdleInterval: 5 * time.Millisecond},
		Replica: replica,
		Metrics: metrics,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		rw.Step(ctx)
		close(done)
	}()

	update := types.Update{HomeDomain: 1, PreviousRoot: root0, NewRoot: newRoot}
	sig, err := cryptoutil.Sign(update.SignedImage(), key)
	require.NoError(t, err)
	_, err = replica.SubmitUpdate(context.Background(), types.SignedUpdate{Update: update, Signature: sig})
	require.NoError(t, err)

	proof, err := tree.Prove(leafIndex)
	require.NoError(t, err)
	_, err = replica.SubmitProve(context.Background(), proof)
	require.NoError(t, err)
	_, err = replica.SubmitProcess(context.Background(), msg)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return testutil.CollectAndCount(metrics.Timer) == 1
	}, time.Second, 5*time.Millisecond)

	require.Equal(t, 1, testutil.CollectAndCount(metrics.Blocks))

	cancel()
	<-done
}
