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
	"github.com/nomadprotocol/agents/pkg/types"
)

func TestDispatchWaitDrainsOnUpdate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	metrics := m.NewDispatchWaitMetrics("home")

	key, err := cryptoutil.ParsePrivateKeyHex("0606060606060606060606060606060606060606060606060606060606060606")
	require.NoError(t, err)
	updater := [20]byte(crypto.PubkeyToAddress(key.PublicKey))

	home := mockadapter.NewHome(1, updater)
	dw := &DispatchWait{
		Config:  DispatchWaitConfig{Network: "home", ChunkSize: 100, IdleInterval: 5 * time.Millisecond},
		Home:    home,
		Metrics: metrics,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		dw.Step(ctx)
		close(done)
	}()

	root0, err := home.CommittedRoot(context.Background())
	require.NoError(t, err)

	cm, err := home.Dispatch(testDispatchMessage(0))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.InQueue) == 1
	}, time.Second, 5*time.Millisecond)

	update := types.Update{HomeDomain: 1, PreviousRoot: root0, NewRoot: cm.CommittedRoot}
	sig, err := cryptoutil.Sign(update.SignedImage(), key)
	require.NoError(t, err)
	_, err = home.SubmitUpdate(context.Background(), types.SignedUpdate{Update: update, Signature: sig})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.InQueue) == 0
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return testutil.CollectAndCount(metrics.Timer) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
