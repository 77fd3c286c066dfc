package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/nomadprotocol/agents/pkg/chainadapter"
	"github.com/nomadprotocol/agents/pkg/chainadapter/mockadapter"
	"github.com/nomadprotocol/agents/pkg/types"
)

func dispatchFetch(home *mockadapter.Home) FetchRange {
	return func(ctx context.Context, from, to uint64) ([]EventMeta, error) {
		events, err := home.FetchDispatches(ctx, from, to)
		if err != nil {
			return nil, err
		}
		out := make([]EventMeta, len(events))
		for i, ev := range events {
			out[i] = EventMeta{BlockNumber: ev.BlockNumber, IntraBlockIndex: ev.IntraBlockIndex}
		}
		return out, nil
	}
}

func TestBetweenEventsRecordsGaps(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	metrics := m.NewBetweenMetrics("home", "dispatch")

	home := mockadapter.NewHome(1, [20]byte{0xAA})
	be := &BetweenEvents{
		Config:  BetweenEventsConfig{Network: "home", Event: "dispatch", ChunkSize: 100, IdleInterval: 5 * time.Millisecond},
		Source:  home,
		Fetch:   dispatchFetch(home),
		Metrics: metrics,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		be.Step(ctx)
		close(done)
	}()

	_, err := home.Dispatch(testDispatchMessage(0))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.Count) == 1
	}, time.Second, 5*time.Millisecond)

	_, err = home.Dispatch(testDispatchMessage(1))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.Count) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func testDispatchMessage(nonce uint32) types.Message {
	return types.Message{
		OriginDomain:      1,
		Sender:            types.ID32{0x01},
		DestinationDomain: 7,
		Recipient:         types.ID32{0x02},
		Nonce:             nonce,
		Body:              []byte{byte(nonce)},
	}
}

var _ chainadapter.Home = (*mockadapter.Home)(nil)
