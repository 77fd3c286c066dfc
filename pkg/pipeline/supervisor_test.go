package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingStep struct {
	attempts int
	give     []Outcome
}

func (s *countingStep) Name() string { return "counting" }

func (s *countingStep) Step(ctx context.Context) Outcome {
	o := s.give[s.attempts]
	s.attempts++
	return o
}

func TestRunUntilPanicRespawnsOnRecoverable(t *testing.T) {
	old := RestartInterval
	RestartInterval = 5 * time.Millisecond
	t.Cleanup(func() { RestartInterval = old })

	step := &countingStep{give: []Outcome{
		Recoverable(errors.New("transient")),
		Recoverable(errors.New("transient again")),
		Unrecoverable(errors.New("done"), false),
	}}

	done := make(chan struct{})
	go func() {
		RunUntilPanic(context.Background(), zap.NewNop(), step)
		close(done)
	}()

	select {
	case <-done:
		require.Equal(t, 3, step.attempts)
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not terminate on Unrecoverable")
	}
}

func TestRunUntilPanicStopsOnCancelled(t *testing.T) {
	step := &countingStep{give: []Outcome{Cancelled()}}
	done := make(chan struct{})
	go func() {
		RunUntilPanic(context.Background(), zap.NewNop(), step)
		close(done)
	}()
	select {
	case <-done:
		require.Equal(t, 1, step.attempts)
	case <-time.After(time.Second):
		t.Fatal("supervisor did not stop on Cancelled")
	}
}

func TestChanSendAfterCloseFails(t *testing.T) {
	c := NewChan[int](0)
	c.Close()
	err := c.Send(1)
	require.ErrorIs(t, err, ErrChannelClosed)
}

func TestCombineChannels(t *testing.T) {
	a := make(chan int, 1)
	b := make(chan int, 1)
	a <- 1
	b <- 2
	close(a)
	close(b)

	out := CombineChannels(map[string]<-chan int{"a": a, "b": b})
	seen := map[string]int{}
	for v := range out {
		seen[v.Label] = v.Value
	}
	require.Equal(t, map[string]int{"a": 1, "b": 2}, seen)
}
