package index

import (
	"context"
	"fmt"
	"time"

	"github.com/nomadprotocol/agents/pkg/types"
)

// WaitPoller configures the bounded-backoff polling used by the Index's
// wait-for-key helpers. The Index has no pub/sub mechanism: every waiter
// polls.
type WaitPoller struct {
	Initial time.Duration
	Max     time.Duration
}

// DefaultWaitPoller is the backoff schedule used when callers do not
// supply their own: starts fast (good latency for the common case where
// the key appears promptly) and backs off to a one-second ceiling.
var DefaultWaitPoller = WaitPoller{Initial: 50 * time.Millisecond, Max: time.Second}

func (p WaitPoller) next(cur time.Duration) time.Duration {
	next := cur * 2
	if next > p.Max {
		return p.Max
	}
	return next
}

// WaitForLeaf blocks until leaf_by_index[index] is present, or ctx is
// cancelled.
func (db *DB) WaitForLeaf(ctx context.Context, entity string, index uint32, poller WaitPoller) (types.Hash, error) {
	delay := poller.Initial
	for {
		raw, err := db.RetrieveEncodable(entity, PrefixLeafByIndex, encodeUint32(index))
		if err == nil {
			leaf, ok := types.HashFromBytes(raw)
			if !ok {
				return types.Hash{}, fmt.Errorf("%w: leaf_by_index value wrong length", ErrDecode)
			}
			return leaf, nil
		}
		if err != ErrNotFound {
			return types.Hash{}, err
		}
		select {
		case <-ctx.Done():
			return types.Hash{}, ctx.Err()
		case <-time.After(delay):
		}
		delay = poller.next(delay)
	}
}

// WaitForProof blocks until proof_by_index[index] is present, or ctx is
// cancelled.
func (db *DB) WaitForProof(ctx context.Context, entity string, index uint32, poller WaitPoller) (types.Proof, error) {
	delay := poller.Initial
	for {
		p, err := db.LookupProof(entity, index)
		if err == nil {
			return p, nil
		}
		if err != ErrNotFound {
			return types.Proof{}, err
		}
		select {
		case <-ctx.Done():
			return types.Proof{}, ctx.Err()
		case <-time.After(delay):
		}
		delay = poller.next(delay)
	}
}

// WaitForMessage blocks until msg_nonce[(destination, nonce)] is present,
// or ctx is cancelled.
func (db *DB) WaitForMessage(ctx context.Context, entity string, destination, nonce uint32, poller WaitPoller) (types.CommittedMessage, error) {
	delay := poller.Initial
	for {
		msg, err := db.LookupMessageByNonce(entity, destination, nonce)
		if err == nil {
			return msg, nil
		}
		if err != ErrNotFound {
			return types.CommittedMessage{}, err
		}
		select {
		case <-ctx.Done():
			return types.CommittedMessage{}, ctx.Err()
		case <-time.After(delay):
		}
		delay = poller.next(delay)
	}
}
