package chainadapter

import "context"

// WithFinalityLag wraps an Indexer so that TipBlock never reports a height
// newer than the underlying tip minus lag blocks, per spec section 4.C.
// FetchUpdates/FetchDispatches are passed through unchanged — callers are
// expected to bound their own range requests against the lagged tip.
func WithFinalityLag(inner Indexer, lag uint64) Indexer {
	return &laggedIndexer{inner: inner, lag: lag}
}

type laggedIndexer struct {
	inner Indexer
	lag   uint64
}

func (l *laggedIndexer) TipBlock(ctx context.Context) (uint64, error) {
	tip, err := l.inner.TipBlock(ctx)
	if err != nil {
		return 0, err
	}
	if tip < l.lag {
		return 0, nil
	}
	return tip - l.lag, nil
}

func (l *laggedIndexer) FetchUpdates(ctx context.Context, from, to uint64) ([]SignedUpdateWithMeta, error) {
	return l.inner.FetchUpdates(ctx, from, to)
}

func (l *laggedIndexer) FetchDispatches(ctx context.Context, from, to uint64) ([]DispatchEvent, error) {
	return l.inner.FetchDispatches(ctx, from, to)
}
