package exchange

import (
	"context"
	"sync"
	"time"

	"funding-arb-bot/internal/state"
)

const nonceKey = "extended_order_nonce"

// NonceSource issues strictly increasing order nonces seeded from the wall
// clock. The last value is persisted before use so a restart never reissues
// a nonce, even within the same millisecond.
type NonceSource struct {
	store state.Store
	now   func() time.Time

	mu   sync.Mutex
	last uint64
}

func NewNonceSource(ctx context.Context, store state.Store) (*NonceSource, error) {
	last, _, err := state.GetUint64(ctx, store, nonceKey)
	if err != nil {
		return nil, err
	}
	return &NonceSource{store: store, now: time.Now, last: last}, nil
}

func (n *NonceSource) Next(ctx context.Context) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	candidate := uint64(n.now().UnixMilli())
	if candidate <= n.last {
		candidate = n.last + 1
	}
	if err := state.SetUint64(ctx, n.store, nonceKey, candidate); err != nil {
		return 0, err
	}
	n.last = candidate
	return candidate, nil
}
