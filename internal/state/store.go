package state

import (
	"context"
	"strconv"
	"strings"
)

// Store is a small durable KV used for signer state (the Extended order
// nonce). Venue positions and balances are never stored; they are re-fetched
// every cycle.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// GetUint64 reads and parses an unsigned counter stored under key.
func GetUint64(ctx context.Context, store Store, key string) (uint64, bool, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		return 0, false, err
	}
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false, err
	}
	return value, true, nil
}

// SetUint64 stores an unsigned counter under key.
func SetUint64(ctx context.Context, store Store, key string, value uint64) error {
	return store.Set(ctx, key, strconv.FormatUint(value, 10))
}
