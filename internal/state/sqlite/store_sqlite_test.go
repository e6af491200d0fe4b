package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"funding-arb-bot/internal/state"
)

func TestStoreRoundTrip(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	value, ok, err := store.Get(ctx, "k")
	if err != nil || !ok || value != "v2" {
		t.Fatalf("get: %q ok=%v err=%v", value, ok, err)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatal("key should be gone")
	}
}

func TestStoreUint64Helpers(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	if _, ok, err := state.GetUint64(ctx, store, "nonce"); err != nil || ok {
		t.Fatalf("missing counter: ok=%v err=%v", ok, err)
	}
	if err := state.SetUint64(ctx, store, "nonce", 1700000000123); err != nil {
		t.Fatalf("set counter: %v", err)
	}
	value, ok, err := state.GetUint64(ctx, store, "nonce")
	if err != nil || !ok || value != 1700000000123 {
		t.Fatalf("get counter: %d ok=%v err=%v", value, ok, err)
	}

	if err := store.Set(ctx, "nonce", "not-a-number"); err != nil {
		t.Fatalf("set garbage: %v", err)
	}
	if _, _, err := state.GetUint64(ctx, store, "nonce"); err == nil {
		t.Fatal("expected parse error")
	}
}
