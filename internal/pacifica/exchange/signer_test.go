package exchange

import (
	"bytes"
	"crypto/ed25519"
	"testing"

	"github.com/gagliardetto/solana-go"
)

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	seed := bytes.Repeat([]byte{7}, ed25519.SeedSize)
	key := solana.PrivateKey(ed25519.NewKeyFromSeed(seed))
	signer, err := NewSigner(key.String())
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	return signer
}

func testMessage() SignedMessage {
	return SignedMessage{
		Timestamp:    1700000000000,
		ExpiryWindow: 5000,
		Type:         "create_market_order",
		Data: OrderPayload{
			Symbol:          "SOL",
			Side:            "bid",
			Amount:          "10.5",
			SlippagePercent: "0.01",
			ClientOrderID:   "11111111-2222-3333-4444-555555555555",
		},
	}
}

func TestSignMessageDeterministic(t *testing.T) {
	signer := newTestSigner(t)
	sig1, canonical1, err := signer.SignMessage(testMessage())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	sig2, canonical2, err := signer.SignMessage(testMessage())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if canonical1 != canonical2 {
		t.Error("canonical form must be stable")
	}
	if sig1 != sig2 {
		t.Error("ed25519 signatures are deterministic for a fixed message")
	}
}

func TestSignMessageVerifies(t *testing.T) {
	signer := newTestSigner(t)
	sig, canonical, err := signer.SignMessage(testMessage())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !signer.VerifyMessage(canonical, sig) {
		t.Error("signature should verify over the canonical message")
	}
	if signer.VerifyMessage(canonical+" ", sig) {
		t.Error("any byte change must invalidate the signature")
	}
}

func TestSignMessageFieldChangeChangesSignature(t *testing.T) {
	signer := newTestSigner(t)
	base, _, err := signer.SignMessage(testMessage())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	bumped := testMessage()
	bumped.Timestamp++
	sig, _, err := signer.SignMessage(bumped)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if sig == base {
		t.Error("timestamp change must change the signature")
	}

	resized := testMessage()
	resized.Data.Amount = "10.6"
	sig, _, err = signer.SignMessage(resized)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if sig == base {
		t.Error("amount change must change the signature")
	}
}

func TestAccountIsWalletAddress(t *testing.T) {
	seed := bytes.Repeat([]byte{7}, ed25519.SeedSize)
	key := solana.PrivateKey(ed25519.NewKeyFromSeed(seed))
	signer := newTestSigner(t)
	if signer.Account() != key.PublicKey().String() {
		t.Errorf("account = %s, want %s", signer.Account(), key.PublicKey())
	}
}

func TestNewSignerRejectsGarbage(t *testing.T) {
	if _, err := NewSigner("not-base58-0OIl"); err == nil {
		t.Error("invalid key material should fail")
	}
}
