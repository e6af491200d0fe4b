package exchange

import (
	"crypto/ed25519"
	"fmt"

	"funding-arb-bot/internal/venue"

	"github.com/gagliardetto/solana-go"
)

// Signer signs canonicalized order envelopes with the account's Solana
// keypair. The wallet public key doubles as the account identifier.
type Signer struct {
	key solana.PrivateKey
}

func NewSigner(privateKeyBase58 string) (*Signer, error) {
	key, err := solana.PrivateKeyFromBase58(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("pacifica private key: %w", err)
	}
	return &Signer{key: key}, nil
}

// Account returns the base58 wallet address derived from the keypair.
func (s *Signer) Account() string {
	return s.key.PublicKey().String()
}

// SignMessage canonicalizes the envelope and signs its UTF-8 bytes,
// returning the base58 signature and the exact message that was signed.
func (s *Signer) SignMessage(msg SignedMessage) (signature, canonical string, err error) {
	canonical, err = Canonicalize(msg)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", venue.ErrSigningFailure, err)
	}
	sig, err := s.key.Sign([]byte(canonical))
	if err != nil {
		return "", "", fmt.Errorf("%w: ed25519 sign: %v", venue.ErrSigningFailure, err)
	}
	return sig.String(), canonical, nil
}

// VerifyMessage checks a base58 signature over a canonical message against
// the signer's public key.
func (s *Signer) VerifyMessage(canonical, signatureBase58 string) bool {
	sig, err := solana.SignatureFromBase58(signatureBase58)
	if err != nil {
		return false
	}
	pub := s.key.PublicKey()
	return ed25519.Verify(pub.Bytes(), []byte(canonical), sig[:])
}
