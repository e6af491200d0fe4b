package exchange

import (
	"fmt"
	"math/big"
	"strings"

	"funding-arb-bot/internal/extended/rest"
	"funding-arb-bot/internal/venue"

	"github.com/NethermindEth/starknet.go/curve"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// starkPrime is the Stark field modulus, 2^251 + 17*2^192 + 1. Negative
// settlement amounts wrap to P - |v|.
var starkPrime, _ = new(big.Int).SetString("800000000000011000000000000000000000000000000000000000000000001", 16)

// Signer produces StarkEx settlement signatures for one vault.
type Signer struct {
	privateKey   *big.Int
	publicKey    *big.Int
	publicKeyHex string
	vaultID      *big.Int
	vaultRaw     string
}

func NewSigner(privateKeyHex, publicKeyHex, vaultID string) (*Signer, error) {
	priv, err := feltFromString(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("stark private key: %w", err)
	}
	pub, err := feltFromString(publicKeyHex)
	if err != nil {
		return nil, fmt.Errorf("stark public key: %w", err)
	}
	vault, err := feltFromString(vaultID)
	if err != nil {
		return nil, fmt.Errorf("vault id: %w", err)
	}
	return &Signer{
		privateKey:   priv,
		publicKey:    pub,
		publicKeyHex: publicKeyHex,
		vaultID:      vault,
		vaultRaw:     vaultID,
	}, nil
}

// OrderHashParams are the scaled settlement amounts of one order leg. The
// amounts carry the transfer sign: buying synthetic means collateral flows
// out, so CollateralAmount is negative; selling inverts both.
type OrderHashParams struct {
	SyntheticAssetID  string
	CollateralAssetID string
	SyntheticAmount   int64
	CollateralAmount  int64
	FeeAmount         int64
	Expiration        uint64
	Nonce             uint64
}

// DomainHash folds the venue's signing domain into a single field element.
// Every order hash binds to it, so orders signed for one deployment cannot
// replay on another.
func DomainHash(domain rest.DomainData) (*big.Int, error) {
	fields := []struct {
		name string
		raw  string
	}{
		{"name", domain.Name},
		{"version", domain.Version},
		{"chainId", domain.ChainID},
		{"revision", domain.Revision},
	}
	elems := make([]*big.Int, 0, len(fields))
	for _, field := range fields {
		felt, err := feltFromString(field.raw)
		if err != nil {
			return nil, fmt.Errorf("%w: domain %s: %v", venue.ErrSigningFailure, field.name, err)
		}
		elems = append(elems, felt)
	}
	return curve.ComputeHashOnElements(elems), nil
}

// OrderHash computes the Pedersen chain the settlement layer verifies. The
// element order is fixed by the venue; reordering any field changes the hash.
func (s *Signer) OrderHash(p OrderHashParams, domainHash *big.Int) (*big.Int, error) {
	syntheticID, err := feltFromString(p.SyntheticAssetID)
	if err != nil {
		return nil, fmt.Errorf("%w: synthetic asset id: %v", venue.ErrSigningFailure, err)
	}
	collateralID, err := feltFromString(p.CollateralAssetID)
	if err != nil {
		return nil, fmt.Errorf("%w: collateral asset id: %v", venue.ErrSigningFailure, err)
	}
	elems := []*big.Int{
		s.vaultID,
		syntheticID,
		feltFromInt64(p.SyntheticAmount),
		collateralID,
		feltFromInt64(p.CollateralAmount),
		collateralID, // fees settle in collateral
		feltFromInt64(p.FeeAmount),
		new(big.Int).SetUint64(p.Expiration),
		new(big.Int).SetUint64(p.Nonce),
		s.publicKey,
		domainHash,
	}
	return curve.ComputeHashOnElements(elems), nil
}

// Sign signs an order hash and wraps it in the settlement envelope the wire
// schema expects.
func (s *Signer) Sign(hash *big.Int) (Settlement, error) {
	r, sig, err := curve.Curve.Sign(hash, s.privateKey)
	if err != nil {
		return Settlement{}, fmt.Errorf("%w: stark sign: %v", venue.ErrSigningFailure, err)
	}
	return Settlement{
		Signature: Signature{
			R: hexutil.EncodeBig(r),
			S: hexutil.EncodeBig(sig),
		},
		StarkKey:           s.publicKeyHex,
		CollateralPosition: s.vaultRaw,
	}, nil
}

// Verify checks a signature against the signer's public key. Only the x
// coordinate is configured, so both y candidates are tried.
func (s *Signer) Verify(hash, r, sig *big.Int) bool {
	y := curve.Curve.GetYCoordinate(s.publicKey)
	if y == nil {
		return false
	}
	if curve.Curve.Verify(hash, r, sig, s.publicKey, y) {
		return true
	}
	negY := new(big.Int).Sub(starkPrime, y)
	return curve.Curve.Verify(hash, r, sig, s.publicKey, negY)
}

// feltFromString parses a field element from 0x-hex, decimal, or a Cairo
// short string (at most 31 ASCII bytes).
func feltFromString(raw string) (*big.Int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("empty field element")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, ok := new(big.Int).SetString(s[2:], 16)
		if !ok {
			return nil, fmt.Errorf("bad hex field element %q", raw)
		}
		return v, nil
	}
	if v, ok := new(big.Int).SetString(s, 10); ok {
		return v, nil
	}
	if len(s) > 31 {
		return nil, fmt.Errorf("short string too long: %q", raw)
	}
	return new(big.Int).SetBytes([]byte(s)), nil
}

// feltFromInt64 encodes a signed amount into the field.
func feltFromInt64(v int64) *big.Int {
	b := big.NewInt(v)
	if v < 0 {
		b.Abs(b)
		b.Sub(starkPrime, b)
	}
	return b
}
