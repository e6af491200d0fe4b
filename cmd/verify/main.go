// Command verify is an offline credentials self-check: it signs one
// synthetic order per venue with the keys from the environment and verifies
// each signature locally. Nothing is sent anywhere.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"funding-arb-bot/internal/config"
	extexchange "funding-arb-bot/internal/extended/exchange"
	extrest "funding-arb-bot/internal/extended/rest"
	pacexchange "funding-arb-bot/internal/pacifica/exchange"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
)

func main() {
	envPath := flag.String("env", ".env", "path to the env file holding credentials")
	flag.Parse()

	if err := run(*envPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(envPath string) error {
	if err := config.LoadEnv(envPath); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	creds, err := config.CredentialsFromEnv()
	if err != nil {
		return err
	}
	if err := checkExtended(creds); err != nil {
		return fmt.Errorf("extended: %w", err)
	}
	fmt.Println("extended: stark signature verified")
	if err := checkPacifica(creds); err != nil {
		return fmt.Errorf("pacifica: %w", err)
	}
	fmt.Println("pacifica: ed25519 signature verified")
	return nil
}

func checkExtended(creds config.Credentials) error {
	signer, err := extexchange.NewSigner(creds.ExtendedStarkPrivateKey, creds.ExtendedStarkPublicKey, creds.ExtendedVaultID)
	if err != nil {
		return err
	}
	domainHash, err := extexchange.DomainHash(extrest.DomainData{
		Name:     "Perpetuals",
		Version:  "v0",
		ChainID:  "SN_MAIN",
		Revision: "1",
	})
	if err != nil {
		return err
	}
	hash, err := signer.OrderHash(extexchange.OrderHashParams{
		SyntheticAssetID:  "0x534f4c2d55534400000000000000000000",
		CollateralAssetID: "0x1",
		SyntheticAmount:   -1_000_000_000,
		CollateralAmount:  150_000_000,
		FeeAmount:         75_000,
		Expiration:        uint64(time.Now().Add(time.Hour).Unix()),
		Nonce:             uint64(time.Now().UnixMilli()),
	}, domainHash)
	if err != nil {
		return err
	}
	settlement, err := signer.Sign(hash)
	if err != nil {
		return err
	}
	r, err := hexutil.DecodeBig(settlement.Signature.R)
	if err != nil {
		return err
	}
	s, err := hexutil.DecodeBig(settlement.Signature.S)
	if err != nil {
		return err
	}
	if !signer.Verify(hash, r, s) {
		return fmt.Errorf("signature does not verify against the public key")
	}
	return nil
}

func checkPacifica(creds config.Credentials) error {
	signer, err := pacexchange.NewSigner(creds.PacificaPrivateKey)
	if err != nil {
		return err
	}
	if account := signer.Account(); account != creds.PacificaWalletAddress {
		return fmt.Errorf("key derives %s but wallet address is %s", account, creds.PacificaWalletAddress)
	}
	signature, canonical, err := signer.SignMessage(pacexchange.SignedMessage{
		Timestamp:    uint64(time.Now().UnixMilli()),
		ExpiryWindow: 5_000,
		Type:         "create_market_order",
		Data: pacexchange.OrderPayload{
			Symbol:          "SOL",
			Side:            "bid",
			Amount:          "1",
			SlippagePercent: "0.01",
			ClientOrderID:   uuid.NewString(),
		},
	})
	if err != nil {
		return err
	}
	if !signer.VerifyMessage(canonical, signature) {
		return fmt.Errorf("signature does not verify against the public key")
	}
	return nil
}
