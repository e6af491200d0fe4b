package config

import (
	"bufio"
	"os"
	"sort"
	"strings"
)

// LoadEnv reads a .env file and exports its entries into the process
// environment. A missing file is not an error; variables already present in
// the environment win over file entries.
func LoadEnv(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		if len(val) >= 2 {
			if (val[0] == '"' && val[len(val)-1] == '"') || (val[0] == '\'' && val[len(val)-1] == '\'') {
				val = val[1 : len(val)-1]
			}
		}
		if key == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		_ = os.Setenv(key, val)
	}

	return scanner.Err()
}

// Credentials holds the opaque secrets the venue clients need. The core
// never reads the environment itself; main loads these once and hands them
// to the constructors.
type Credentials struct {
	ExtendedAPIKey          string
	ExtendedStarkPrivateKey string
	ExtendedStarkPublicKey  string
	ExtendedVaultID         string
	PacificaPrivateKey      string
	PacificaWalletAddress   string
}

// CredentialsFromEnv collects the required secrets, reporting every missing
// variable at once.
func CredentialsFromEnv() (Credentials, error) {
	creds := Credentials{
		ExtendedAPIKey:          strings.TrimSpace(os.Getenv("EXTENDED_API_KEY")),
		ExtendedStarkPrivateKey: strings.TrimSpace(os.Getenv("EXTENDED_STARK_PRIVATE_KEY")),
		ExtendedStarkPublicKey:  strings.TrimSpace(os.Getenv("EXTENDED_STARK_PUBLIC_KEY")),
		ExtendedVaultID:         strings.TrimSpace(os.Getenv("EXTENDED_VAULT_ID")),
		PacificaPrivateKey:      strings.TrimSpace(os.Getenv("PACIFICA_PRIVATE_KEY")),
		PacificaWalletAddress:   strings.TrimSpace(os.Getenv("PACIFICA_WALLET_ADDRESS")),
	}
	var missing []string
	for name, value := range map[string]string{
		"EXTENDED_API_KEY":           creds.ExtendedAPIKey,
		"EXTENDED_STARK_PRIVATE_KEY": creds.ExtendedStarkPrivateKey,
		"EXTENDED_STARK_PUBLIC_KEY":  creds.ExtendedStarkPublicKey,
		"EXTENDED_VAULT_ID":          creds.ExtendedVaultID,
		"PACIFICA_PRIVATE_KEY":       creds.PacificaPrivateKey,
		"PACIFICA_WALLET_ADDRESS":    creds.PacificaWalletAddress,
	} {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return Credentials{}, &MissingCredentialsError{Names: missing}
	}
	return creds, nil
}

type MissingCredentialsError struct {
	Names []string
}

func (e *MissingCredentialsError) Error() string {
	names := append([]string(nil), e.Names...)
	sort.Strings(names)
	return "missing credentials: " + strings.Join(names, ", ")
}
