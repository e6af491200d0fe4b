package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	body := "# comment\nFOO_KEY=bar\nexport QUOTED_KEY=\"quoted value\"\nPRESET_KEY=from-file\n\nBROKEN LINE\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("PRESET_KEY", "from-env")
	os.Unsetenv("FOO_KEY")
	os.Unsetenv("QUOTED_KEY")
	t.Cleanup(func() {
		os.Unsetenv("FOO_KEY")
		os.Unsetenv("QUOTED_KEY")
	})

	if err := LoadEnv(path); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if got := os.Getenv("FOO_KEY"); got != "bar" {
		t.Fatalf("FOO_KEY = %q", got)
	}
	if got := os.Getenv("QUOTED_KEY"); got != "quoted value" {
		t.Fatalf("QUOTED_KEY = %q", got)
	}
	if got := os.Getenv("PRESET_KEY"); got != "from-env" {
		t.Fatalf("existing env should win, got %q", got)
	}
}

func TestLoadEnvMissingFile(t *testing.T) {
	if err := LoadEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
}

func TestCredentialsFromEnv(t *testing.T) {
	vars := map[string]string{
		"EXTENDED_API_KEY":           "key",
		"EXTENDED_STARK_PRIVATE_KEY": "0x1",
		"EXTENDED_STARK_PUBLIC_KEY":  "0x2",
		"EXTENDED_VAULT_ID":          "101",
		"PACIFICA_PRIVATE_KEY":       "base58secret",
		"PACIFICA_WALLET_ADDRESS":    "wallet",
	}
	for k, v := range vars {
		t.Setenv(k, v)
	}
	creds, err := CredentialsFromEnv()
	if err != nil {
		t.Fatalf("CredentialsFromEnv: %v", err)
	}
	if creds.ExtendedVaultID != "101" || creds.PacificaWalletAddress != "wallet" {
		t.Fatalf("unexpected credentials: %+v", creds)
	}

	t.Setenv("EXTENDED_API_KEY", "")
	t.Setenv("PACIFICA_PRIVATE_KEY", "")
	if _, err := CredentialsFromEnv(); err == nil {
		t.Fatal("expected error for missing credentials")
	} else {
		msg := err.Error()
		for _, want := range []string{"EXTENDED_API_KEY", "PACIFICA_PRIVATE_KEY"} {
			if !strings.Contains(msg, want) {
				t.Fatalf("error %q should mention %s", msg, want)
			}
		}
	}
}
