package credential

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
)

const serviceName = "mailrepl"

// passwordEnv unlocks the encrypted file keyring without a prompt.
const passwordEnv = "MAILREPL_KEYRING_PASSWORD"

// KeyringConfig returns the keyring settings for passwd.keyring entries.
// The encrypted file fallback lives in dataDir/credentials; an empty
// dataDir uses ~/.local/share/mailrepl.
func KeyringConfig(dataDir string) keyring.Config {
	if dataDir == "" {
		dataDir = filepath.Join("~", ".local", "share", serviceName)
	}

	prompt := keyring.TerminalPrompt
	if pw := os.Getenv(passwordEnv); pw != "" {
		prompt = keyring.FixedStringPrompt(pw)
	}

	return keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(dataDir, "credentials"),
		FilePasswordFunc:         prompt,
		KeychainTrustApplication: true,
	}
}

// NewGetter returns a Getter reading entries from the keyring described
// by cfg. The keyring is opened on first use.
func NewGetter(cfg keyring.Config) Getter {
	return func(key string) (string, error) {
		ring, err := keyring.Open(cfg)
		if err != nil {
			return "", fmt.Errorf("opening keyring: %w", err)
		}

		item, err := ring.Get(key)
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", fmt.Errorf("keyring entry %q not found", key)
		}
		if err != nil {
			return "", fmt.Errorf("getting keyring entry %q: %w", key, err)
		}
		return string(item.Data), nil
	}
}

// Get reads key from the keyring with the default settings.
func Get(key string) (string, error) {
	return NewGetter(KeyringConfig(""))(key)
}
