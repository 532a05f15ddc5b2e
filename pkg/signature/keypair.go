package signature

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/ChainSafe/gossamer/lib/crypto/sr25519"
	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-envconfig"
)

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	usr, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("failed to get current user: %w", err)
	}
	return filepath.Join(usr.HomeDir, path[2:]), nil
}

// LoadMnemonic reads the secretPhrase field of a bittensor keyfile.
func LoadMnemonic(path string) (string, error) {
	path, err := expandHome(path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to read keypair file")
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	var keyfile struct {
		SecretPhrase *string `json:"secretPhrase"`
	}
	if err := sonic.Unmarshal(data, &keyfile); err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to parse keypair JSON")
		return "", fmt.Errorf("failed to parse JSON: %w", err)
	}
	if keyfile.SecretPhrase == nil || *keyfile.SecretPhrase == "" {
		return "", fmt.Errorf("secretPhrase not found in %s", path)
	}
	return *keyfile.SecretPhrase, nil
}

// HotkeyPath resolves <BITTENSOR_DIR>/wallets/<coldkey>/hotkeys/<hotkey>.
func HotkeyPath(ctx context.Context, coldkeyName, hotkeyName string) (string, error) {
	var env walletEnv
	if err := envconfig.Process(ctx, &env); err != nil {
		return "", fmt.Errorf("failed to process wallet environment: %w", err)
	}
	if coldkeyName == "" {
		coldkeyName = DefaultWalletColdkey
	}
	dir := env.BittensorDir
	if dir == "" {
		dir = DefaultBittensorDir
	}
	return filepath.Join(dir, "wallets", coldkeyName, "hotkeys", hotkeyName), nil
}

func LoadKeypairFromHotkey(ctx context.Context, coldkeyName, hotkeyName string) (*sr25519.Keypair, error) {
	if hotkeyName == "" {
		return nil, fmt.Errorf("hotkey name is empty")
	}
	path, err := HotkeyPath(ctx, coldkeyName, hotkeyName)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("path", path).Str("hotkey_name", hotkeyName).Msg("Loading keypair from hotkey path")

	mnemonic, err := LoadMnemonic(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load seed phrase: %w", err)
	}

	keypair, err := sr25519.NewKeypairFromMnenomic(mnemonic, "")
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to create keypair from seed phrase")
		return nil, fmt.Errorf("failed to create keypair from seed phrase: %w", err)
	}
	return keypair, nil
}
