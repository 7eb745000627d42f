// Package auth resolves the Gemini API credential for analysis calls.
//
// Resolution happens at call time, not at client construction: a key that is
// rotated mid-session (by editing the key file or re-exporting the variable)
// takes effect on the next analysis without a restart.
package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	configDir = ".photoactive"
	keyFile   = "api_key"
)

// CredentialProvider supplies an API key on demand. Implementations are
// queried once per analysis call.
type CredentialProvider func() (string, error)

// GetAPIKey retrieves the Gemini API key from available sources.
// Priority order:
//  1. GEMINI_API_KEY environment variable
//  2. Plain-text key file at ~/.photoactive/api_key (owner-only permissions)
func GetAPIKey() (string, error) {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		log.Debug().Msg("Using API key from environment variable")
		return key, nil
	}

	key, err := getFromKeyFile()
	if err == nil && key != "" {
		log.Debug().Msg("Using API key from key file")
		return key, nil
	}

	log.Debug().Err(err).Msg("No API key source available")
	return "", fmt.Errorf("API key not found: set GEMINI_API_KEY or write it to ~/%s/%s", configDir, keyFile)
}

// getFromKeyFile reads the API key from the key file, refusing files readable
// by group or others.
func getFromKeyFile() (string, error) {
	path, err := keyFilePath()
	if err != nil {
		return "", err
	}

	fi, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("key file not found at %s", path)
	}
	if err != nil {
		return "", err
	}

	if mode := fi.Mode().Perm(); mode&0077 != 0 {
		log.Warn().
			Str("key_file", path).
			Str("permissions", fmt.Sprintf("%04o", mode)).
			Msg("Key file has insecure permissions (should be 0600); refusing to use it")
		return "", fmt.Errorf("key file %s has insecure permissions %04o", path, fi.Mode().Perm())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read key file: %w", err)
	}

	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("key file %s is empty", path)
	}
	return key, nil
}

// keyFilePath returns the full path to the key file under the user's home.
func keyFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, configDir, keyFile), nil
}
