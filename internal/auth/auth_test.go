package auth

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetAPIKeyFromEnv(t *testing.T) {
	const testKey = "test-api-key-12345"

	t.Setenv("GEMINI_API_KEY", testKey)

	key, err := GetAPIKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if key != testKey {
		t.Errorf("expected key %q, got %q", testKey, key)
	}
}

func TestGetAPIKeyNoSource(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	os.Unsetenv("GEMINI_API_KEY")

	// Temporary home directory without a key file
	t.Setenv("HOME", t.TempDir())

	_, err := GetAPIKey()
	if err == nil {
		t.Error("expected error when no API key source available")
	}
}

func TestGetAPIKeyFromFile(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	os.Unsetenv("GEMINI_API_KEY")

	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	dir := filepath.Join(tmpHome, configDir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, keyFile), []byte("file-key-abc\n"), 0600); err != nil {
		t.Fatal(err)
	}

	key, err := GetAPIKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "file-key-abc" {
		t.Errorf("expected key from file, got %q", key)
	}
}

func TestGetAPIKeyInsecureFileSkipped(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	os.Unsetenv("GEMINI_API_KEY")

	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	dir := filepath.Join(tmpHome, configDir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, keyFile), []byte("leaky-key"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := GetAPIKey(); err == nil {
		t.Error("expected error for key file with group/other permissions")
	}
}

func TestKeyFilePath(t *testing.T) {
	path, err := keyFilePath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, configDir, keyFile)

	if path != expected {
		t.Errorf("expected path %q, got %q", expected, path)
	}
}
