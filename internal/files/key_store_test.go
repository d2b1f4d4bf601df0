package files

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteAndReadMasterKey(t *testing.T) {
	t.Setenv(MasterKeyEnv, "")
	path := filepath.Join(t.TempDir(), "master.key")

	if err := WriteMasterKey(path); err != nil {
		t.Fatalf("write: %v", err)
	}
	key, err := ReadMasterKey(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(key) != 32 {
		t.Fatalf("expected 32 byte key, got %d", len(key))
	}
	if err := WriteMasterKey(path); !errors.Is(err, ErrMasterKeyExists) {
		t.Fatalf("expected ErrMasterKeyExists, got %v", err)
	}
}

func TestReadMasterKeyPrefersEnv(t *testing.T) {
	t.Setenv(MasterKeyEnv, strings.Repeat("ab", 32))
	key, err := ReadMasterKey(filepath.Join(t.TempDir(), "missing.key"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if key[0] != 0xab {
		t.Fatalf("expected key from env, got %x", key)
	}
}

func TestReadMasterKeyErrors(t *testing.T) {
	t.Setenv(MasterKeyEnv, "")
	if _, err := ReadMasterKey(""); err == nil {
		t.Fatalf("expected error with no env and no file")
	}
	path := filepath.Join(t.TempDir(), "bad.key")
	if err := os.WriteFile(path, []byte("abcd\n"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadMasterKey(path); err == nil {
		t.Fatalf("expected error for short key")
	}
}
