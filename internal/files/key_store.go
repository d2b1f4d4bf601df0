package files

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"phonelogin/internal/crypto"
)

// MasterKeyEnv names the environment variable holding the hex master key.
const MasterKeyEnv = "MASTER_KEY_HEX"

// ErrMasterKeyExists is returned by WriteMasterKey when the file is present.
var ErrMasterKeyExists = errors.New("master key file already exists")

// ReadMasterKey reads the master key from MASTER_KEY_HEX, falling back to the
// hex file at path.
func ReadMasterKey(path string) ([]byte, error) {
	hexk := os.Getenv(MasterKeyEnv)
	if hexk == "" && path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read master key: %w", err)
		}
		hexk = string(data)
	}
	hexk = strings.TrimSpace(hexk)
	if hexk == "" {
		return nil, fmt.Errorf("%s not set and no key file", MasterKeyEnv)
	}
	b, err := hex.DecodeString(hexk)
	if err != nil {
		return nil, fmt.Errorf("master key hex decode error: %w", err)
	}
	if len(b) != crypto.KeySize {
		return nil, fmt.Errorf("master key length must be %d bytes (hex %d chars)", crypto.KeySize, crypto.KeySize*2)
	}
	return b, nil
}

// WriteMasterKey generates a key and writes it hex encoded to path. An
// existing file is never overwritten.
func WriteMasterKey(path string) error {
	if FileExists(path) {
		return fmt.Errorf("%w: %s", ErrMasterKeyExists, path)
	}
	key := crypto.GenerateMasterKey()
	return os.WriteFile(path, []byte(hex.EncodeToString(key)+"\n"), 0600)
}
