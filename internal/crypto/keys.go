package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the length of both master and derived keys.
const KeySize = 32

const sessionKeyInfo = "phonelogin-session-v1"

// ErrInvalidKeyLength is returned when a key is not KeySize bytes long.
var ErrInvalidKeyLength = errors.New("invalid key length")

// DeriveSessionKey derives the key that seals stored sessions from the master
// key using HKDF-SHA256. binding ties the key to a device; empty means unbound.
func DeriveSessionKey(master []byte, binding string) ([]byte, error) {
	if len(master) != KeySize {
		return nil, ErrInvalidKeyLength
	}
	info := []byte(sessionKeyInfo)
	if binding != "" {
		info = append(info, ':')
		info = append(info, binding...)
	}
	h := hkdf.New(sha256.New, master, nil, info)
	out := make([]byte, KeySize)
	if _, err := io.ReadFull(h, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GenerateMasterKey returns a fresh random master key.
func GenerateMasterKey() []byte {
	return MustRandom(KeySize)
}

// MustRandom returns n random bytes or panics.
func MustRandom(n int) []byte {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		panic(err)
	}
	return b
}
