package session

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const pinIterations = 100_000

func hashPIN(pin string, salt []byte) []byte {
	return pbkdf2.Key([]byte(pin), salt, pinIterations, 32, sha256.New)
}

func newSalt() ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

func pinMatches(pin string, saltHex, hashHex string) bool {
	salt, err := hex.DecodeString(strings.TrimSpace(saltHex))
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(strings.TrimSpace(hashHex))
	if err != nil {
		return false
	}
	return hmac.Equal(hashPIN(pin, salt), want)
}
