package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	iterations = 100_000
	saltLength = 16
	keyLength  = 32
)

// Hash derives a PBKDF2-SHA256 hash of the password with a fresh random salt.
// The stored format is "iterations:saltHex:keyHex" so the iteration count can
// be raised later without breaking verification of existing hashes.
func Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := pbkdf2.Key([]byte(password), salt, iterations, keyLength, sha256.New)
	return fmt.Sprintf("%d:%s:%s", iterations, hex.EncodeToString(salt), hex.EncodeToString(key)), nil
}

// Verify recomputes the derived key using the salt and iteration count stored
// in the hash and compares in constant time. A malformed stored hash fails
// closed: the result is false, never a panic or an error.
func Verify(password, stored string) bool {
	parts := strings.Split(stored, ":")
	if len(parts) != 3 {
		return false
	}

	iter, err := strconv.Atoi(parts[0])
	if err != nil || iter <= 0 {
		return false
	}

	salt, err := hex.DecodeString(parts[1])
	if err != nil || len(salt) == 0 {
		return false
	}

	want, err := hex.DecodeString(parts[2])
	if err != nil || len(want) == 0 {
		return false
	}

	got := pbkdf2.Key([]byte(password), salt, iter, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
