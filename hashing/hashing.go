// Package hashing selects the digest used for block identity hashes and the
// proof-of-work predicate. Every node of a network must use the same one.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"
)

type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	SHA3   Algorithm = "sha3-256"
	BLAKE3 Algorithm = "blake3"

	DEFAULT_ALGORITHM = SHA256
)

func Parse(name string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(strings.TrimSpace(name))); a {
	case SHA256, SHA3, BLAKE3:
		return a, nil
	case "":
		return DEFAULT_ALGORITHM, nil
	default:
		return "", fmt.Errorf("unknown hash algorithm %q", name)
	}
}

func (a Algorithm) Sum(data []byte) [32]byte {
	switch a {
	case SHA256, "":
		return sha256.Sum256(data)
	case SHA3:
		return sha3.Sum256(data)
	case BLAKE3:
		return blake3.Sum256(data)
	default:
		panic(fmt.Sprintf("unknown hash algorithm %q", string(a)))
	}
}

// Hex returns the lower-case hex digest, always 64 characters.
func (a Algorithm) Hex(data []byte) string {
	sum := a.Sum(data)
	return hex.EncodeToString(sum[:])
}

func (a Algorithm) String() string {
	if a == "" {
		return string(DEFAULT_ALGORITHM)
	}
	return string(a)
}
