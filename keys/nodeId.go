package keys

import (
	"crypto/rand"

	"github.com/btcsuite/btcutil/base58"
	"golang.org/x/crypto/sha3"
)

const (
	SEED_LEN    = 32
	NODE_ID_LEN = 20
)

// NewNodeId returns a random identifier for a node, the recipient of its
// mining rewards.
func NewNodeId() (string, error) {
	seed := make([]byte, SEED_LEN)
	if _, err := rand.Read(seed); err != nil {
		return "", err
	}
	return NodeIdFromSeed(seed), nil
}

func NodeIdFromSeed(seed []byte) string {
	sum := sha3.Sum256(seed)
	return base58.Encode(sum[:NODE_ID_LEN])
}
