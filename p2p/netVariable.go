package p2p

import (
	"crypto/rand"

	"github.com/btcsuite/btcutil/base58"
)

const (
	TCP            = "tcp"
	MESSAGE_ID_LEN = 16
)

// NewMessageId returns a random base58 id used to drop relayed repeats.
func NewMessageId() string {
	b := make([]byte, MESSAGE_ID_LEN)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base58.Encode(b)
}
