package blocks

import (
	"strings"

	"simple-ledger-go/transactions"
)

const (
	GENESIS_INDEX     int64   = 0
	GENESIS_TIMESTAMP float64 = 0
	GENESIS_PROOF     int64   = 100
)

var GENESIS_PREVIOUS_HASH = strings.Repeat("0", 64)

// Genesis returns the fixed first block. Every node builds the same one, so
// chains of independently started nodes can be compared block by block.
func Genesis() Block {
	return Block{
		Index:        GENESIS_INDEX,
		Timestamp:    GENESIS_TIMESTAMP,
		Transactions: []transactions.Transaction{},
		Proof:        GENESIS_PROOF,
		PreviousHash: GENESIS_PREVIOUS_HASH,
	}
}

func IsGenesis(b *Block) bool {
	genesis := Genesis()
	return genesis.Equal(b)
}
