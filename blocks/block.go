package blocks

import (
	"bytes"
	"encoding/json"

	"simple-ledger-go/hashing"
	"simple-ledger-go/transactions"

	"golang.org/x/exp/slices"
)

type Block struct {
	Index        int64                      `json:"index" yaml:"index"`
	Timestamp    float64                    `json:"timestamp" yaml:"timestamp"`
	Transactions []transactions.Transaction `json:"transactions" yaml:"transactions"`
	Proof        int64                      `json:"proof" yaml:"proof"`
	PreviousHash string                     `json:"previous_hash" yaml:"previous_hash"`
}

func NewBlock(
	index int64,
	timestamp float64,
	txs []transactions.Transaction,
	proof int64,
	previousHash string,
) *Block {
	if txs == nil {
		txs = []transactions.Transaction{}
	}
	block := Block{
		Index:        index,
		Timestamp:    timestamp,
		Transactions: txs,
		Proof:        proof,
		PreviousHash: previousHash,
	}
	return &block
}

// keys sorted lexicographically, the order is part of the hash
type canonicalTransaction struct {
	Amount    float64 `json:"amount"`
	Recipient string  `json:"recipient"`
	Sender    string  `json:"sender"`
}

type canonicalBlock struct {
	Index        int64                  `json:"index"`
	PreviousHash string                 `json:"previous_hash"`
	Proof        int64                  `json:"proof"`
	Timestamp    float64                `json:"timestamp"`
	Transactions []canonicalTransaction `json:"transactions"`
}

// Canonical returns the serialization the identity hash is computed over.
func (b *Block) Canonical() ([]byte, error) {
	txs := make([]canonicalTransaction, 0, len(b.Transactions))
	for _, tx := range b.Transactions {
		txs = append(txs, canonicalTransaction{
			Amount:    tx.Amount,
			Recipient: tx.Recipient,
			Sender:    tx.Sender,
		})
	}

	buff := new(bytes.Buffer)
	encoder := json.NewEncoder(buff)
	encoder.SetEscapeHTML(false)
	err := encoder.Encode(canonicalBlock{
		Index:        b.Index,
		PreviousHash: b.PreviousHash,
		Proof:        b.Proof,
		Timestamp:    b.Timestamp,
		Transactions: txs,
	})
	if err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buff.Bytes(), []byte{'\n'}), nil
}

// Hash returns the hex identity hash of the block. A block that cannot be
// encoded (non-finite numbers) hashes to "", which never links to anything.
func (b *Block) Hash(algo hashing.Algorithm) string {
	data, err := b.Canonical()
	if err != nil {
		return ""
	}
	return algo.Hex(data)
}

// Equal reports whether both blocks have the same canonical encoding, so
// equal blocks always hash alike. Blocks that cannot be encoded are never
// equal.
func (b *Block) Equal(other *Block) bool {
	mine, err := b.Canonical()
	if err != nil {
		return false
	}
	theirs, err := other.Canonical()
	if err != nil {
		return false
	}
	return bytes.Equal(mine, theirs)
}

// Clone copies the block including its transaction list.
func (b Block) Clone() Block {
	b.Transactions = slices.Clone(b.Transactions)
	if b.Transactions == nil {
		b.Transactions = []transactions.Transaction{}
	}
	return b
}

func CloneChain(chain []Block) []Block {
	out := make([]Block, len(chain))
	for i := range chain {
		out[i] = chain[i].Clone()
	}
	return out
}
