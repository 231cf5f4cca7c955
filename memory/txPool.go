package memory

import (
	"simple-ledger-go/transactions"

	"golang.org/x/exp/slices"
)

// TxPool holds pending transactions in arrival order. It is not safe for
// concurrent use; the chain that owns it serializes access.
type TxPool struct {
	pool []transactions.Transaction
}

func NewTransactionPool() *TxPool {
	return &TxPool{
		pool: []transactions.Transaction{},
	}
}

func (p *TxPool) Len() int {
	return len(p.pool)
}

// no deduplication: equal transactions submitted twice are both kept
func (p *TxPool) Append(tx transactions.Transaction) {
	p.pool = append(p.pool, tx)
}

func (p *TxPool) GetAll() []transactions.Transaction {
	all := slices.Clone(p.pool)
	if all == nil {
		all = []transactions.Transaction{}
	}
	return all
}

// DropFirst removes the n oldest entries, the ones committed by a local mine.
func (p *TxPool) DropFirst(n int) {
	if n <= 0 {
		return
	}
	if n >= len(p.pool) {
		p.pool = []transactions.Transaction{}
		return
	}
	p.pool = slices.Delete(p.pool, 0, n)
}

// BatchRemove removes one pending entry per embedded transaction, by value.
// It returns how many entries were removed.
func (p *TxPool) BatchRemove(embedded []transactions.Transaction) int {
	before := len(p.pool)
	p.pool = transactions.Subtract(p.pool, embedded)
	if p.pool == nil {
		p.pool = []transactions.Transaction{}
	}
	return before - len(p.pool)
}

// Requeue puts transactions back at the front of the pool, ahead of newer
// arrivals.
func (p *TxPool) Requeue(txs []transactions.Transaction) {
	if len(txs) == 0 {
		return
	}
	p.pool = slices.Insert(p.pool, 0, txs...)
}
