package transactions

import "golang.org/x/exp/slices"

// Subtract removes from list one entry per element of remove, matched by
// value, and keeps the order of what is left. list is not modified.
func Subtract(list []Transaction, remove []Transaction) []Transaction {
	left := slices.Clone(list)
	for _, tx := range remove {
		idx := slices.Index(left, tx)
		if idx >= 0 {
			left = slices.Delete(left, idx, idx+1)
		}
	}
	return left
}

// WithoutRewards drops mining reward entries.
func WithoutRewards(list []Transaction) []Transaction {
	out := make([]Transaction, 0, len(list))
	for _, tx := range list {
		if !tx.IsReward() {
			out = append(out, tx)
		}
	}
	return out
}
