package transactions

import (
	"errors"
	"fmt"
	"math"
)

const (
	// sender of the mining reward, no account behind it
	REWARD_SENDER = "0"
)

var ErrMalformedTransaction = errors.New("malformed transaction")

type Transaction struct {
	Sender    string  `json:"sender" yaml:"sender"`
	Recipient string  `json:"recipient" yaml:"recipient"`
	Amount    float64 `json:"amount" yaml:"amount"`
}

func NewReward(recipient string, amount float64) Transaction {
	return Transaction{
		Sender:    REWARD_SENDER,
		Recipient: recipient,
		Amount:    amount,
	}
}

func (tx Transaction) IsReward() bool {
	return tx.Sender == REWARD_SENDER
}

func (tx Transaction) String() string {
	return fmt.Sprintf("%s -> %s: %v", tx.Sender, tx.Recipient, tx.Amount)
}

// Request is a transaction as it arrives at the boundary. Pointer fields tell
// an absent field apart from a zero value.
type Request struct {
	Sender    *string  `json:"sender"`
	Recipient *string  `json:"recipient"`
	Amount    *float64 `json:"amount"`
}

func (r *Request) ContentsCheck() error {
	var missing []string
	if r.Sender == nil {
		missing = append(missing, "sender")
	}
	if r.Recipient == nil {
		missing = append(missing, "recipient")
	}
	if r.Amount == nil {
		missing = append(missing, "amount")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing values %v", ErrMalformedTransaction, missing)
	}
	if math.IsNaN(*r.Amount) || math.IsInf(*r.Amount, 0) {
		return fmt.Errorf("%w: amount is not a finite number", ErrMalformedTransaction)
	}
	return nil
}

func (r *Request) Transaction() (Transaction, error) {
	if err := r.ContentsCheck(); err != nil {
		return Transaction{}, err
	}
	return Transaction{
		Sender:    *r.Sender,
		Recipient: *r.Recipient,
		Amount:    *r.Amount,
	}, nil
}
