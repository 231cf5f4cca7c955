package p2p

import (
	"errors"
	"fmt"

	"simple-ledger-go/blocks"
	"simple-ledger-go/transactions"
)

type MessageKind byte

const (
	NEW_BLOCK_MSG MessageKind = iota + 1
	NEW_TX_MSG
	REQUEST_CHAIN_MSG
	RESPOND_CHAIN_MSG
)

var ErrEmptyPayload = errors.New("empty payload")

func (mk MessageKind) MakePayload(data []byte) []byte {
	bs := make([]byte, 0, len(data)+1)
	bs = append(bs, byte(mk))
	bs = append(bs, data...)
	return bs
}

// SplitPayload undoes MakePayload.
func SplitPayload(payload []byte) (MessageKind, []byte, error) {
	if len(payload) == 0 {
		return 0, nil, ErrEmptyPayload
	}
	return MessageKind(payload[0]), payload[1:], nil
}

func (mk MessageKind) ToString() string {
	switch mk {
	case NEW_BLOCK_MSG:
		return "new block message"
	case NEW_TX_MSG:
		return "new transaction message"
	case REQUEST_CHAIN_MSG:
		return "request chain message"
	case RESPOND_CHAIN_MSG:
		return "respond chain message"
	default:
		return fmt.Sprintf("unknown message %d", mk)
	}
}

// From is the sender's P2P listen address.
type NewBlockMsg struct {
	From  string
	Id    string
	Block blocks.Block
}

type NewTransactionMsg struct {
	From        string
	Id          string
	Transaction transactions.Transaction
}

type RequestChainMsg struct {
	From string
}

type RespondChainMsg struct {
	From   string
	Chain  []blocks.Block
	Length int
}
