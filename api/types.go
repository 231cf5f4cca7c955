package api

import (
	"simple-ledger-go/blocks"
	"simple-ledger-go/transactions"
)

const (
	MINED_MSG         = "New Block Forged"
	TX_QUEUED_FMT     = "Transaction will be added to Block %d"
	NODES_ADDED_MSG   = "New nodes have been added"
	CHAIN_REPLACED    = "Our chain was replaced"
	CHAIN_AUTHORITY   = "Our chain is authoritative"
	HEALTH_STATUS_OK  = "ok"
	MISSING_NODES_MSG = "Please supply a valid list of nodes"
)

type MineResponse struct {
	Message      string                     `json:"message"`
	Index        int64                      `json:"index"`
	Transactions []transactions.Transaction `json:"transactions"`
	Proof        int64                      `json:"proof"`
	PreviousHash string                     `json:"previous_hash"`
}

type TransactionResponse struct {
	Message string `json:"message"`
	Index   int64  `json:"index"`
}

type ChainResponse struct {
	Chain  []blocks.Block `json:"chain"`
	Length int            `json:"length"`
}

type RegisterRequest struct {
	Nodes []string `json:"nodes"`
}

type RegisterResponse struct {
	Message    string   `json:"message"`
	TotalNodes []string `json:"total_nodes"`
}

// ResolveResponse carries new_chain when the chain was replaced and chain
// otherwise.
type ResolveResponse struct {
	Message  string         `json:"message"`
	NewChain []blocks.Block `json:"new_chain,omitempty"`
	Chain    []blocks.Block `json:"chain,omitempty"`
}

func (r *ResolveResponse) Replaced() bool {
	return r.NewChain != nil
}

type HealthResponse struct {
	Status string `json:"status"`
	NodeID string `json:"node_id"`
	Length int    `json:"length"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
