package blockchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"simple-ledger-go/blocks"
	"simple-ledger-go/hashing"
	"simple-ledger-go/memory"
	"simple-ledger-go/pow"
	"simple-ledger-go/transactions"
)

const (
	DEFAULT_DIFFICULTY    = pow.DEFAULT_DIFFICULTY
	DEFAULT_MINING_REWARD = 1.0
)

var (
	ErrInvalidChain           = errors.New("invalid chain")
	ErrChainExtensionRejected = errors.New("block does not extend the tip")
	ErrStaleMining            = errors.New("tip moved during proof search")
)

type Options struct {
	Difficulty int
	Algorithm  hashing.Algorithm
	Reward     float64
	Now        func() time.Time
}

func DefaultOptions() Options {
	return Options{
		Difficulty: DEFAULT_DIFFICULTY,
		Algorithm:  hashing.DEFAULT_ALGORITHM,
		Reward:     DEFAULT_MINING_REWARD,
		Now:        time.Now,
	}
}

// Blockchain is the node's chain and its pending pool. All mutation goes
// through its methods; readers share the lock, writers hold it exclusively.
type Blockchain struct {
	mu     sync.RWMutex
	nodeID string
	opts   Options
	chain  []blocks.Block
	txPool *memory.TxPool

	// called between the proof search and the commit, tests only
	beforeCommit func()
}

func NewBlockchain(nodeID string, opts Options) *Blockchain {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Algorithm == "" {
		opts.Algorithm = hashing.DEFAULT_ALGORITHM
	}
	bc := Blockchain{
		nodeID: nodeID,
		opts:   opts,
		txPool: memory.NewTransactionPool(),
	}
	bc.appendGenesis()
	slog.Info("blockchain starts",
		"node_id", nodeID,
		"difficulty", opts.Difficulty,
		"hash_algorithm", opts.Algorithm.String(),
		"genesis", bc.chain[0].Hash(opts.Algorithm),
	)
	return &bc
}

func (bc *Blockchain) appendGenesis() {
	bc.chain = append(bc.chain[:0], blocks.Genesis())
}

func (bc *Blockchain) NodeID() string {
	return bc.nodeID
}

func (bc *Blockchain) Options() Options {
	return bc.opts
}

// Blocks returns a copy of the chain.
func (bc *Blockchain) Blocks() []blocks.Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return blocks.CloneChain(bc.chain)
}

func (bc *Blockchain) Len() int {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return len(bc.chain)
}

func (bc *Blockchain) Tip() blocks.Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.tip().Clone()
}

func (bc *Blockchain) Pending() []transactions.Transaction {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.txPool.GetAll()
}

func (bc *Blockchain) tip() *blocks.Block {
	return &bc.chain[len(bc.chain)-1]
}

// AddTransaction queues tx for the next block and returns that block's index.
func (bc *Blockchain) AddTransaction(tx transactions.Transaction) int64 {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.txPool.Append(tx)
	next := bc.tip().Index + 1
	slog.Debug("transaction queued",
		"tx", tx.String(), "next_block", next, "pending", bc.txPool.Len())
	return next
}

// Mine solves the proof for the next block without holding the lock, then
// commits in one step. If the tip changed during the search nothing is
// committed and the error wraps ErrStaleMining.
func (bc *Blockchain) Mine(ctx context.Context) (*blocks.Block, error) {
	bc.mu.RLock()
	last := bc.tip().Clone()
	pending := bc.txPool.GetAll()
	bc.mu.RUnlock()
	lastHash := last.Hash(bc.opts.Algorithm)

	slog.Info("mining a new block",
		"index", last.Index+1, "pending", len(pending))
	proof, err := pow.NewProofOfWork(
		last.Proof, bc.opts.Difficulty, bc.opts.Algorithm,
	).Run(ctx)
	if err != nil {
		return nil, err
	}

	if bc.beforeCommit != nil {
		bc.beforeCommit()
	}

	bc.mu.Lock()
	defer bc.mu.Unlock()
	current := bc.tip()
	if current.Index != last.Index || current.Hash(bc.opts.Algorithm) != lastHash {
		slog.Warn("discarding stale proof",
			"searched_on", last.Index, "tip", current.Index)
		return nil, fmt.Errorf(
			"%w: searched on block %d, tip is now block %d",
			ErrStaleMining, last.Index, current.Index,
		)
	}

	txs := make([]transactions.Transaction, 0, len(pending)+1)
	txs = append(txs, pending...)
	txs = append(txs, transactions.NewReward(bc.nodeID, bc.opts.Reward))
	block := blocks.NewBlock(
		last.Index+1, bc.timestampAfter(&last), txs, proof, lastHash,
	)

	bc.chain = append(bc.chain, *block)
	bc.txPool.DropFirst(len(pending))

	slog.Info("new block forged",
		"index", block.Index, "proof", block.Proof, "transactions", len(block.Transactions))
	mined := block.Clone()
	return &mined, nil
}

func (bc *Blockchain) timestampAfter(prev *blocks.Block) float64 {
	now := float64(bc.opts.Now().UnixNano()) / float64(time.Second)
	if now < prev.Timestamp {
		return prev.Timestamp
	}
	return now
}

// AcceptExternalBlock appends a peer's block if it extends the tip and
// drops the transactions it carries from the pending pool.
func (bc *Blockchain) AcceptExternalBlock(block blocks.Block) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	tip := bc.tip()
	if block.Index != tip.Index+1 {
		return fmt.Errorf(
			"%w: received index %d, expected %d",
			ErrChainExtensionRejected, block.Index, tip.Index+1,
		)
	}
	tipHash := tip.Hash(bc.opts.Algorithm)
	if block.PreviousHash != tipHash {
		return fmt.Errorf(
			"%w: previous hash %s, expected %s",
			ErrChainExtensionRejected, block.PreviousHash, tipHash,
		)
	}
	if block.Timestamp < tip.Timestamp {
		return fmt.Errorf(
			"%w: timestamp %v before tip timestamp %v",
			ErrChainExtensionRejected, block.Timestamp, tip.Timestamp,
		)
	}
	validator := pow.NewProofOfWork(tip.Proof, bc.opts.Difficulty, bc.opts.Algorithm)
	if !validator.Validate(block.Proof) {
		return fmt.Errorf(
			"%w: proof %d is not valid after %d",
			ErrChainExtensionRejected, block.Proof, tip.Proof,
		)
	}

	accepted := block.Clone()
	bc.chain = append(bc.chain, accepted)
	removed := bc.txPool.BatchRemove(accepted.Transactions)
	slog.Info("accepted external block",
		"index", accepted.Index, "removed_pending", removed, "pending", bc.txPool.Len())
	return nil
}

// ReplaceIfLonger swaps in a validated chain if it is strictly longer than
// the current one at the time of the call. Transactions the adopted blocks
// carry leave the pool; transactions only the orphaned local blocks carried
// go back into it.
func (bc *Blockchain) ReplaceIfLonger(candidate Validated) (bool, int) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	if len(candidate.chain) <= len(bc.chain) {
		return false, len(bc.chain)
	}

	fork := 0
	for fork < len(bc.chain) && bc.chain[fork].Equal(&candidate.chain[fork]) {
		fork++
	}

	var orphaned, adopted []transactions.Transaction
	for i := fork; i < len(bc.chain); i++ {
		orphaned = append(orphaned, transactions.WithoutRewards(bc.chain[i].Transactions)...)
	}
	for i := fork; i < len(candidate.chain); i++ {
		adopted = append(adopted, candidate.chain[i].Transactions...)
	}

	previous := len(bc.chain)
	bc.chain = blocks.CloneChain(candidate.chain)
	// adopted copies cancel orphaned ones first, the rest leave the pool
	bc.txPool.BatchRemove(transactions.Subtract(adopted, orphaned))
	bc.txPool.Requeue(transactions.Subtract(orphaned, adopted))

	slog.Info("chain replaced",
		"previous_length", previous,
		"new_length", len(bc.chain),
		"fork_index", fork,
		"pending", bc.txPool.Len(),
	)
	return true, len(bc.chain)
}
