package blockchain

import (
	"fmt"
	"log/slog"

	"simple-ledger-go/blocks"
	"simple-ledger-go/hashing"
	"simple-ledger-go/pow"
)

// Validated is a chain that passed ValidateChain under some difficulty and
// digest. Only this package can build one.
type Validated struct {
	chain []blocks.Block
}

func (v Validated) Len() int {
	return len(v.chain)
}

func (v Validated) Blocks() []blocks.Block {
	return blocks.CloneChain(v.chain)
}

// ValidateChain walks chain from the genesis block and reports the first
// violation, wrapped in ErrInvalidChain. It does not touch any node state.
func ValidateChain(
	chain []blocks.Block, difficulty int, algo hashing.Algorithm,
) (Validated, error) {
	if len(chain) == 0 {
		return Validated{}, fmt.Errorf("%w: missing genesis block", ErrInvalidChain)
	}
	if !blocks.IsGenesis(&chain[0]) {
		return Validated{}, fmt.Errorf("%w: genesis block mismatch", ErrInvalidChain)
	}

	for i := 1; i < len(chain); i++ {
		prev := &chain[i-1]
		block := &chain[i]

		if block.Index != int64(i) {
			return Validated{}, fmt.Errorf(
				"%w: block at position %d has index %d",
				ErrInvalidChain, i, block.Index,
			)
		}
		if block.Timestamp < prev.Timestamp {
			return Validated{}, fmt.Errorf(
				"%w: block %d timestamp goes backwards",
				ErrInvalidChain, i,
			)
		}
		prevHash := prev.Hash(algo)
		if block.PreviousHash != prevHash {
			return Validated{}, fmt.Errorf(
				"%w: block %d previous hash %s, computed %s",
				ErrInvalidChain, i, block.PreviousHash, prevHash,
			)
		}
		validator := pow.NewProofOfWork(prev.Proof, difficulty, algo)
		if !validator.Validate(block.Proof) {
			return Validated{}, fmt.Errorf(
				"%w: block %d proof %d is not valid",
				ErrInvalidChain, i, block.Proof,
			)
		}
	}

	return Validated{chain: blocks.CloneChain(chain)}, nil
}

// Validate checks chain under this node's difficulty and digest.
func (bc *Blockchain) Validate(chain []blocks.Block) (Validated, error) {
	return ValidateChain(chain, bc.opts.Difficulty, bc.opts.Algorithm)
}

func (bc *Blockchain) IsValid(chain []blocks.Block) bool {
	_, err := bc.Validate(chain)
	if err != nil {
		slog.Debug("chain validation failed", "length", len(chain), "err", err)
		return false
	}
	return true
}
