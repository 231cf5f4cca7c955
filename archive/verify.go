package archive

import (
	"errors"
	"fmt"

	"simple-ledger-go/blockchain"
)

var ErrLatestMismatch = errors.New("recorded latest hash does not match the chain")

// Verify validates the stored chain under the parameters recorded with it
// and returns its length.
func (a *Archive) Verify() (int, error) {
	meta, err := a.GetMeta()
	if err != nil {
		return 0, err
	}
	chain, err := a.ReadChain()
	if err != nil {
		return 0, err
	}
	validated, err := blockchain.ValidateChain(chain, meta.Difficulty, meta.Algorithm)
	if err != nil {
		return 0, err
	}

	latest, err := a.GetLatest()
	if err != nil {
		return 0, err
	}
	if tip := chain[len(chain)-1]; tip.Hash(meta.Algorithm) != latest {
		return 0, fmt.Errorf("%w: %s", ErrLatestMismatch, latest)
	}
	return validated.Len(), nil
}
