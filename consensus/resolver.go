package consensus

import (
	"context"
	"log/slog"
	"sync"

	"simple-ledger-go/blockchain"
	"simple-ledger-go/blocks"
)

// PeerChain is a chain as reported by one peer.
type PeerChain struct {
	Peer  string
	Chain []blocks.Block
}

type Rejection struct {
	Peer string
	Err  error
}

type Result struct {
	Replaced bool
	Length   int
	Rejected []Rejection
}

type ChainFetcher interface {
	FetchChain(ctx context.Context, address string) ([]blocks.Block, error)
}

type Registry interface {
	Addresses() []string
}

// Resolve adopts the longest valid candidate strictly longer than the local
// chain. Candidates are validated without holding the chain lock; a chain
// that is not longer than the best seen so far is never validated.
func Resolve(local *blockchain.Blockchain, candidates []PeerChain) Result {
	result := Result{Length: local.Len()}

	var best blockchain.Validated
	bestLen := result.Length
	bestPeer := ""
	for _, c := range candidates {
		if len(c.Chain) <= bestLen {
			continue
		}
		validated, err := local.Validate(c.Chain)
		if err != nil {
			slog.Warn("rejecting peer chain",
				"peer", c.Peer, "length", len(c.Chain), "err", err)
			result.Rejected = append(result.Rejected, Rejection{Peer: c.Peer, Err: err})
			continue
		}
		best = validated
		bestLen = validated.Len()
		bestPeer = c.Peer
	}

	if bestPeer == "" {
		return result
	}

	replaced, length := local.ReplaceIfLonger(best)
	result.Replaced = replaced
	result.Length = length
	if replaced {
		slog.Info("adopted peer chain", "peer", bestPeer, "length", length)
	}
	return result
}

// Resolver pulls chains from every registered peer and resolves against
// them.
type Resolver struct {
	local    *blockchain.Blockchain
	registry Registry
	fetcher  ChainFetcher
}

func NewResolver(
	local *blockchain.Blockchain, registry Registry, fetcher ChainFetcher,
) *Resolver {
	return &Resolver{
		local:    local,
		registry: registry,
		fetcher:  fetcher,
	}
}

// ResolveConflicts fetches peer chains concurrently. Unreachable peers are
// logged and skipped.
func (r *Resolver) ResolveConflicts(ctx context.Context) Result {
	addresses := r.registry.Addresses()
	fetched := make([]*PeerChain, len(addresses))

	var wg sync.WaitGroup
	for i, address := range addresses {
		wg.Add(1)
		go func(i int, address string) {
			defer wg.Done()
			chain, err := r.fetcher.FetchChain(ctx, address)
			if err != nil {
				slog.Warn("peer unreachable", "peer", address, "err", err)
				return
			}
			fetched[i] = &PeerChain{Peer: address, Chain: chain}
		}(i, address)
	}
	wg.Wait()

	candidates := make([]PeerChain, 0, len(fetched))
	for _, pc := range fetched {
		if pc != nil {
			candidates = append(candidates, *pc)
		}
	}
	slog.Debug("resolving conflicts",
		"peers", len(addresses), "reachable", len(candidates))
	return Resolve(r.local, candidates)
}
