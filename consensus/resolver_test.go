package consensus

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"simple-ledger-go/blockchain"
	"simple-ledger-go/blocks"
	"simple-ledger-go/hashing"
	"simple-ledger-go/transactions"
)

func newChain(t *testing.T, nodeID string, mined int) *blockchain.Blockchain {
	t.Helper()
	opts := blockchain.DefaultOptions()
	opts.Difficulty = 2
	bc := blockchain.NewBlockchain(nodeID, opts)
	for i := 0; i < mined; i++ {
		if _, err := bc.Mine(context.Background()); err != nil {
			t.Fatalf("Mine() error = %v", err)
		}
	}
	return bc
}

func TestResolveAdoptsLongerChain(t *testing.T) {
	a := newChain(t, "a", 1)
	b := newChain(t, "b", 3)

	result := Resolve(a, []PeerChain{{Peer: "b", Chain: b.Blocks()}})
	if !result.Replaced || result.Length != 4 {
		t.Fatalf("Resolve() = %+v, want replaced with length 4", result)
	}
	if a.Len() != 4 {
		t.Errorf("a.Len() = %d, want 4", a.Len())
	}
	at, bt := a.Tip(), b.Tip()
	if at.Hash(hashing.SHA256) != bt.Hash(hashing.SHA256) {
		t.Error("tip hashes differ after adoption")
	}

	again := Resolve(a, []PeerChain{{Peer: "b", Chain: b.Blocks()}})
	if again.Replaced || again.Length != 4 {
		t.Errorf("second Resolve() = %+v, want unchanged", again)
	}
}

func TestResolveKeepsLocalOnTie(t *testing.T) {
	a := newChain(t, "a", 2)
	b := newChain(t, "b", 2)
	before := a.Blocks()

	result := Resolve(a, []PeerChain{{Peer: "b", Chain: b.Blocks()}})
	if result.Replaced {
		t.Error("equal length chain replaced local")
	}
	after := a.Blocks()
	for i := range before {
		if !before[i].Equal(&after[i]) {
			t.Fatalf("block %d changed on tie", i)
		}
	}
}

func TestResolveRejectsInvalidLongerChain(t *testing.T) {
	a := newChain(t, "a", 1)
	b := newChain(t, "b", 4)

	forged := b.Blocks()
	forged[2].Transactions = append(forged[2].Transactions,
		transactions.Transaction{Sender: "mallory", Recipient: "mallory", Amount: 100})

	result := Resolve(a, []PeerChain{{Peer: "b", Chain: forged}})
	if result.Replaced {
		t.Fatal("invalid chain adopted")
	}
	if len(result.Rejected) != 1 || result.Rejected[0].Peer != "b" {
		t.Fatalf("Rejected = %+v, want one rejection from b", result.Rejected)
	}
	if !errors.Is(result.Rejected[0].Err, blockchain.ErrInvalidChain) {
		t.Errorf("rejection error = %v, want ErrInvalidChain", result.Rejected[0].Err)
	}
	if a.Len() != 2 {
		t.Errorf("a.Len() = %d, want 2", a.Len())
	}
}

func TestResolvePicksLongestValid(t *testing.T) {
	a := newChain(t, "a", 0)
	short := newChain(t, "short", 1)
	long := newChain(t, "long", 3)
	broken := newChain(t, "broken", 5).Blocks()
	broken[3].Proof = -1

	result := Resolve(a, []PeerChain{
		{Peer: "short", Chain: short.Blocks()},
		{Peer: "broken", Chain: broken},
		{Peer: "long", Chain: long.Blocks()},
	})
	if !result.Replaced || result.Length != 4 {
		t.Fatalf("Resolve() = %+v, want length 4", result)
	}
	if len(result.Rejected) != 1 || result.Rejected[0].Peer != "broken" {
		t.Errorf("Rejected = %+v", result.Rejected)
	}
}

func TestResolveLengthNeverDecreases(t *testing.T) {
	a := newChain(t, "a", 3)
	candidates := []PeerChain{
		{Peer: "empty", Chain: nil},
		{Peer: "genesis", Chain: []blocks.Block{blocks.Genesis()}},
		{Peer: "b", Chain: newChain(t, "b", 1).Blocks()},
	}
	result := Resolve(a, candidates)
	if result.Replaced || result.Length != 4 || a.Len() != 4 {
		t.Errorf("Resolve() = %+v, a.Len() = %d", result, a.Len())
	}
}

type fakeRegistry []string

func (r fakeRegistry) Addresses() []string { return r }

type fakeFetcher map[string][]blocks.Block

func (f fakeFetcher) FetchChain(_ context.Context, address string) ([]blocks.Block, error) {
	chain, ok := f[address]
	if !ok {
		return nil, fmt.Errorf("dial %s: connection refused", address)
	}
	return chain, nil
}

func TestResolveConflictsSkipsUnreachablePeers(t *testing.T) {
	a := newChain(t, "a", 0)
	b := newChain(t, "b", 2)

	resolver := NewResolver(a,
		fakeRegistry{"127.0.0.1:5001", "127.0.0.1:5002"},
		fakeFetcher{"127.0.0.1:5002": b.Blocks()},
	)
	result := resolver.ResolveConflicts(context.Background())
	if !result.Replaced || result.Length != 3 {
		t.Errorf("ResolveConflicts() = %+v, want replaced with length 3", result)
	}
}

func TestResolveConflictsWithoutPeers(t *testing.T) {
	a := newChain(t, "a", 1)
	result := NewResolver(a, fakeRegistry{}, fakeFetcher{}).ResolveConflicts(context.Background())
	if result.Replaced || result.Length != 2 {
		t.Errorf("ResolveConflicts() = %+v", result)
	}
}
