package archive

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"simple-ledger-go/blockchain"
	"simple-ledger-go/blocks"
	"simple-ledger-go/common"
	"simple-ledger-go/hashing"
	"simple-ledger-go/transactions"

	bolt "go.etcd.io/bbolt"
)

func minedChain(t *testing.T, n int) ([]blocks.Block, Meta) {
	t.Helper()
	opts := blockchain.DefaultOptions()
	opts.Difficulty = 2
	bc := blockchain.NewBlockchain("archiver", opts)
	bc.AddTransaction(transactions.Transaction{Sender: "alice", Recipient: "bob", Amount: 5})
	for i := 0; i < n; i++ {
		if _, err := bc.Mine(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	return bc.Blocks(), Meta{Algorithm: hashing.SHA256, Difficulty: 2}
}

func openTemp(t *testing.T) (*Archive, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chain.db")
	a, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { a.Close() })
	return a, path
}

func TestWriteAndReadChain(t *testing.T) {
	a, _ := openTemp(t)
	chain, meta := minedChain(t, 3)
	if err := a.WriteChain(chain, meta); err != nil {
		t.Fatal(err)
	}

	got, err := a.ReadChain()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(chain) {
		t.Fatalf("ReadChain() returned %d blocks, want %d", len(got), len(chain))
	}
	for i := range chain {
		if !got[i].Equal(&chain[i]) {
			t.Errorf("block %d differs after round trip", i)
		}
	}

	height, err := a.GetHeight()
	if err != nil || height != 3 {
		t.Errorf("GetHeight() = %d, %v", height, err)
	}
	latest, err := a.GetLatest()
	if err != nil || latest != chain[3].Hash(hashing.SHA256) {
		t.Errorf("GetLatest() = %s, %v", latest, err)
	}
	block, err := a.GetBlockByHeight(1)
	if err != nil || !block.Equal(&chain[1]) {
		t.Errorf("GetBlockByHeight(1) = %v, %v", block, err)
	}
	if _, err := a.GetBlockByHeight(9); !errors.Is(err, ErrBlockNotFound) {
		t.Errorf("GetBlockByHeight(9) error = %v", err)
	}
	gotMeta, err := a.GetMeta()
	if err != nil || gotMeta != meta {
		t.Errorf("GetMeta() = %+v, %v", gotMeta, err)
	}
}

func TestWriteChainReplacesSnapshot(t *testing.T) {
	a, _ := openTemp(t)
	long, meta := minedChain(t, 4)
	short, _ := minedChain(t, 1)
	if err := a.WriteChain(long, meta); err != nil {
		t.Fatal(err)
	}
	if err := a.WriteChain(short, meta); err != nil {
		t.Fatal(err)
	}
	got, err := a.ReadChain()
	if err != nil || len(got) != 2 {
		t.Fatalf("ReadChain() = %d blocks, %v", len(got), err)
	}
	if n, err := a.Verify(); err != nil || n != 2 {
		t.Errorf("Verify() = %d, %v", n, err)
	}
}

func TestEmptyArchive(t *testing.T) {
	a, _ := openTemp(t)
	if _, err := a.ReadChain(); !errors.Is(err, ErrEmptyArchive) {
		t.Errorf("ReadChain() error = %v", err)
	}
	if _, err := a.GetHeight(); !errors.Is(err, ErrEmptyArchive) {
		t.Errorf("GetHeight() error = %v", err)
	}
	if _, err := a.Verify(); !errors.Is(err, ErrEmptyArchive) {
		t.Errorf("Verify() error = %v", err)
	}
	if err := a.WriteChain(nil, Meta{}); !errors.Is(err, ErrEmptyArchive) {
		t.Errorf("WriteChain(nil) error = %v", err)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	a, path := openTemp(t)
	chain, meta := minedChain(t, 3)
	if err := a.WriteChain(chain, meta); err != nil {
		t.Fatal(err)
	}
	if n, err := a.Verify(); err != nil || n != 4 {
		t.Fatalf("Verify() = %d, %v", n, err)
	}

	tampered := chain[2].Clone()
	tampered.Transactions[0].Amount = 500
	enc, _ := common.Encode(tampered)
	err := a.innerDb.Update(func(tx *bolt.Tx) error {
		h, _ := common.ToHex(uint64(2))
		return tx.Bucket([]byte(BLOCKS_BUCKET)).Put(h, enc)
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Verify(); !errors.Is(err, blockchain.ErrInvalidChain) {
		t.Errorf("Verify() after tampering error = %v, in %s", err, path)
	}
}

func TestReopenKeepsSnapshot(t *testing.T) {
	a, path := openTemp(t)
	chain, meta := minedChain(t, 2)
	if err := a.WriteChain(chain, meta); err != nil {
		t.Fatal(err)
	}
	a.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	if n, err := reopened.Verify(); err != nil || n != 3 {
		t.Errorf("Verify() after reopen = %d, %v", n, err)
	}
}
