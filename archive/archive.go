package archive

import (
	"errors"
	"fmt"
	"log/slog"

	"simple-ledger-go/blocks"
	"simple-ledger-go/common"
	"simple-ledger-go/hashing"

	bolt "go.etcd.io/bbolt"
)

const (
	BLOCKS_BUCKET      = "blocks"
	META_BUCKET        = "meta"
	LATEST_TAG         = "latest"
	HEIGHT_TAG         = "height"
	HASH_ALGORITHM_TAG = "hash_algorithm"
	DIFFICULTY_TAG     = "difficulty"
)

var (
	ErrEmptyArchive  = errors.New("archive holds no chain")
	ErrBlockNotFound = errors.New("block not found")
)

// Meta describes the network parameters a snapshot was taken under.
type Meta struct {
	Algorithm  hashing.Algorithm
	Difficulty int
}

// Archive is a bbolt file holding one chain snapshot. Blocks are keyed by
// big-endian height so a cursor walks them in chain order.
type Archive struct {
	innerDb *bolt.DB
}

func Open(path string) (*Archive, error) {
	if common.ExistFile(path) {
		slog.Debug("found existing archive", "path", path)
	}
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(BLOCKS_BUCKET)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(META_BUCKET))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Archive{db}, nil
}

func (a *Archive) Close() error {
	return a.innerDb.Close()
}

// WriteChain replaces the stored snapshot with chain in one transaction.
func (a *Archive) WriteChain(chain []blocks.Block, meta Meta) error {
	if len(chain) == 0 {
		return ErrEmptyArchive
	}
	return a.innerDb.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(BLOCKS_BUCKET)); err != nil {
			return err
		}
		b, err := tx.CreateBucket([]byte(BLOCKS_BUCKET))
		if err != nil {
			return err
		}
		for i := range chain {
			enc, err := common.Encode(chain[i])
			if err != nil {
				return err
			}
			h, err := common.ToHex(uint64(i))
			if err != nil {
				return err
			}
			if err := b.Put(h, enc); err != nil {
				return err
			}
		}

		m := tx.Bucket([]byte(META_BUCKET))
		tip := chain[len(chain)-1]
		h, err := common.ToHex(uint64(len(chain) - 1))
		if err != nil {
			return err
		}
		d, err := common.ToHex(int64(meta.Difficulty))
		if err != nil {
			return err
		}
		puts := map[string][]byte{
			HEIGHT_TAG:         h,
			LATEST_TAG:         []byte(tip.Hash(meta.Algorithm)),
			HASH_ALGORITHM_TAG: []byte(meta.Algorithm),
			DIFFICULTY_TAG:     d,
		}
		for k, v := range puts {
			if err := m.Put([]byte(k), v); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetHeight returns the index of the last stored block.
func (a *Archive) GetHeight() (uint64, error) {
	var hex []byte
	err := a.innerDb.View(func(tx *bolt.Tx) error {
		hex = tx.Bucket([]byte(META_BUCKET)).Get([]byte(HEIGHT_TAG))
		return nil
	})
	if err != nil {
		return 0, err
	}
	if hex == nil {
		return 0, ErrEmptyArchive
	}
	return common.FromHex[uint64](hex)
}

// GetLatest returns the recorded hex hash of the last block.
func (a *Archive) GetLatest() (string, error) {
	var hash []byte
	err := a.innerDb.View(func(tx *bolt.Tx) error {
		hash = tx.Bucket([]byte(META_BUCKET)).Get([]byte(LATEST_TAG))
		if hash != nil {
			hash = append([]byte(nil), hash...)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if hash == nil {
		return "", ErrEmptyArchive
	}
	return string(hash), nil
}

func (a *Archive) GetMeta() (Meta, error) {
	var algo, diff []byte
	err := a.innerDb.View(func(tx *bolt.Tx) error {
		m := tx.Bucket([]byte(META_BUCKET))
		algo = append([]byte(nil), m.Get([]byte(HASH_ALGORITHM_TAG))...)
		diff = append([]byte(nil), m.Get([]byte(DIFFICULTY_TAG))...)
		return nil
	})
	if err != nil {
		return Meta{}, err
	}
	if len(diff) == 0 {
		return Meta{}, ErrEmptyArchive
	}
	parsed, err := hashing.Parse(string(algo))
	if err != nil {
		return Meta{}, err
	}
	d, err := common.FromHex[int64](diff)
	if err != nil {
		return Meta{}, err
	}
	return Meta{Algorithm: parsed, Difficulty: int(d)}, nil
}

func (a *Archive) GetBlockByHeight(height uint64) (*blocks.Block, error) {
	var enc []byte
	err := a.innerDb.View(func(tx *bolt.Tx) error {
		h, err := common.ToHex(height)
		if err != nil {
			return err
		}
		enc = append([]byte(nil), tx.Bucket([]byte(BLOCKS_BUCKET)).Get(h)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(enc) == 0 {
		return nil, fmt.Errorf("%w: height %d", ErrBlockNotFound, height)
	}
	return common.Decode[blocks.Block](enc)
}

// ReadChain returns every stored block in height order.
func (a *Archive) ReadChain() ([]blocks.Block, error) {
	chain := []blocks.Block{}
	err := a.innerDb.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(BLOCKS_BUCKET)).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			block, err := common.Decode[blocks.Block](v)
			if err != nil {
				return err
			}
			chain = append(chain, *block)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		return nil, ErrEmptyArchive
	}
	return chain, nil
}
