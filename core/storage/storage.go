package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	lvlstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/block"
)

const (
	BlockPrefix = "block:"
	heightKey   = "meta:height"
	tipKey      = "meta:tip"
)

// ErrNotFound is returned when a key or block height is absent.
var ErrNotFound = errors.New("storage: not found")

// ErrBrokenSequence means the persisted block records are not contiguous.
var ErrBrokenSequence = errors.New("storage: block sequence is not contiguous")

// StateBackend abstracts the persistent key-value store used for the judge
// directory and user accounts.
type StateBackend interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Iterate(prefix string, fn func(key string, value []byte) error) error
}

// Storage is the LevelDB-backed ledger store.
type Storage struct {
	db *leveldb.DB
}

var syncWrite = &opt.WriteOptions{Sync: true}

func NewStorage(path string) (*Storage, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	return &Storage{db: db}, nil
}

// NewMemStorage opens a store that lives only in memory.
func NewMemStorage() (*Storage, error) {
	db, err := leveldb.Open(lvlstorage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// Get retrieves a value by key from LevelDB.
func (s *Storage) Get(key string) ([]byte, error) {
	v, err := s.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return v, err
}

// Put stores a key-value pair in LevelDB.
func (s *Storage) Put(key string, value []byte) error {
	return s.db.Put([]byte(key), value, syncWrite)
}

// Iterate calls fn for every key with the given prefix in key order.
func (s *Storage) Iterate(prefix string, fn func(key string, value []byte) error) error {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer iter.Release()
	for iter.Next() {
		if err := fn(string(iter.Key()), append([]byte(nil), iter.Value()...)); err != nil {
			return err
		}
	}
	return iter.Error()
}

// blockKey pads the height so LevelDB key order equals append order.
func blockKey(height uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", BlockPrefix, height))
}

// AppendBlock writes the block record and the height/tip metadata in one
// synced batch, so a crash leaves either the whole block or nothing.
func (s *Storage) AppendBlock(b block.Block) error {
	data, err := b.Serialize()
	if err != nil {
		return fmt.Errorf("encode block %d: %w", b.Index, err)
	}
	batch := new(leveldb.Batch)
	batch.Put(blockKey(b.Index), data)
	batch.Put([]byte(heightKey), []byte(strconv.FormatUint(b.Index+1, 10)))
	batch.Put([]byte(tipKey), []byte(b.Hash))
	if err := s.db.Write(batch, syncWrite); err != nil {
		return fmt.Errorf("write block %d: %w", b.Index, err)
	}
	return nil
}

// PersistChain replaces every stored block with blocks, atomically.
func (s *Storage) PersistChain(blocks []block.Block) error {
	batch := new(leveldb.Batch)
	iter := s.db.NewIterator(util.BytesPrefix([]byte(BlockPrefix)), nil)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return err
	}
	for _, b := range blocks {
		data, err := b.Serialize()
		if err != nil {
			return fmt.Errorf("encode block %d: %w", b.Index, err)
		}
		batch.Put(blockKey(b.Index), data)
	}
	if len(blocks) > 0 {
		batch.Put([]byte(heightKey), []byte(strconv.Itoa(len(blocks))))
		batch.Put([]byte(tipKey), []byte(blocks[len(blocks)-1].Hash))
	} else {
		batch.Delete([]byte(heightKey))
		batch.Delete([]byte(tipKey))
	}
	return s.db.Write(batch, syncWrite)
}

// LoadChain reads every block in height order. It only checks that the
// records decode and are contiguous; hash checks belong to the verifier.
func (s *Storage) LoadChain() ([]block.Block, error) {
	var blocks []block.Block
	err := s.Iterate(BlockPrefix, func(key string, value []byte) error {
		b, err := block.Deserialize(value)
		if err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		want := uint64(len(blocks))
		if string(blockKey(want)) != key || b.Index != want {
			return fmt.Errorf("%w: expected height %d at %s (index %d)", ErrBrokenSequence, want, key, b.Index)
		}
		blocks = append(blocks, *b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

// HasGenesisBlock reports whether block 0 is on disk.
func (s *Storage) HasGenesisBlock() (bool, error) {
	return s.db.Has(blockKey(0), nil)
}

// GetChainHeight returns the number of blocks recorded in the metadata.
func (s *Storage) GetChainHeight() (int, error) {
	v, err := s.Get(heightKey)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(string(v))
}

// GetTipHash returns the hash of the last appended block.
func (s *Storage) GetTipHash() (string, error) {
	v, err := s.Get(tipKey)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// GetBlockByHeight uses the padded height key for O(1) lookup
func (s *Storage) GetBlockByHeight(height uint64) (block.Block, error) {
	data, err := s.RawBlock(height)
	if err != nil {
		return block.Block{}, err
	}
	b, err := block.Deserialize(data)
	if err != nil {
		return block.Block{}, err
	}
	return *b, nil
}

// RawBlock returns the stored bytes of a block record.
func (s *Storage) RawBlock(height uint64) ([]byte, error) {
	v, err := s.db.Get(blockKey(height), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return v, err
}

// PutRawBlock overwrites a block record without any checks. Used by
// forensic tooling and tamper tests.
func (s *Storage) PutRawBlock(height uint64, data []byte) error {
	return s.db.Put(blockKey(height), data, syncWrite)
}

// PutJSON stores v as JSON under key.
func PutJSON(b StateBackend, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

// GetJSON decodes the JSON stored under key into v.
func GetJSON(b StateBackend, key string, v any) error {
	data, err := b.Get(key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
