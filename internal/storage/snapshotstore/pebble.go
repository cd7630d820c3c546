package snapshotstore

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"

	"github.com/xln-finance/xln/internal/codec"
)

// PebbleStore is the persistent backend (spec §6 "optional... in-memory
// is the core"), grounded on the teacher's PebbleBackend. The on-disk
// value format is [4 bytes kind][8 bytes height][data] — pebble's own
// block compression covers what the teacher's hand-rolled lz4 layer did,
// so no compressor is threaded through here (see DESIGN.md).
type PebbleStore struct {
	mu   sync.RWMutex
	db   *pebble.DB
	path string
}

// NewPebbleStore opens (creating if missing) a PebbleDB at path.
func NewPebbleStore(path string) (*PebbleStore, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("snapshotstore: create dir %s: %w", path, err)
	}
	opts := &pebble.Options{
		Cache:         pebble.NewCache(64 << 20),
		MaxOpenFiles:  1000,
		MemTableSize:  32 << 20,
		Levels: []pebble.LevelOptions{
			{TargetFileSize: 2 << 20, FilterPolicy: bloom.FilterPolicy(10)},
		},
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("snapshotstore: open pebble at %s: %w", path, err)
	}
	return &PebbleStore{db: db, path: path}, nil
}

func (p *PebbleStore) Put(r Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return ErrClosed
	}
	value := encodeRecord(r)
	return p.db.Set(r.Hash[:], value, pebble.Sync)
}

func (p *PebbleStore) Get(hash codec.Hash256) (Record, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.db == nil {
		return Record{}, ErrClosed
	}
	value, closer, err := p.db.Get(hash[:])
	if err == pebble.ErrNotFound {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("snapshotstore: get: %w", err)
	}
	defer closer.Close()
	return decodeRecord(hash, value)
}

func (p *PebbleStore) Has(hash codec.Hash256) (bool, error) {
	_, err := p.Get(hash)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *PebbleStore) ForEach(fn func(Record) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.db == nil {
		return ErrClosed
	}
	iter, err := p.db.NewIter(nil)
	if err != nil {
		return fmt.Errorf("snapshotstore: iterate: %w", err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		var hash codec.Hash256
		if len(iter.Key()) != len(hash) {
			continue
		}
		copy(hash[:], iter.Key())
		r, err := decodeRecord(hash, iter.Value())
		if err != nil {
			continue
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (p *PebbleStore) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}

func encodeRecord(r Record) []byte {
	out := make([]byte, 4+8+len(r.Data))
	binary.LittleEndian.PutUint32(out[0:4], uint32(r.Kind))
	binary.LittleEndian.PutUint64(out[4:12], r.Height)
	copy(out[12:], r.Data)
	return out
}

func decodeRecord(hash codec.Hash256, value []byte) (Record, error) {
	if len(value) < 12 {
		return Record{}, fmt.Errorf("snapshotstore: corrupt record (len %d)", len(value))
	}
	kind := RecordKind(binary.LittleEndian.Uint32(value[0:4]))
	height := binary.LittleEndian.Uint64(value[4:12])
	data := append([]byte(nil), value[12:]...)
	return Record{Kind: kind, Hash: hash, Height: height, Data: data}, nil
}
