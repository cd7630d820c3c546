package snapshotstore

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/xln-finance/xln/internal/codec"
)

// CachedStore wraps a Store with an LRU of hot records (the "snapshot-
// index cache" the domain stack calls for), so repeated Gets of recent
// history entries skip the backend entirely.
type CachedStore struct {
	backend Store
	hot     *lru.Cache[codec.Hash256, Record]
}

// NewCachedStore wraps backend with an LRU of the given size.
func NewCachedStore(backend Store, size int) (*CachedStore, error) {
	hot, err := lru.New[codec.Hash256, Record](size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{backend: backend, hot: hot}, nil
}

func (c *CachedStore) Put(r Record) error {
	if err := c.backend.Put(r); err != nil {
		return err
	}
	c.hot.Add(r.Hash, r)
	return nil
}

func (c *CachedStore) Get(hash codec.Hash256) (Record, error) {
	if r, ok := c.hot.Get(hash); ok {
		return r, nil
	}
	r, err := c.backend.Get(hash)
	if err != nil {
		return Record{}, err
	}
	c.hot.Add(hash, r)
	return r, nil
}

func (c *CachedStore) Has(hash codec.Hash256) (bool, error) {
	if c.hot.Contains(hash) {
		return true, nil
	}
	return c.backend.Has(hash)
}

func (c *CachedStore) ForEach(fn func(Record) error) error {
	return c.backend.ForEach(fn)
}

func (c *CachedStore) Close() error {
	c.hot.Purge()
	return c.backend.Close()
}
