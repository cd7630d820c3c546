package snapshotstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorePutGetRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	r := NewRecord(RecordEnvSnapshot, 7, []byte("snapshot-bytes"))
	require.NoError(t, s.Put(r))

	got, err := s.Get(r.Hash)
	require.NoError(t, err)
	assert.Equal(t, r.Kind, got.Kind)
	assert.Equal(t, r.Height, got.Height)
	assert.Equal(t, r.Data, got.Data)

	has, err := s.Has(r.Hash)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestMemoryStoreGetMissingReturnsErrNotFound(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	var zero = NewRecord(RecordEnvSnapshot, 0, []byte("x")).Hash
	_, err := s.Get(zero)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreClosedRejectsOperations(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Close())

	err := s.Put(NewRecord(RecordEnvSnapshot, 0, []byte("x")))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCachedStoreServesFromCacheWithoutTouchingBackend(t *testing.T) {
	backend := NewMemoryStore()
	cached, err := NewCachedStore(backend, 10)
	require.NoError(t, err)
	defer cached.Close()

	r := NewRecord(RecordEntityReplica, 1, []byte("replica-bytes"))
	require.NoError(t, cached.Put(r))

	// Clearing the backend directly must not affect a cached Get: Put
	// populated the LRU, so the read is served from there.
	require.NoError(t, backend.Close())
	got, err := cached.Get(r.Hash)
	require.NoError(t, err)
	assert.Equal(t, r.Data, got.Data)
}

func TestConfigValidateRejectsPebbleWithoutPath(t *testing.T) {
	c := Config{Backend: "pebble"}
	assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)
}

func TestConfigValidateAcceptsMemory(t *testing.T) {
	c := DefaultConfig()
	assert.NoError(t, c.Validate())
}

func TestOpenMemoryBackendRoundTrip(t *testing.T) {
	store, err := Open(Config{Backend: "memory", CacheSize: 4})
	require.NoError(t, err)
	defer store.Close()

	r := NewRecord(RecordJurisdictionProjection, 3, []byte("projection-bytes"))
	require.NoError(t, store.Put(r))
	got, err := store.Get(r.Hash)
	require.NoError(t, err)
	assert.Equal(t, r.Data, got.Data)
}
