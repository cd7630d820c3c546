package gossip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xln-finance/xln/internal/xlntypes"
)

func TestAnnounceIsIdempotentByTimestamp(t *testing.T) {
	dir := New(DefaultConfig())
	id := xlntypes.NumberedEntityID(1)

	dir.Announce(Profile{EntityID: id, Metadata: Metadata{Name: "old"}, Timestamp: 100})
	dir.Announce(Profile{EntityID: id, Metadata: Metadata{Name: "stale-replay"}, Timestamp: 50})

	got, ok := dir.GetProfile(id)
	require.True(t, ok)
	assert.Equal(t, "old", got.Metadata.Name, "older timestamp must not overwrite newer profile")
}

func TestAnnounceAcceptsStrictlyNewer(t *testing.T) {
	dir := New(DefaultConfig())
	id := xlntypes.NumberedEntityID(1)

	dir.Announce(Profile{EntityID: id, Metadata: Metadata{Name: "v1"}, Timestamp: 100})
	dir.Announce(Profile{EntityID: id, Metadata: Metadata{Name: "v2"}, Timestamp: 200})

	got, ok := dir.GetProfile(id)
	require.True(t, ok)
	assert.Equal(t, "v2", got.Metadata.Name)
}

func TestGetProfilesReturnsAll(t *testing.T) {
	dir := New(DefaultConfig())
	dir.Announce(Profile{EntityID: xlntypes.NumberedEntityID(1), Timestamp: 1})
	dir.Announce(Profile{EntityID: xlntypes.NumberedEntityID(2), Timestamp: 1})

	assert.Len(t, dir.GetProfiles(), 2)
	assert.Equal(t, 2, dir.Count())
}

func TestPruneRemovesStaleProfiles(t *testing.T) {
	dir := New(Config{StaleAfter: 1000})
	dir.Announce(Profile{EntityID: xlntypes.NumberedEntityID(1), Timestamp: 0})
	dir.Announce(Profile{EntityID: xlntypes.NumberedEntityID(2), Timestamp: 5000})

	removed := dir.Prune(5000)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, dir.Count())

	_, ok := dir.GetProfile(xlntypes.NumberedEntityID(1))
	assert.False(t, ok)
}
