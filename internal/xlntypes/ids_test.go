package xlntypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberedEntityID(t *testing.T) {
	tests := []struct {
		name   string
		number uint64
	}{
		{"zero", 0},
		{"one", 1},
		{"large", 0xdeadbeef},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := NumberedEntityID(tt.number)
			// last 8 bytes hold the number big-endian, the rest are zero
			for i := 0; i < EntityIDSize-8; i++ {
				assert.Equalf(t, byte(0), id[i], "byte %d should be zero-padded", i)
			}
			var back uint64
			for i := 0; i < 8; i++ {
				back = back<<8 | uint64(id[EntityIDSize-8+i])
			}
			assert.Equal(t, tt.number, back)
		})
	}
}

func TestLazyEntityIDDeterministic(t *testing.T) {
	a := LazyEntityID("j1", "alice", 0)
	b := LazyEntityID("j1", "alice", 0)
	assert.Equal(t, a, b, "lazy ids must be deterministic")

	c := LazyEntityID("j1", "alice", 1)
	assert.NotEqual(t, a, c, "distinct nonces must diverge")
}

func TestParseEntityIDRoundTrip(t *testing.T) {
	id := NumberedEntityID(42)
	parsed, err := ParseEntityID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseEntityIDRejectsBadLength(t *testing.T) {
	_, err := ParseEntityID("0xdead")
	assert.Error(t, err)
}

func TestIsLeftDeterministic(t *testing.T) {
	a := NumberedEntityID(1)
	b := NumberedEntityID(2)

	assert.NotEqual(t, IsLeft(a, b), IsLeft(b, a), "isLeft(a,b) == !isLeft(b,a)")
	assert.True(t, IsLeft(a, b))
}

func TestChannelKeyOrdersLeftFirst(t *testing.T) {
	a := NumberedEntityID(1)
	b := NumberedEntityID(2)

	assert.Equal(t, ChannelKey(a, b), ChannelKey(b, a), "channel key must be symmetric")
	assert.Equal(t, a.String()+"-"+b.String(), ChannelKey(b, a))
}

func TestShortID(t *testing.T) {
	id := NumberedEntityID(1)
	short := ShortID(id)
	assert.Contains(t, short, "0x")
	assert.Contains(t, short, "…")
}
