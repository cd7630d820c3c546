package codec

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterDeterministic(t *testing.T) {
	build := func() []byte {
		w := NewWriter(0)
		w.Bool(true)
		w.Uint64(42)
		w.String("hello")
		w.BigInt(big.NewInt(-500000))
		return w.Bytes()
	}

	a := build()
	b := build()
	assert.Equal(t, a, b, "identical field writes must produce identical bytes")
}

func TestWriterBigIntSign(t *testing.T) {
	pos := NewWriter(0)
	pos.BigInt(big.NewInt(5))

	neg := NewWriter(0)
	neg.BigInt(big.NewInt(-5))

	assert.NotEqual(t, pos.Bytes(), neg.Bytes(), "sign must affect encoding")
	assert.Equal(t, byte(0x01), pos.Bytes()[0])
	assert.Equal(t, byte(0x00), neg.Bytes()[0])
}

func TestSortedStringKeysDeterministic(t *testing.T) {
	m := map[string]int{"b": 2, "a": 1, "c": 3}
	keys := SortedStringKeys(m)
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestHashDeterministic(t *testing.T) {
	w := NewWriter(0)
	w.String("frame")
	h1 := Hash(w.Bytes())
	h2 := Hash(w.Bytes())
	assert.Equal(t, h1, h2)
}

func TestHashWithPrefixDomainsSeparately(t *testing.T) {
	encoded := []byte("same-bytes")
	a := HashWithPrefix(PrefixEntityFrame, encoded)
	b := HashWithPrefix(PrefixAccountFrame, encoded)
	assert.NotEqual(t, a, b, "distinct domains must not collide for identical payloads")
}
