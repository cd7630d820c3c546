package xlnerr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := Newf(KindInsufficientCapacity, "hop cannot absorb payment", map[string]any{
		"hop":       0,
		"required":  100,
		"available": 40,
	})
	assert.Contains(t, err.Error(), "InsufficientCapacity")
	assert.Contains(t, err.Error(), "hop cannot absorb payment")
}

func TestIsKind(t *testing.T) {
	err := New(KindAccountMissing, "no such account")
	assert.True(t, IsKind(err, KindAccountMissing))
	assert.False(t, IsKind(err, KindReplicaMissing))
	assert.False(t, IsKind(nil, KindAccountMissing))
}

func TestFatalClassification(t *testing.T) {
	assert.True(t, KindConservationViolated.Fatal())
	assert.True(t, KindCanonicalEncodingMismatch.Fatal())
	assert.False(t, KindInsufficientCapacity.Fatal())
}

func TestIdempotentClassification(t *testing.T) {
	assert.True(t, KindJEventAlreadyApplied.Idempotent())
	assert.False(t, KindDesynced.Idempotent())
}
