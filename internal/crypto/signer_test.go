package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeypairFromSeedDeterministic(t *testing.T) {
	a := KeypairFromSeed([]byte("entity-1-signer"))
	b := KeypairFromSeed([]byte("entity-1-signer"))
	assert.Equal(t, a.PublicKeyBytes(), b.PublicKeyBytes())
	assert.Equal(t, a.SignerID(), b.SignerID())
}

func TestKeypairFromSeedDiffers(t *testing.T) {
	a := KeypairFromSeed([]byte("signer-a"))
	b := KeypairFromSeed([]byte("signer-b"))
	assert.NotEqual(t, a.SignerID(), b.SignerID())
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	kp := KeypairFromSeed([]byte("entity-frame-proposer"))
	msg := []byte("frame-42-state-hash")

	sig := kp.Sign(msg)
	require.True(t, Verify(kp.PublicKeyBytes(), msg, sig))
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	kp := KeypairFromSeed([]byte("entity-frame-proposer"))
	sig := kp.Sign([]byte("original"))
	assert.False(t, Verify(kp.PublicKeyBytes(), []byte("tampered"), sig))
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	a := KeypairFromSeed([]byte("signer-a"))
	b := KeypairFromSeed([]byte("signer-b"))
	sig := a.Sign([]byte("msg"))
	assert.False(t, Verify(b.PublicKeyBytes(), []byte("msg"), sig))
}
