package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// Keypair is a secp256k1 signer identity: the private scalar plus its
// compressed public key, grounded on the teacher's DeriveKeypair/Sign/
// Validate trio in secp256k1.go, stripped to the curve operations XLN
// actually needs (no family seeds, no validator/account scalar split).
type Keypair struct {
	Private *secp256k1.PrivateKey
	Public  *secp256k1.PublicKey
}

// GenerateKeypair creates a fresh random signer keypair.
func GenerateKeypair() (*Keypair, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("crypto: generate keypair: %w", err)
	}
	return &Keypair{Private: priv, Public: priv.PubKey()}, nil
}

// KeypairFromSeed deterministically derives a keypair from an arbitrary
// length seed, used by test scenarios that need stable signer identities
// across runs (spec §10's deterministic-seed requirement for scenario
// execution).
func KeypairFromSeed(seed []byte) *Keypair {
	digest := sha256.Sum256(seed)
	priv := secp256k1.PrivKeyFromBytes(digest[:])
	return &Keypair{Private: priv, Public: priv.PubKey()}
}

// PublicKeyBytes returns the compressed SEC1 encoding of the public key.
func (k *Keypair) PublicKeyBytes() []byte {
	return k.Public.SerializeCompressed()
}

// SignerID derives this keypair's signer identifier (spec §6).
func (k *Keypair) SignerID() [SignerIDSize]byte {
	return DeriveSignerID(k.PublicKeyBytes())
}

// Sign produces a DER-encoded ECDSA signature over SHA-256(msg).
func (k *Keypair) Sign(msg []byte) []byte {
	digest := sha256.Sum256(msg)
	sig := ecdsa.Sign(k.Private, digest[:])
	return sig.Serialize()
}

// Verify checks a DER-encoded ECDSA signature against a compressed
// public key and message.
func Verify(publicKey, msg, sig []byte) bool {
	pub, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return false
	}
	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	digest := sha256.Sum256(msg)
	return parsed.Verify(digest[:], pub)
}
