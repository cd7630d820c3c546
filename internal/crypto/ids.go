// Package crypto holds secp256k1 signer key material (spec §5, §6): keypairs,
// Sign/Verify and signer-id derivation. No other package in this module
// imports it; EntityFrame and AccountFrame proposals are not signed with
// it. It is grounded on the
// teacher's own internal/crypto/ids.go (account-ID derivation) and
// internal/crypto/algorithms/secp256k1/secp256k1.go (secp256k1 key
// handling via btcec/decred-secp256k1), trimmed of the rippled-specific
// family-seed and validator-seed derivation scheme — XLN signers are
// plain secp256k1 keypairs, not XRPL base58 seeds.
package crypto

import (
	"crypto/sha256"

	"github.com/decred/dcrd/crypto/ripemd160"
)

// SignerIDSize is the size of a derived signer identifier in bytes.
const SignerIDSize = 20

// DeriveSignerID computes RIPEMD160(SHA256(publicKey)), the same
// double-hash the teacher uses for CalcAccountID. The signer id is a
// compact, collision-resistant handle for a secp256k1 public key; it
// carries no protocol meaning beyond identifying which key signed a
// frame.
func DeriveSignerID(publicKey []byte) [SignerIDSize]byte {
	shaSum := sha256.Sum256(publicKey)

	r := ripemd160.New()
	r.Write(shaSum[:])
	digest := r.Sum(nil)

	var out [SignerIDSize]byte
	copy(out[:], digest)
	return out
}

// IsZeroSignerID reports whether id is the all-zero identifier.
func IsZeroSignerID(id [SignerIDSize]byte) bool {
	for _, b := range id {
		if b != 0 {
			return false
		}
	}
	return true
}
