package codec

import "crypto/sha256"

// Hash256 is the 32-byte digest type used for stateHashes, block stateRoots
// and frame hashes throughout XLN.
type Hash256 [32]byte

// Hash computes SHA-256(encode(x)) for whatever canonical bytes the caller
// has already produced with a Writer. This is the one hashing primitive
// exposed by the core (spec §6 cryptoHash), grounded on the teacher's own
// use of crypto/sha256 for XRPL's hash-prefix domains
// (internal/protocol/hashPrefix.go) — no third-party hash library is
// needed or used anywhere in goXRPLd for this purpose.
func Hash(b []byte) Hash256 {
	return sha256.Sum256(b)
}

// Bytes returns h as a byte slice.
func (h Hash256) Bytes() []byte {
	return h[:]
}

// IsZero reports whether h is the all-zero hash (used as the "no previous
// frame" sentinel for height 0).
func (h Hash256) IsZero() bool {
	return h == Hash256{}
}

// Prefix combines a 3-ASCII-character domain tag with sha256 the way the
// teacher's rippled-derived hash-prefix domains do
// (internal/protocol/hashPrefix.go), so that a frame hash, a snapshot hash
// and a block stateRoot hash can never collide even if their encoded bytes
// happened to coincide.
type Prefix [4]byte

// MakePrefix mirrors makeHashPrefix: three tag bytes plus a trailing zero.
func MakePrefix(a, b, c byte) Prefix {
	return Prefix{a, b, c, 0}
}

var (
	// PrefixEntityFrame domains EntityFrame.stateHash.
	PrefixEntityFrame = MakePrefix('E', 'F', 'R')
	// PrefixAccountFrame domains AccountFrame.stateHash.
	PrefixAccountFrame = MakePrefix('A', 'F', 'R')
	// PrefixJurisdictionBlock domains Jurisdiction.stateRoot.
	PrefixJurisdictionBlock = MakePrefix('J', 'B', 'K')
	// PrefixEntityState domains a raw EntityState hash (used by frame hashing).
	PrefixEntityState = MakePrefix('E', 'S', 'T')
)

// HashWithPrefix computes SHA-256(prefix ∥ encoded).
func HashWithPrefix(p Prefix, encoded []byte) Hash256 {
	buf := make([]byte, 0, len(p)+len(encoded))
	buf = append(buf, p[:]...)
	buf = append(buf, encoded...)
	return Hash(buf)
}
