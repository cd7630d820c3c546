package codec

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/decred/dcrd/crypto/ripemd160"

	"github.com/xln-finance/xln/internal/xlntypes"
)

// EntityShortHash computes RIPEMD160(SHA256(entityId)), the same
// double-hash rippled uses to derive an AccountID from a public key
// (internal/crypto/ids.go CalcAccountID in the teacher). XLN entity ids are
// already 32 bytes, so this is used purely for a compact, collision-resistant
// 20-byte handle convenient for log lines and UI labels — it carries no
// protocol meaning.
func EntityShortHash(id xlntypes.EntityID) [20]byte {
	shaSum := sha256.Sum256(id[:])
	r := ripemd160.New()
	r.Write(shaSum[:])
	var out [20]byte
	copy(out[:], r.Sum(nil))
	return out
}

// EntityShortHashString renders EntityShortHash as 0x-prefixed hex.
func EntityShortHashString(id xlntypes.EntityID) string {
	h := EntityShortHash(id)
	return "0x" + hex.EncodeToString(h[:])
}

// GetEntityShortID is the spec §6 entry point: canonical short-form
// rendering for UI, defined as 0x + first 4 bytes + "…" + last 4 bytes of
// the full id (xlntypes.ShortID) rather than the ripemd digest — the digest
// form is available via EntityShortHashString for callers that need a
// fixed-width handle instead of a human-legible truncation.
func GetEntityShortID(id xlntypes.EntityID) string {
	return xlntypes.ShortID(id)
}
