// Package codec implements the canonical deterministic byte encoding used
// to compute stateHashes across every layer (spec §4.1). Two implementations
// that encode the same logical structure must produce byte-identical output;
// callers never hand-roll their own encoding of a hashed struct.
package codec

import (
	"math/big"
	"sort"
)

// Writer accumulates a canonical encoding. It has no error return: every
// method is total over its inputs, matching the "declaration order
// concatenation" rule in spec §4.1.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer with capacity hint.
func NewWriter(sizeHint int) *Writer {
	return &Writer{buf: make([]byte, 0, sizeHint)}
}

// Bytes returns the accumulated canonical encoding.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Bool writes a single presence/boolean byte: 0x00 or 0x01.
func (w *Writer) Bool(b bool) {
	if b {
		w.buf = append(w.buf, 0x01)
	} else {
		w.buf = append(w.buf, 0x00)
	}
}

// Uint64 writes an 8-byte big-endian unsigned integer.
func (w *Writer) Uint64(v uint64) {
	w.buf = append(w.buf,
		byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// Uint32 writes a 4-byte big-endian unsigned integer.
func (w *Writer) Uint32(v uint32) {
	w.buf = append(w.buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// Bytes32 writes a fixed 32-byte value verbatim (no length prefix — the
// length is implied by the field's type, per spec §4.1).
func (w *Writer) Bytes32(b [32]byte) {
	w.buf = append(w.buf, b[:]...)
}

// VarBytes writes a length-prefixed byte string: a big-endian uint32 length
// followed by the bytes.
func (w *Writer) VarBytes(b []byte) {
	w.Uint32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// String writes a length-prefixed UTF-8 string.
func (w *Writer) String(s string) {
	w.VarBytes([]byte(s))
}

// BigInt writes an arbitrary-precision signed integer as a sign byte
// (0x00 negative, 0x01 zero-or-positive) followed by a length-prefixed
// two's-complement-equivalent big-endian magnitude. Using sign+magnitude
// rather than true two's complement keeps the encoding length-independent
// of sign, which simplifies the canonical round trip for bigints whose
// width is not fixed in advance.
func (w *Writer) BigInt(v *big.Int) {
	if v == nil {
		v = big.NewInt(0)
	}
	if v.Sign() < 0 {
		w.buf = append(w.buf, 0x00)
	} else {
		w.buf = append(w.buf, 0x01)
	}
	w.VarBytes(v.Bytes())
}

// Len writes an explicit sequence-length prefix (big-endian uint32).
func (w *Writer) Len(n int) {
	w.Uint32(uint32(n))
}

// SortedStringKeys returns m's keys sorted ascending by byte value, for
// deterministic mapping encoding (spec §4.1: "mappings sorted by key bytes
// ascending").
func SortedStringKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
