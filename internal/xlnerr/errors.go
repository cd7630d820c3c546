// Package xlnerr defines the error taxonomy used across every XLN layer
// (spec §7). It follows the teacher's own category-prefixed result-code
// convention (internal/core/tx/result.go's Tes/Tec/Tef/... constants) but
// names categories after the spec's own error groups instead of rippled's,
// since XLN is not a ledger-entry apply engine.
package xlnerr

import "fmt"

// Kind is one discrete error category from spec §7.
type Kind int

const (
	// Structural errors: referenced state does not exist, or exists twice.
	KindReplicaMissing Kind = iota + 1
	KindAccountMissing
	KindJurisdictionMissing
	KindDuplicateReplica

	// Validation errors: the input itself is malformed.
	KindInvalidAmount
	KindInvalidRoute
	KindUnknownTxType

	// Capacity errors.
	KindInsufficientCapacity

	// Consensus errors.
	KindFrameHeightMismatch
	KindFrameHashMismatch
	KindDesynced
	KindConservationViolated

	// Dispute errors.
	KindDisputeActive

	// Idempotence: non-fatal, the caller should treat this as a no-op.
	KindJEventAlreadyApplied

	// Fatal: the codec itself is broken.
	KindCanonicalEncodingMismatch
)

// String renders Kind for logs and test failure messages.
func (k Kind) String() string {
	switch k {
	case KindReplicaMissing:
		return "ReplicaMissing"
	case KindAccountMissing:
		return "AccountMissing"
	case KindJurisdictionMissing:
		return "JurisdictionMissing"
	case KindDuplicateReplica:
		return "DuplicateReplica"
	case KindInvalidAmount:
		return "InvalidAmount"
	case KindInvalidRoute:
		return "InvalidRoute"
	case KindUnknownTxType:
		return "UnknownTxType"
	case KindInsufficientCapacity:
		return "InsufficientCapacity"
	case KindFrameHeightMismatch:
		return "FrameHeightMismatch"
	case KindFrameHashMismatch:
		return "FrameHashMismatch"
	case KindDesynced:
		return "Desynced"
	case KindConservationViolated:
		return "ConservationViolated"
	case KindDisputeActive:
		return "DisputeActive"
	case KindJEventAlreadyApplied:
		return "JEventAlreadyApplied"
	case KindCanonicalEncodingMismatch:
		return "CanonicalEncodingMismatch"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the single error type used across XLN. Fields carries the
// structured context named by spec §7 (hop, tokenId, required/available,
// localHeight/peerHeight, ...) without forcing every caller to define its
// own wrapper struct per Kind.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]any
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s %v", e.Kind, e.Message, e.Fields)
}

// Is allows errors.Is(err, xlnerr.KindX) style checks via a sentinel wrapper;
// callers more commonly use IsKind below since Kind itself is not an error.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	return ok && other.Kind == e.Kind
}

// New constructs an *Error with no extra fields.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf constructs an *Error with fields attached.
func Newf(kind Kind, message string, fields map[string]any) *Error {
	return &Error{Kind: kind, Message: message, Fields: fields}
}

// IsKind reports whether err is an *Error of the given Kind.
func IsKind(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}

// Fatal errors abort the whole tick per spec §7: ConservationViolated and
// CanonicalEncodingMismatch. Every other kind is reported through
// runtimeOutputs but does not stop the tick.
func (k Kind) Fatal() bool {
	return k == KindConservationViolated || k == KindCanonicalEncodingMismatch
}

// Idempotent errors are non-fatal and should be silently skipped by the
// caller rather than surfaced as a failure (spec §7).
func (k Kind) Idempotent() bool {
	return k == KindJEventAlreadyApplied
}
