// Package accountmachine implements the bilateral per-pair state machine
// (spec §4.4): mempool → pendingFrame → commit between exactly two
// entities. It is grounded on the teacher's internal/core/tx/trustset.go
// (a credit-limit tx validating and applying against a bilateral ledger
// entry) and internal/core/tx/ripple_state.go (the Balance/LowLimit/
// HighLimit shape that deltamath.Delta generalizes), reworked from
// RippleState's single ledger-wide apply into a two-party propose/ack
// handshake.
package accountmachine

import (
	"math/big"

	"github.com/xln-finance/xln/internal/xlntypes"
)

// TxType enumerates the four AccountTx variants named by spec §3.
type TxType int

const (
	TxAddPayment TxType = iota + 1
	TxAddCredit
	TxUpdateCreditLimit
	TxSettleOnchain
)

func (t TxType) String() string {
	switch t {
	case TxAddPayment:
		return "addPayment"
	case TxAddCredit:
		return "addCredit"
	case TxUpdateCreditLimit:
		return "updateCreditLimit"
	case TxSettleOnchain:
		return "settleOnchain"
	default:
		return "unknown"
	}
}

// Tx is one deterministic update to one token's Delta within an account
// (spec §3 AccountTx).
//
// Amount carries the tx's effect already resolved into left-signed
// convention (positive increases Offdelta, i.e. "left owes more") rather
// than "submitter-relative" magnitude: Delta.Offdelta's sign convention
// is global, not observer-relative, so both sides of the bilateral
// account must apply an identical signed value regardless of which side
// originated the tx or which side is currently replaying it. SubmitLocal
// performs the submitter-relative-to-left-signed conversion once, at
// enqueue time, so Propose/ApplyRemotePropose never need to know who
// authored a queued tx.
type Tx struct {
	Type           TxType
	TokenID        xlntypes.TokenID
	Amount         *big.Int // addPayment: signed offdelta change; addCredit: magnitude to add
	NewCreditLimit *big.Int // updateCreditLimit: absolute new value for the limit the submitter extends
	Description    string

	// SubmittedByLeft records which side originated an addCredit or
	// updateCreditLimit tx, since both always act on "the limit the
	// submitter extends to its peer" (RightCreditLimit if submitted by
	// the left side, LeftCreditLimit if submitted by the right), and that
	// polarity must survive replay on the non-originating side.
	SubmittedByLeft bool
}
