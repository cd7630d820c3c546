// Package entitymachine implements the per-entity replicated state
// machine (spec §4.5): it sequences EntityTxs into EntityFrames,
// maintains EntityState, and drives the AccountMachines it owns. It is
// grounded on the teacher's internal/core/consensus/engine.go Adaptor
// interface style (a narrow set of callbacks a consensus engine drives
// against externally-owned state) generalized from rippled's
// propose/validate round to XLN's single-proposer frame sequencing.
package entitymachine

import (
	"math/big"

	"github.com/xln-finance/xln/internal/accountmachine"
	"github.com/xln-finance/xln/internal/xlntypes"
)

// TxType enumerates the EntityTx variants named by spec §3 (importReplica
// is intentionally absent: it is only meaningful as a RuntimeTx, handled
// one layer up by the runtime package).
type TxType int

const (
	TxOpenAccount TxType = iota + 1
	TxDirectPayment
	TxJEvent
	TxAccountInput
)

func (t TxType) String() string {
	switch t {
	case TxOpenAccount:
		return "openAccount"
	case TxDirectPayment:
		return "directPayment"
	case TxJEvent:
		return "j_event"
	case TxAccountInput:
		return "accountInput"
	default:
		return "unknown"
	}
}

// OpenAccountData is spec §3's openAccount{targetEntityId}.
type OpenAccountData struct {
	Target xlntypes.EntityID
}

// DirectPaymentData is spec §3's directPayment{...}.
type DirectPaymentData struct {
	Target      xlntypes.EntityID
	TokenID     xlntypes.TokenID
	Amount      *big.Int
	Route       []xlntypes.EntityID
	Description string
}

// JEventKind distinguishes the two callback types handled by §4.5.2.
type JEventKind int

const (
	JEventReserveUpdated JEventKind = iota + 1
	JEventCollateralUpdated
)

// JEventData is spec §3's j_event{event, observedAt, blockNumber,
// transactionHash}, flattened: Kind selects which of the
// ReserveUpdated/CollateralUpdated field groups below is populated.
type JEventData struct {
	Kind            JEventKind
	BlockNumber     uint64
	TransactionHash string
	ObservedAt      int64

	// ReserveUpdated fields.
	Entity     xlntypes.EntityID
	TokenID    xlntypes.TokenID
	NewBalance *big.Int
	Name       string
	Symbol     string
	Decimals   uint32

	// CollateralUpdated fields. Counterparty names the other side of the
	// channel this entity's own AccountMachine tracks it against.
	Counterparty xlntypes.EntityID
	Collateral   *big.Int
	Ondelta      *big.Int
}

// IdempotenceKey returns the composite key spec §4.5.2 requires j_event
// application to be idempotent under: (blockNumber, transactionHash,
// entity, tokenId).
func (j JEventData) IdempotenceKey() string {
	return uintToString(j.BlockNumber) + "|" + j.TransactionHash + "|" +
		j.Entity.String() + "|" + uintToString(uint64(j.TokenID))
}

// AccountInputData is spec §3's accountInput{fromEntityId, toEntityId,
// accountTx} — the wire form of a bilateral message, generalized here to
// carry a full accountmachine.Message so it can represent PROPOSE, ACK,
// or REJECT (spec §4.4), not only a raw AccountTx.
type AccountInputData struct {
	From    xlntypes.EntityID
	To      xlntypes.EntityID
	Message accountmachine.Message
}

// Tx is one EntityTx (spec §3). Exactly one of the *Data pointers is
// populated, selected by Type.
type Tx struct {
	Type          TxType
	OpenAccount   *OpenAccountData
	DirectPayment *DirectPaymentData
	JEvent        *JEventData
	AccountInput  *AccountInputData
}

func uintToString(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
