// Package jurisdiction implements the J-layer settlement root (spec
// §4.6): a batched, leader-less mempool of JTxs that advances into
// blocks on either an elapsed blockDelayMs or an explicit tick, emitting
// reserve/collateral callbacks to entities. It is grounded on the
// teacher's internal/core/txq package (a mutex-protected FIFO-ish queue
// feeding a ledger-close cycle) generalized from fee-escalated
// transaction selection down to XLN's strict FIFO, leader-less batcher.
package jurisdiction

import (
	"math/big"

	"github.com/xln-finance/xln/internal/xlntypes"
)

// JTxType enumerates the jurisdiction-level transaction variants named
// by spec §3/§4.6.
type JTxType int

const (
	JTxReserveUpdate JTxType = iota + 1
	JTxSettle
)

func (t JTxType) String() string {
	switch t {
	case JTxReserveUpdate:
		return "reserveUpdate"
	case JTxSettle:
		return "settle"
	default:
		return "unknown"
	}
}

// ReserveUpdateData mints or burns an entity's absolute jurisdiction
// reserve balance for one token (spec §4.5.2's ReserveUpdated source).
type ReserveUpdateData struct {
	Entity     xlntypes.EntityID
	TokenID    xlntypes.TokenID
	NewBalance *big.Int
	Name       string
	Symbol     string
	Decimals   uint32
}

// SettleData moves value from one side's reserve into the bilateral
// channel's committed collateral (spec §4.4 transition 6 settleOnchain).
type SettleData struct {
	Left       xlntypes.EntityID
	Right      xlntypes.EntityID
	TokenID    xlntypes.TokenID
	Collateral *big.Int
	Ondelta    *big.Int
}

// Tx is one JTx (spec §3). Exactly one of the *Data pointers is
// populated, selected by Type. TransactionHash is opaque to the
// jurisdiction; it only needs to be unique enough to key j_event
// idempotence on the receiving entity.
type Tx struct {
	Type            JTxType
	TransactionHash string
	ReserveUpdate   *ReserveUpdateData
	Settle          *SettleData
}
