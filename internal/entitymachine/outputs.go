package entitymachine

import (
	"math/big"

	"github.com/xln-finance/xln/internal/xlntypes"
)

// Outbound is an EntityTx destined for another entity's mempool, emitted
// instead of delivered directly: the runtime's intra-tick fixed-point
// loop (spec §9) is the only component that writes into another
// replica's mempool. The exception is directPayment: its per-hop
// enqueues reach other entities' AccountMachines directly through the
// Registry.
type Outbound struct {
	TargetEntityID xlntypes.EntityID
	TargetSignerID xlntypes.SignerID
	Tx             Tx
}

// SettlementRequest asks the jurisdiction layer to move collateral on
// behalf of this entity (spec §4.4 transition 6's settleOnchain, and
// spec §4.5.2's inverse direction). The runtime forwards these into the
// JurisdictionMachine's mempool as jTxs.
type SettlementRequest struct {
	Jurisdiction        xlntypes.JurisdictionName
	Left                xlntypes.EntityID
	Right               xlntypes.EntityID
	TokenID             xlntypes.TokenID
	RequestedCollateral *big.Int
}

// ReserveMirror and CollateralMirror record that a j_event (spec §4.5.2)
// changed reserve or collateral state, for the runtime/view layer to
// reconcile against the jurisdiction's own bookkeeping.
type ReserveMirror struct {
	Entity     xlntypes.EntityID
	TokenID    xlntypes.TokenID
	NewBalance *big.Int
}

type CollateralMirror struct {
	Left       xlntypes.EntityID
	Right      xlntypes.EntityID
	TokenID    xlntypes.TokenID
	Collateral *big.Int
	Ondelta    *big.Int
}

// Outputs collects everything Process produced beyond the mutated
// Replica itself (spec §4.5 "returns (possibly empty) outputs").
type Outputs struct {
	Outbound           []Outbound
	SettlementRequests []SettlementRequest
	ReserveMirrors     []ReserveMirror
	CollateralMirrors  []CollateralMirror
	Errors             []error
}
