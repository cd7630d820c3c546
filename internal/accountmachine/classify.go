package accountmachine

import (
	"math/big"

	"github.com/xln-finance/xln/internal/deltamath"
)

// BilateralState is the advisory classification exposed to the view
// layer (spec §4.4 "classifyBilateralState"): it is part of the
// protocol's documented surface even though no invariant depends on it.
type BilateralState int

const (
	BilateralCommitted BilateralState = iota
	BilateralPendingLocal
	BilateralPendingRemote
	BilateralDesynced
)

func (s BilateralState) String() string {
	switch s {
	case BilateralCommitted:
		return "committed"
	case BilateralPendingLocal:
		return "pendingLocal"
	case BilateralPendingRemote:
		return "pendingRemote"
	case BilateralDesynced:
		return "desynced"
	default:
		return "unknown"
	}
}

// Classification is classifyBilateralState's return value.
type Classification struct {
	State          BilateralState
	ShouldRollback bool
}

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}

// ClassifyBilateralState implements spec §4.4's classifyBilateralState:
// given this machine, this side's best knowledge of the peer's committed
// height, and which side we are, return one of {committed, pendingLocal,
// pendingRemote, desynced} plus whether a rollback is advised.
func ClassifyBilateralState(m *Machine, peerKnownHeight uint64) Classification {
	if absDiff(m.CurrentFrame.Height, peerKnownHeight) > 1 {
		return Classification{State: BilateralDesynced, ShouldRollback: m.PendingFrame != nil}
	}
	if m.CurrentFrame.Height == peerKnownHeight && m.PendingFrame == nil {
		return Classification{State: BilateralCommitted}
	}
	if m.PendingFrame != nil {
		// PendingFrame is only ever populated by this side's own Propose:
		// ApplyRemotePropose commits or rejects a peer's frame immediately
		// and never stores it here, so its presence always means a local
		// proposal awaiting the peer's ack, never the reverse.
		return Classification{State: BilateralPendingLocal}
	}
	return Classification{State: BilateralCommitted}
}

// BarVisual is the advisory UI-bar breakdown of an account's capacity
// (spec §6 "getAccountBarVisual"): purely derived from deltamath.Derived,
// carries no protocol meaning. Fractions are of TotalCapacity and sum to
// 1.0 when TotalCapacity is non-zero.
type BarVisual struct {
	OutOwnCreditFraction  float64
	OutCollateralFraction float64
	OutPeerCreditFraction float64
	InPeerCreditFraction  float64
	InCollateralFraction  float64
	InOwnCreditFraction   float64
}

// GetAccountBarVisual computes the advisory bar breakdown for a derived
// capacity view. A zero-capacity account returns an all-zero BarVisual
// rather than dividing by zero.
func GetAccountBarVisual(d deltamath.Derived) BarVisual {
	if d.TotalCapacity.Sign() == 0 {
		return BarVisual{}
	}
	total := new(big.Float).SetInt(d.TotalCapacity)
	fraction := func(part *big.Int) float64 {
		f := new(big.Float).SetInt(part)
		f.Quo(f, total)
		v, _ := f.Float64()
		return v
	}
	return BarVisual{
		OutOwnCreditFraction:  fraction(d.OutOwnCredit),
		OutCollateralFraction: fraction(d.OutCollateral),
		OutPeerCreditFraction: fraction(d.OutPeerCredit),
		InPeerCreditFraction:  fraction(d.InPeerCredit),
		InCollateralFraction:  fraction(d.InCollateral),
		InOwnCreditFraction:   fraction(d.InOwnCredit),
	}
}
