package accountmachine

import "math/big"

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

// Clone returns a tx with its own big.Int storage, so neither copy can
// observe the other's in-place mutation.
func (tx Tx) Clone() Tx {
	tx.Amount = cloneBigInt(tx.Amount)
	tx.NewCreditLimit = cloneBigInt(tx.NewCreditLimit)
	return tx
}

func cloneTxs(in []Tx) []Tx {
	if in == nil {
		return nil
	}
	out := make([]Tx, len(in))
	for i, tx := range in {
		out[i] = tx.Clone()
	}
	return out
}

func (f Frame) clone() Frame {
	f.AccountTxs = cloneTxs(f.AccountTxs)
	return f
}

// Clone returns a deep copy of m: every *big.Int reachable from it has
// its own backing storage, so appending this clone into an EnvSnapshot
// (spec §3 "Snapshots are created on every process call, never
// mutated") is safe even as m continues to evolve afterward.
func (m *Machine) Clone() *Machine {
	clone := &Machine{
		Counterparty:    m.Counterparty,
		IAmLeft:         m.IAmLeft,
		Deltas:          cloneDeltas(m.Deltas),
		CurrentFrame:    m.CurrentFrame.clone(),
		Mempool:         cloneTxs(m.Mempool),
		PeerKnownHeight: m.PeerKnownHeight,
	}
	if m.PendingFrame != nil {
		pf := m.PendingFrame.clone()
		clone.PendingFrame = &pf
	}
	if m.pendingState != nil {
		clone.pendingState = cloneDeltas(m.pendingState)
	}
	if m.ActiveDispute != nil {
		d := *m.ActiveDispute
		clone.ActiveDispute = &d
	}
	return clone
}
