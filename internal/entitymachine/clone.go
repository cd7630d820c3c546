package entitymachine

import (
	"math/big"

	"github.com/xln-finance/xln/internal/xlntypes"
)

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

// Clone returns a tx with its own big.Int storage and a deep-copied
// *Data pointer, so it can be safely retained inside an EnvSnapshot
// while the live replica keeps mutating (spec §3 "Snapshots ... never
// mutated").
func (tx Tx) Clone() Tx {
	switch tx.Type {
	case TxOpenAccount:
		if tx.OpenAccount != nil {
			d := *tx.OpenAccount
			tx.OpenAccount = &d
		}
	case TxDirectPayment:
		if tx.DirectPayment != nil {
			d := *tx.DirectPayment
			d.Amount = cloneBigInt(d.Amount)
			d.Route = append([]xlntypes.EntityID{}, d.Route...)
			tx.DirectPayment = &d
		}
	case TxJEvent:
		if tx.JEvent != nil {
			d := *tx.JEvent
			d.NewBalance = cloneBigInt(d.NewBalance)
			d.Collateral = cloneBigInt(d.Collateral)
			d.Ondelta = cloneBigInt(d.Ondelta)
			tx.JEvent = &d
		}
	case TxAccountInput:
		if tx.AccountInput != nil {
			d := *tx.AccountInput
			d.Message.Frame = d.Message.Frame.clone()
			tx.AccountInput = &d
		}
	}
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
	f.EntityTxs = cloneTxs(f.EntityTxs)
	return f
}

// Clone returns a deep copy of r, including every AccountMachine it
// owns, safe to retain inside an EnvSnapshot while r continues to
// evolve (spec §3 "Snapshots ... never mutated").
func (r *Replica) Clone() *Replica {
	clone := &Replica{
		EntityID:     r.EntityID,
		SignerID:     r.SignerID,
		Config:       cloneConfig(r.Config),
		IsProposer:   r.IsProposer,
		Position:     r.Position,
		State:        r.State.clone(),
		Mempool:      cloneTxs(r.Mempool),
		CurrentFrame: r.CurrentFrame.clone(),
	}
	return clone
}

func cloneConfig(c ReplicaConfig) ReplicaConfig {
	clone := c
	clone.Validators = append([]xlntypes.SignerID{}, c.Validators...)
	if c.Shares != nil {
		clone.Shares = make(map[xlntypes.SignerID]int, len(c.Shares))
		for k, v := range c.Shares {
			clone.Shares[k] = v
		}
	}
	return clone
}

func (s *State) clone() *State {
	clone := NewState()
	for tokenID, v := range s.Reserves {
		clone.Reserves[tokenID] = cloneBigInt(v)
	}
	for counterparty, acct := range s.Accounts {
		clone.Accounts[counterparty] = acct.Clone()
	}
	for key := range s.appliedJEvents {
		clone.appliedJEvents[key] = struct{}{}
	}
	return clone
}
