package jurisdiction

import (
	"math/big"

	"github.com/xln-finance/xln/internal/codec"
	"github.com/xln-finance/xln/internal/xlntypes"
)

// CollateralEntry is the exported, snapshot-safe view of one channel's
// committed collateral state.
type CollateralEntry struct {
	Collateral *big.Int
	Ondelta    *big.Int
}

// Projection is the read-only jReplicas view spec §3's EnvSnapshot
// embeds: name, block number, state root, mempool, reserves, collaterals
// and block delay. It carries no position and no contracts.
type Projection struct {
	Name        xlntypes.JurisdictionName
	BlockNumber uint64
	StateRoot   codec.Hash256
	Mempool     []Tx
	Reserves    map[xlntypes.EntityID]map[xlntypes.TokenID]*big.Int
	Collaterals map[string]map[xlntypes.TokenID]CollateralEntry
	BlockDelay  string
}

// Snapshot returns a deep, independently-mutable projection of m,
// suitable for retention inside an EnvSnapshot (spec §3 "Snapshots ...
// never mutated").
func (m *Machine) Snapshot() Projection {
	m.mu.Lock()
	defer m.mu.Unlock()

	reserves := cloneReserves(m.Reserves)
	collaterals := make(map[string]map[xlntypes.TokenID]CollateralEntry, len(m.Collaterals))
	for key, byToken := range m.Collaterals {
		cloned := make(map[xlntypes.TokenID]CollateralEntry, len(byToken))
		for tokenID, e := range byToken {
			cloned[tokenID] = CollateralEntry{Collateral: new(big.Int).Set(e.Collateral), Ondelta: new(big.Int).Set(e.Ondelta)}
		}
		collaterals[key] = cloned
	}

	mempool := make([]Tx, len(m.Mempool))
	copy(mempool, m.Mempool)

	return Projection{
		Name:        m.Config.Name,
		BlockNumber: m.BlockNumber,
		StateRoot:   m.StateRoot,
		Mempool:     mempool,
		Reserves:    reserves,
		Collaterals: collaterals,
		BlockDelay:  m.Config.BlockDelay.String(),
	}
}
