package entitymachine

import (
	"math/big"

	"github.com/xln-finance/xln/internal/accountmachine"
	"github.com/xln-finance/xln/internal/codec"
	"github.com/xln-finance/xln/internal/xlntypes"
)

// ReplicaConfig is spec §3's EntityReplica.config.
type ReplicaConfig struct {
	Mode         string // always "proposer-based" today (spec §9 item 3)
	Threshold    int
	Validators   []xlntypes.SignerID
	Shares       map[xlntypes.SignerID]int
	Jurisdiction xlntypes.JurisdictionName
}

// Position is the opaque 3-tuple view hint carried by EntityReplica and
// Jurisdiction alike; the core never interprets it.
type Position struct {
	X, Y, Z float64
}

// State is spec §3's EntityState.
type State struct {
	Reserves map[xlntypes.TokenID]*big.Int
	Accounts map[xlntypes.EntityID]*accountmachine.Machine

	// appliedJEvents makes j_event application idempotent under retry
	// (spec §4.5.2), keyed by JEventData.IdempotenceKey().
	appliedJEvents map[string]struct{}
}

// NewState returns an empty EntityState.
func NewState() *State {
	return &State{
		Reserves:       make(map[xlntypes.TokenID]*big.Int),
		Accounts:       make(map[xlntypes.EntityID]*accountmachine.Machine),
		appliedJEvents: make(map[string]struct{}),
	}
}

func (s *State) reserve(tokenID xlntypes.TokenID) *big.Int {
	v, ok := s.Reserves[tokenID]
	if !ok {
		v = big.NewInt(0)
		s.Reserves[tokenID] = v
	}
	return v
}

// Frame is spec §3's EntityFrame.
type Frame struct {
	Height   uint64
	StateHash codec.Hash256
	EntityTxs []Tx
}

// Replica is spec §3's EntityReplica: one (entity, signer) instance.
type Replica struct {
	EntityID   xlntypes.EntityID
	SignerID   xlntypes.SignerID
	Config     ReplicaConfig
	IsProposer bool
	Position   Position

	State        *State
	Mempool      []Tx
	CurrentFrame Frame
}

// NewReplica constructs a fresh Replica at height 0 with empty state.
func NewReplica(entityID xlntypes.EntityID, signerID xlntypes.SignerID, config ReplicaConfig, isProposer bool, position Position) *Replica {
	return &Replica{
		EntityID:   entityID,
		SignerID:   signerID,
		Config:     config,
		IsProposer: isProposer,
		Position:   position,
		State:      NewState(),
	}
}

// hashState computes the canonical EntityFrame.stateHash (spec §4.1):
// sorted reserves, then sorted accounts by each counterparty's committed
// account-frame hash — the entity's stateHash need not re-derive the
// full bilateral delta encoding, since the account's own frame hash
// already canonically commits it.
func hashState(s *State) codec.Hash256 {
	tokenIDs := make([]xlntypes.TokenID, 0, len(s.Reserves))
	for id := range s.Reserves {
		tokenIDs = append(tokenIDs, id)
	}
	sortTokenIDs(tokenIDs)

	counterparties := make([]xlntypes.EntityID, 0, len(s.Accounts))
	for id := range s.Accounts {
		counterparties = append(counterparties, id)
	}
	sortEntityIDs(counterparties)

	w := codec.NewWriter(128)
	w.Len(len(tokenIDs))
	for _, id := range tokenIDs {
		w.Uint64(uint64(id))
		w.BigInt(s.Reserves[id])
	}
	w.Len(len(counterparties))
	for _, id := range counterparties {
		w.Bytes32(id)
		acct := s.Accounts[id]
		w.Uint64(acct.CurrentFrame.Height)
		w.VarBytes(acct.CurrentFrame.StateHash.Bytes())
	}
	return codec.HashWithPrefix(codec.PrefixEntityFrame, w.Bytes())
}

func sortTokenIDs(ids []xlntypes.TokenID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

func sortEntityIDs(ids []xlntypes.EntityID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1].Compare(ids[j]) > 0; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}
