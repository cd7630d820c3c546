package jurisdiction

import (
	"math/big"
	"sync"
	"time"

	"github.com/xln-finance/xln/internal/codec"
	"github.com/xln-finance/xln/internal/xlnerr"
	"github.com/xln-finance/xln/internal/xlntypes"
)

// collateralEntry is one ChannelKey/token's committed collateral state
// (spec §3's collaterals mapping).
type collateralEntry struct {
	Collateral *big.Int
	Ondelta    *big.Int
}

// Config holds the per-jurisdiction parameters named by createXlnomy
// (spec §6).
type Config struct {
	Name        xlntypes.JurisdictionName
	EvmType     string
	RPCURL      string
	BlockDelay  time.Duration
	AutoGrid    bool
}

// Machine is the JurisdictionMachine (spec §3 "Jurisdiction", §4.6).
// It is safe for concurrent use: the runtime may enqueue jTxs from
// multiple entity-processing goroutines between ticks, but advance()
// itself is invoked single-threaded from the runtime's tick loop.
type Machine struct {
	mu sync.Mutex

	Config Config

	BlockNumber uint64
	StateRoot   codec.Hash256
	Mempool     []Tx

	Reserves    map[xlntypes.EntityID]map[xlntypes.TokenID]*big.Int
	Collaterals map[string]map[xlntypes.TokenID]*collateralEntry

	// lastAdvanceMs is the nowMs of the last successful Advance, in the
	// caller's own synthetic millisecond clock (never time.Now(): the
	// runtime's nowMs is not wall-clock time, so this field must live in
	// the same domain as the values ShouldAutoAdvance/Advance receive).
	lastAdvanceMs int64
}

// New constructs an empty Machine for the given config, matching the
// all-zero Jurisdiction state createXlnomy produces (spec §6).
func New(config Config) *Machine {
	return &Machine{
		Config:      config,
		Reserves:    make(map[xlntypes.EntityID]map[xlntypes.TokenID]*big.Int),
		Collaterals: make(map[string]map[xlntypes.TokenID]*collateralEntry),
	}
}

// Enqueue appends jTx to the FIFO mempool (spec §4.6 "enqueue(jTx):
// appends to mempool").
func (m *Machine) Enqueue(jTx Tx) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Mempool = append(m.Mempool, jTx)
}

// ShouldAutoAdvance reports whether BlockDelay has elapsed since the
// last advance, for the runtime's idle-jurisdiction auto-proposer (spec
// §9 "the only background timer is the jurisdiction auto-proposer").
// nowMs is the caller's synthetic tick clock, the same domain Advance's
// nowMs argument lives in.
func (m *Machine) ShouldAutoAdvance(nowMs int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Mempool) == 0 {
		return false
	}
	if m.Config.BlockDelay <= 0 {
		return true
	}
	elapsed := time.Duration(nowMs-m.lastAdvanceMs) * time.Millisecond
	return elapsed >= m.Config.BlockDelay
}

// Event is a j_event callback addressed to one entity (spec §3's
// j_event, §4.5.2), produced by Advance for the runtime to deliver.
type Event struct {
	TargetEntity    xlntypes.EntityID
	Kind            EventKind
	BlockNumber     uint64
	TransactionHash string
	ObservedAt      int64

	TokenID    xlntypes.TokenID
	NewBalance *big.Int
	Name       string
	Symbol     string
	Decimals   uint32

	Counterparty xlntypes.EntityID
	Collateral   *big.Int
	Ondelta      *big.Int
}

// EventKind mirrors entitymachine.JEventKind without importing it
// (jurisdiction must not depend on entitymachine: the dependency runs
// the other way, via the runtime).
type EventKind int

const (
	EventReserveUpdated EventKind = iota + 1
	EventCollateralUpdated
)

// Advance implements spec §4.6's advance(): drains the mempool in FIFO
// order, applies each jTx, recomputes stateRoot, and returns the events
// to deliver. An invalid jTx rejects the WHOLE block: blockNumber is not
// incremented, the mempool is not cleared, and advance returns the
// error describing which jTx failed (spec §4.6 "Failure").
func (m *Machine) Advance(nowMs int64) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Mempool) == 0 {
		return nil, nil
	}

	reservesClone := cloneReserves(m.Reserves)
	collateralsClone := cloneCollaterals(m.Collaterals)

	var events []Event
	for _, jTx := range m.Mempool {
		evs, err := applyJTx(reservesClone, collateralsClone, jTx, m.BlockNumber+1, nowMs)
		if err != nil {
			return nil, err
		}
		events = append(events, evs...)
	}

	m.Reserves = reservesClone
	m.Collaterals = collateralsClone
	m.BlockNumber++
	m.StateRoot = hashState(m.Reserves, m.Collaterals, m.BlockNumber)
	m.Mempool = nil
	m.lastAdvanceMs = nowMs
	return events, nil
}

// ReservesTotal sums reserves[*][tokenID] across every entity, the left
// side of spec §8 invariant 1's conservation equation.
func (m *Machine) ReservesTotal(tokenID xlntypes.TokenID) *big.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := big.NewInt(0)
	for _, byToken := range m.Reserves {
		if v, ok := byToken[tokenID]; ok {
			total.Add(total, v)
		}
	}
	return total
}

// ConfirmedCollateralTotal sums collaterals[*][tokenID].collateral
// across every channel, counted once per account as spec §3 requires
// (the map is already keyed by ChannelKey, not by side).
func (m *Machine) ConfirmedCollateralTotal(tokenID xlntypes.TokenID) *big.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := big.NewInt(0)
	for _, byToken := range m.Collaterals {
		if e, ok := byToken[tokenID]; ok {
			total.Add(total, e.Collateral)
		}
	}
	return total
}

// PendingCollateralTotal sums the collateral amount named by every
// unconfirmed JTxSettle still sitting in the mempool, the right side of
// spec §8 invariant 1's conservation equation: a settle request has
// already left the requesting side's reserve in the caller's mental
// model but has not yet landed in collaterals, so it must be counted
// somewhere or the invariant would spuriously fail between enqueue and
// the block that confirms it.
func (m *Machine) PendingCollateralTotal(tokenID xlntypes.TokenID) *big.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := big.NewInt(0)
	for _, tx := range m.Mempool {
		if tx.Type == JTxSettle && tx.Settle != nil && tx.Settle.TokenID == tokenID && tx.Settle.Collateral != nil {
			total.Add(total, tx.Settle.Collateral)
		}
	}
	return total
}

// TokenIDs returns every tokenId m currently holds reserves, collateral
// or a pending settle for, sorted ascending, so a caller can iterate
// spec §8 invariant 1 without guessing which tokens are in play.
func (m *Machine) TokenIDs() []xlntypes.TokenID {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[xlntypes.TokenID]struct{})
	for _, byToken := range m.Reserves {
		for tokenID := range byToken {
			seen[tokenID] = struct{}{}
		}
	}
	for _, byToken := range m.Collaterals {
		for tokenID := range byToken {
			seen[tokenID] = struct{}{}
		}
	}
	for _, tx := range m.Mempool {
		if tx.Type == JTxSettle && tx.Settle != nil {
			seen[tx.Settle.TokenID] = struct{}{}
		}
	}
	ids := make([]xlntypes.TokenID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

// Clone returns a deep, independently-mutable copy of m, used by the
// runtime to roll an entire jurisdiction back to its pre-tick state when
// a conservation check fails (spec §7 "the tick is aborted, no snapshot
// is appended, the environment is discarded").
func (m *Machine) Clone() *Machine {
	m.mu.Lock()
	defer m.mu.Unlock()

	reserves := cloneReserves(m.Reserves)
	collaterals := make(map[string]map[xlntypes.TokenID]*collateralEntry, len(m.Collaterals))
	for key, byToken := range m.Collaterals {
		cloned := make(map[xlntypes.TokenID]*collateralEntry, len(byToken))
		for tokenID, e := range byToken {
			cloned[tokenID] = &collateralEntry{Collateral: new(big.Int).Set(e.Collateral), Ondelta: new(big.Int).Set(e.Ondelta)}
		}
		collaterals[key] = cloned
	}
	mempool := make([]Tx, len(m.Mempool))
	copy(mempool, m.Mempool)

	return &Machine{
		Config:        m.Config,
		BlockNumber:   m.BlockNumber,
		StateRoot:     m.StateRoot,
		Mempool:       mempool,
		Reserves:      reserves,
		Collaterals:   collaterals,
		lastAdvanceMs: m.lastAdvanceMs,
	}
}

func applyJTx(reserves map[xlntypes.EntityID]map[xlntypes.TokenID]*big.Int, collaterals map[string]map[xlntypes.TokenID]*collateralEntry, jTx Tx, blockNumber uint64, nowMs int64) ([]Event, error) {
	switch jTx.Type {
	case JTxReserveUpdate:
		data := jTx.ReserveUpdate
		if data == nil || data.NewBalance == nil || data.NewBalance.Sign() < 0 {
			return nil, xlnerr.New(xlnerr.KindInvalidAmount, "reserveUpdate requires a non-negative balance")
		}
		byToken, ok := reserves[data.Entity]
		if !ok {
			byToken = make(map[xlntypes.TokenID]*big.Int)
			reserves[data.Entity] = byToken
		}
		byToken[data.TokenID] = new(big.Int).Set(data.NewBalance)
		return []Event{{
			TargetEntity:    data.Entity,
			Kind:            EventReserveUpdated,
			BlockNumber:     blockNumber,
			TransactionHash: jTx.TransactionHash,
			ObservedAt:      nowMs,
			TokenID:         data.TokenID,
			NewBalance:      new(big.Int).Set(data.NewBalance),
			Name:            data.Name,
			Symbol:          data.Symbol,
			Decimals:        data.Decimals,
		}}, nil

	case JTxSettle:
		data := jTx.Settle
		if data == nil || data.Collateral == nil || data.Collateral.Sign() < 0 {
			return nil, xlnerr.New(xlnerr.KindInvalidAmount, "settle requires a non-negative collateral")
		}
		left, right := data.Left, data.Right
		if !xlntypes.IsLeft(left, right) {
			left, right = right, left
		}
		key := xlntypes.ChannelKey(left, right)
		byToken, ok := collaterals[key]
		if !ok {
			byToken = make(map[xlntypes.TokenID]*collateralEntry)
			collaterals[key] = byToken
		}
		ondelta := data.Ondelta
		if ondelta == nil {
			ondelta = big.NewInt(0)
		}
		byToken[data.TokenID] = &collateralEntry{Collateral: new(big.Int).Set(data.Collateral), Ondelta: new(big.Int).Set(ondelta)}

		mk := func(target, counterparty xlntypes.EntityID) Event {
			return Event{
				TargetEntity:    target,
				Kind:            EventCollateralUpdated,
				BlockNumber:     blockNumber,
				TransactionHash: jTx.TransactionHash,
				ObservedAt:      nowMs,
				TokenID:         data.TokenID,
				Counterparty:    counterparty,
				Collateral:      new(big.Int).Set(data.Collateral),
				Ondelta:         new(big.Int).Set(ondelta),
			}
		}
		return []Event{mk(data.Left, data.Right), mk(data.Right, data.Left)}, nil

	default:
		return nil, xlnerr.New(xlnerr.KindUnknownTxType, "unrecognized jurisdiction tx type")
	}
}

func cloneReserves(in map[xlntypes.EntityID]map[xlntypes.TokenID]*big.Int) map[xlntypes.EntityID]map[xlntypes.TokenID]*big.Int {
	out := make(map[xlntypes.EntityID]map[xlntypes.TokenID]*big.Int, len(in))
	for entity, byToken := range in {
		cloned := make(map[xlntypes.TokenID]*big.Int, len(byToken))
		for tokenID, v := range byToken {
			cloned[tokenID] = new(big.Int).Set(v)
		}
		out[entity] = cloned
	}
	return out
}

func cloneCollaterals(in map[string]map[xlntypes.TokenID]*collateralEntry) map[string]map[xlntypes.TokenID]*collateralEntry {
	out := make(map[string]map[xlntypes.TokenID]*collateralEntry, len(in))
	for key, byToken := range in {
		cloned := make(map[xlntypes.TokenID]*collateralEntry, len(byToken))
		for tokenID, e := range byToken {
			cloned[tokenID] = &collateralEntry{Collateral: new(big.Int).Set(e.Collateral), Ondelta: new(big.Int).Set(e.Ondelta)}
		}
		out[key] = cloned
	}
	return out
}
