package accountmachine

import (
	"math/big"
	"time"

	"github.com/xln-finance/xln/internal/codec"
	"github.com/xln-finance/xln/internal/deltamath"
	"github.com/xln-finance/xln/internal/xlnerr"
	"github.com/xln-finance/xln/internal/xlntypes"
)

// State is the per-side view of a Machine's consensus progress (spec
// §4.4).
type State int

const (
	StateIdle State = iota
	StateLocalPending
	StateRemotePending
	StateDesynced
	StateDisputing
)

// Frame is a committed or proposed AccountFrame (spec §3).
type Frame struct {
	Height     uint64
	StateHash  codec.Hash256
	AccountTxs []Tx
}

// Dispute records an open dispute (spec §4.4 step "Dispute"). Resolution
// is an explicit open question (spec §9 item 2): the machine stays in
// DISPUTING and exposes this record but does not invent a resolution
// path.
type Dispute struct {
	StartedByLeft       bool
	DisputeTimeout      time.Duration
	InitialDisputeNonce uint64
}

// Machine is the bilateral per-pair state machine for one counterparty.
type Machine struct {
	Counterparty xlntypes.EntityID
	IAmLeft      bool

	Deltas map[xlntypes.TokenID]*deltamath.Delta

	CurrentFrame Frame
	PendingFrame *Frame
	pendingState map[xlntypes.TokenID]*deltamath.Delta

	Mempool       []Tx
	ActiveDispute *Dispute

	// PeerKnownHeight is this side's best knowledge of the counterparty's
	// committed CurrentFrame.Height, used by ClassifyBilateralState.
	PeerKnownHeight uint64
}

// New constructs an AccountMachine for a newly discovered counterparty
// (spec §4.4 "openAccount initialises an AccountMachine with all-zero
// Delta for each previously-known token"). Tokens are added lazily via
// EnsureToken as they are first referenced.
func New(counterparty xlntypes.EntityID, iAmLeft bool) *Machine {
	return &Machine{
		Counterparty: counterparty,
		IAmLeft:      iAmLeft,
		Deltas:       make(map[xlntypes.TokenID]*deltamath.Delta),
	}
}

// EnsureToken idempotently creates a zero Delta for tokenID if absent.
func (m *Machine) EnsureToken(tokenID xlntypes.TokenID) {
	if _, ok := m.Deltas[tokenID]; !ok {
		d := deltamath.ZeroDelta()
		m.Deltas[tokenID] = &d
	}
}

// Derive returns the capacity/credit view for tokenID from this side's
// own perspective (spec §4.3). Panics never occur: an unknown token
// derives from an all-zero Delta.
func (m *Machine) Derive(tokenID xlntypes.TokenID) deltamath.Derived {
	d, ok := m.Deltas[tokenID]
	if !ok {
		zero := deltamath.ZeroDelta()
		d = &zero
	}
	return deltamath.DeriveDelta(*d, m.IAmLeft)
}

// SubmitLocal enqueues a locally originated AccountTx into the mempool
// (spec §4.4 transition 1). Amount-bearing tx types must carry a
// strictly positive magnitude; the sign conversion into Delta's
// left-signed convention happens here so the queued Tx is ready to
// apply verbatim by either side.
func (m *Machine) SubmitLocal(txType TxType, tokenID xlntypes.TokenID, magnitude *big.Int) (Tx, error) {
	if m.ActiveDispute != nil {
		return Tx{}, xlnerr.New(xlnerr.KindDisputeActive, "account has an open dispute")
	}

	switch txType {
	case TxAddPayment:
		if magnitude == nil || magnitude.Sign() <= 0 {
			return Tx{}, xlnerr.New(xlnerr.KindInvalidAmount, "amount must be positive")
		}
		signed := new(big.Int).Set(magnitude)
		if m.IAmLeft {
			signed.Neg(signed)
		}
		tx := Tx{Type: txType, TokenID: tokenID, Amount: signed}
		m.Mempool = append(m.Mempool, tx)
		return tx, nil
	case TxAddCredit:
		if magnitude == nil || magnitude.Sign() <= 0 {
			return Tx{}, xlnerr.New(xlnerr.KindInvalidAmount, "amount must be positive")
		}
		tx := Tx{Type: txType, TokenID: tokenID, Amount: new(big.Int).Set(magnitude), SubmittedByLeft: m.IAmLeft}
		m.Mempool = append(m.Mempool, tx)
		return tx, nil
	case TxUpdateCreditLimit:
		if magnitude == nil || magnitude.Sign() < 0 {
			return Tx{}, xlnerr.New(xlnerr.KindInvalidAmount, "credit limit must be non-negative")
		}
		tx := Tx{Type: txType, TokenID: tokenID, NewCreditLimit: new(big.Int).Set(magnitude), SubmittedByLeft: m.IAmLeft}
		m.Mempool = append(m.Mempool, tx)
		return tx, nil
	case TxSettleOnchain:
		if magnitude == nil || magnitude.Sign() <= 0 {
			return Tx{}, xlnerr.New(xlnerr.KindInvalidAmount, "settle amount must be positive")
		}
		tx := Tx{Type: txType, TokenID: tokenID, Amount: new(big.Int).Set(magnitude)}
		m.Mempool = append(m.Mempool, tx)
		return tx, nil
	default:
		return Tx{}, xlnerr.New(xlnerr.KindUnknownTxType, "unrecognized account tx type")
	}
}

// applyTx mutates deltas in place per tx; it is the single place that
// interprets every TxType. addCredit/updateCreditLimit always act on
// "the limit the submitter extends to its peer": RightCreditLimit when
// SubmittedByLeft, LeftCreditLimit otherwise, so replay on the
// non-originating side lands on the same field regardless of that
// side's own IAmLeft.
func applyTx(deltas map[xlntypes.TokenID]*deltamath.Delta, tx Tx) error {
	d, ok := deltas[tx.TokenID]
	if !ok {
		zero := deltamath.ZeroDelta()
		d = &zero
		deltas[tx.TokenID] = d
	}

	switch tx.Type {
	case TxAddPayment:
		d.Offdelta.Add(d.Offdelta, tx.Amount)
	case TxAddCredit:
		if tx.SubmittedByLeft {
			d.RightCreditLimit.Add(d.RightCreditLimit, tx.Amount)
		} else {
			d.LeftCreditLimit.Add(d.LeftCreditLimit, tx.Amount)
		}
	case TxUpdateCreditLimit:
		if tx.SubmittedByLeft {
			d.RightCreditLimit.Set(tx.NewCreditLimit)
		} else {
			d.LeftCreditLimit.Set(tx.NewCreditLimit)
		}
	case TxSettleOnchain:
		// No-op on Delta: the actual collateral/ondelta change arrives
		// later via a j_event (spec §4.4 transition 6, §4.5.2).
	default:
		return xlnerr.New(xlnerr.KindUnknownTxType, "unrecognized account tx type")
	}
	return nil
}

func cloneDeltas(in map[xlntypes.TokenID]*deltamath.Delta) map[xlntypes.TokenID]*deltamath.Delta {
	out := make(map[xlntypes.TokenID]*deltamath.Delta, len(in))
	for tokenID, d := range in {
		out[tokenID] = &deltamath.Delta{
			Offdelta:         new(big.Int).Set(d.Offdelta),
			Collateral:       new(big.Int).Set(d.Collateral),
			Ondelta:          new(big.Int).Set(d.Ondelta),
			LeftCreditLimit:  new(big.Int).Set(d.LeftCreditLimit),
			RightCreditLimit: new(big.Int).Set(d.RightCreditLimit),
		}
	}
	return out
}

// hashDeltas computes the canonical hash of an account's full delta
// state (spec §4.1 codec rules: mappings sorted by key bytes ascending,
// here the token id's big-endian bytes).
func hashDeltas(deltas map[xlntypes.TokenID]*deltamath.Delta) codec.Hash256 {
	tokenIDs := make([]xlntypes.TokenID, 0, len(deltas))
	for id := range deltas {
		tokenIDs = append(tokenIDs, id)
	}
	sortTokenIDs(tokenIDs)

	w := codec.NewWriter(64 * len(tokenIDs))
	w.Len(len(tokenIDs))
	for _, id := range tokenIDs {
		d := deltas[id]
		w.Uint64(uint64(id))
		w.BigInt(d.Offdelta)
		w.BigInt(d.Collateral)
		w.BigInt(d.Ondelta)
		w.BigInt(d.LeftCreditLimit)
		w.BigInt(d.RightCreditLimit)
	}
	return codec.HashWithPrefix(codec.PrefixAccountFrame, w.Bytes())
}

func sortTokenIDs(ids []xlntypes.TokenID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

// Propose drains the mempool into a new pendingFrame (spec §4.4
// transition 2). Either side may propose when it has queued txs and no
// pending frame of its own already in flight; simultaneous proposals at
// the same height are resolved by ApplyRemotePropose's tie-break.
func (m *Machine) Propose() (*Frame, error) {
	if m.ActiveDispute != nil {
		return nil, xlnerr.New(xlnerr.KindDisputeActive, "account has an open dispute")
	}
	if m.PendingFrame != nil {
		return nil, nil
	}
	if len(m.Mempool) == 0 {
		return nil, nil
	}

	drained := m.Mempool
	m.Mempool = nil

	clone := cloneDeltas(m.Deltas)
	for _, tx := range drained {
		if err := applyTx(clone, tx); err != nil {
			return nil, err
		}
	}

	frame := Frame{
		Height:     m.CurrentFrame.Height + 1,
		StateHash:  hashDeltas(clone),
		AccountTxs: drained,
	}
	m.PendingFrame = &frame
	m.pendingState = clone
	return &frame, nil
}

// ApplyRemotePropose validates and conditionally commits a frame
// proposed by the counterparty (spec §4.4 transition 3). rollbackLocal
// reports whether the receiver's own pending frame was discarded as a
// result of the tie-break (left wins simultaneous proposals at the same
// height); accepted reports whether frame was committed.
func (m *Machine) ApplyRemotePropose(frame Frame) (accepted bool, rollbackLocal bool, err error) {
	if m.ActiveDispute != nil {
		return false, false, xlnerr.New(xlnerr.KindDisputeActive, "account has an open dispute")
	}
	if frame.Height != m.CurrentFrame.Height+1 {
		return false, false, xlnerr.Newf(xlnerr.KindFrameHeightMismatch, "unexpected remote frame height", map[string]any{
			"expected": m.CurrentFrame.Height + 1,
			"got":      frame.Height,
		})
	}

	if m.PendingFrame != nil {
		if m.IAmLeft {
			// Left always wins a same-height conflict; reject the
			// incoming (right's) proposal and keep our own pending.
			return false, false, nil
		}
		// We are right: left's proposal wins. Roll back our pending,
		// re-queueing its txs at the end of our mempool (spec §4.4
		// tie-break).
		m.Mempool = append(m.Mempool, m.PendingFrame.AccountTxs...)
		m.PendingFrame = nil
		m.pendingState = nil
		rollbackLocal = true
	}

	clone := cloneDeltas(m.Deltas)
	for _, tx := range frame.AccountTxs {
		if applyErr := applyTx(clone, tx); applyErr != nil {
			return false, rollbackLocal, applyErr
		}
	}
	gotHash := hashDeltas(clone)
	if gotHash != frame.StateHash {
		return false, rollbackLocal, xlnerr.New(xlnerr.KindFrameHashMismatch, "recomputed state hash does not match proposed frame")
	}

	m.CurrentFrame = frame
	m.Deltas = clone
	m.PeerKnownHeight = frame.Height
	return true, rollbackLocal, nil
}

// ApplyRemoteAck commits this side's own pendingFrame after the peer
// acknowledges it (spec §4.4 transition 4).
func (m *Machine) ApplyRemoteAck(height uint64) error {
	if m.PendingFrame == nil || m.PendingFrame.Height != height {
		return xlnerr.Newf(xlnerr.KindFrameHeightMismatch, "ack for unknown pending frame", map[string]any{
			"height": height,
		})
	}
	m.CurrentFrame = *m.PendingFrame
	m.Deltas = m.pendingState
	m.PeerKnownHeight = m.CurrentFrame.Height
	m.PendingFrame = nil
	m.pendingState = nil
	return nil
}

// ApplyRemoteReject discards this side's pendingFrame and re-queues its
// txs for the next proposal attempt (spec §4.4 "Failure semantics"). A
// nil PendingFrame is not an error here: the simultaneous-proposal
// tie-break in ApplyRemotePropose already rolled back and cleared this
// side's own pending frame when it committed the peer's frame instead, so
// the peer's reject of that now-superseded proposal arrives after the
// fact and has nothing left to do.
func (m *Machine) ApplyRemoteReject(height uint64) error {
	if m.PendingFrame == nil {
		return nil
	}
	if m.PendingFrame.Height != height {
		return xlnerr.Newf(xlnerr.KindFrameHeightMismatch, "reject for unexpected pending frame height", map[string]any{
			"expected": m.PendingFrame.Height,
			"got":      height,
		})
	}
	m.Mempool = append(append([]Tx{}, m.PendingFrame.AccountTxs...), m.Mempool...)
	m.PendingFrame = nil
	m.pendingState = nil
	return nil
}

// OpenDispute records a dispute (spec §4.4 "Dispute"). Resolution is an
// open question (spec §9 item 2); callers must not invent one.
func (m *Machine) OpenDispute(startedByLeft bool, timeout time.Duration) {
	m.ActiveDispute = &Dispute{
		StartedByLeft:       startedByLeft,
		DisputeTimeout:      timeout,
		InitialDisputeNonce: m.CurrentFrame.Height,
	}
}
