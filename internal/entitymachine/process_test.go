package entitymachine

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xln-finance/xln/internal/accountmachine"
	"github.com/xln-finance/xln/internal/xlntypes"
)

const signer0 = xlntypes.SignerID("s0")
const token0 = xlntypes.TokenID(0)

type fakeRegistry struct {
	replicas map[xlntypes.EntityID]*Replica
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{replicas: make(map[xlntypes.EntityID]*Replica)}
}

func (f *fakeRegistry) add(entityID xlntypes.EntityID) *Replica {
	r := NewReplica(entityID, signer0, ReplicaConfig{Mode: "proposer-based", Threshold: 1}, true, Position{})
	f.replicas[entityID] = r
	return r
}

func (f *fakeRegistry) Get(entityID xlntypes.EntityID, signerID xlntypes.SignerID) (*Replica, bool) {
	r, ok := f.replicas[entityID]
	return r, ok
}

func (f *fakeRegistry) DefaultSigner(entityID xlntypes.EntityID) (xlntypes.SignerID, bool) {
	_, ok := f.replicas[entityID]
	return signer0, ok
}

// deliverAll pumps a fixed-point loop over out.Outbound, draining each
// target replica's Process in turn (a minimal stand-in for the runtime's
// intra-tick delivery loop, spec §9).
func deliverAll(t *testing.T, reg *fakeRegistry, out Outputs) {
	t.Helper()
	pending := out.Outbound
	for iter := 0; iter < 64 && len(pending) > 0; iter++ {
		next := pending[0]
		pending = pending[1:]
		more, err := Process(reg, next.TargetEntityID, signer0, []Tx{next.Tx})
		require.NoError(t, err)
		assert.Empty(t, more.Errors, "delivered message produced a per-output error")
		pending = append(pending, more.Outbound...)
	}
	require.Empty(t, pending, "delivery did not converge")
}

func TestProcessOpenAccountIsIdempotent(t *testing.T) {
	reg := newFakeRegistry()
	a := xlntypes.NumberedEntityID(1)
	b := xlntypes.NumberedEntityID(2)
	reg.add(a)
	reg.add(b)

	out, err := Process(reg, a, signer0, []Tx{{Type: TxOpenAccount, OpenAccount: &OpenAccountData{Target: b}}})
	require.NoError(t, err)
	require.Len(t, out.Outbound, 1)
	deliverAll(t, reg, out)

	ra, _ := reg.Get(a, signer0)
	rb, _ := reg.Get(b, signer0)
	assert.Contains(t, ra.State.Accounts, b)
	assert.Contains(t, rb.State.Accounts, a)

	out2, err := Process(reg, a, signer0, []Tx{{Type: TxOpenAccount, OpenAccount: &OpenAccountData{Target: b}}})
	require.NoError(t, err)
	assert.Empty(t, out2.Outbound, "second openAccount must be a no-op")
}

func TestProcessDirectPaymentSingleHop(t *testing.T) {
	reg := newFakeRegistry()
	a := xlntypes.NumberedEntityID(1)
	b := xlntypes.NumberedEntityID(2)
	ra := reg.add(a)
	reg.add(b)

	rb, _ := reg.Get(b, signer0)
	acctAB := ensureAccount(ra, b)
	acctBA := ensureAccount(rb, a)
	acctAB.EnsureToken(token0)
	acctBA.EnsureToken(token0)
	// Both sides' Deltas must carry identical credit limits: hashDeltas
	// hashes both limit fields, so a one-sided write here would make
	// ApplyRemotePropose reject the payment's PROPOSE frame with
	// FrameHashMismatch once it reaches b via deliverAll.
	if xlntypes.IsLeft(a, b) {
		acctAB.Deltas[token0].RightCreditLimit = big.NewInt(1_000_000)
		acctBA.Deltas[token0].RightCreditLimit = big.NewInt(1_000_000)
	} else {
		acctAB.Deltas[token0].LeftCreditLimit = big.NewInt(1_000_000)
		acctBA.Deltas[token0].LeftCreditLimit = big.NewInt(1_000_000)
	}

	out, err := Process(reg, a, signer0, []Tx{{
		Type: TxDirectPayment,
		DirectPayment: &DirectPaymentData{
			Target:  b,
			TokenID: token0,
			Amount:  big.NewInt(100),
		},
	}})
	require.NoError(t, err)
	require.Empty(t, out.Errors)
	require.Len(t, out.Outbound, 1)
	deliverAll(t, reg, out)

	view := acctBA.Derive(token0)
	assert.Zero(t, view.Delta.Cmp(big.NewInt(100)))
}

func TestProcessDirectPaymentRejectsInsufficientCapacity(t *testing.T) {
	reg := newFakeRegistry()
	a := xlntypes.NumberedEntityID(1)
	b := xlntypes.NumberedEntityID(2)
	ra := reg.add(a)
	reg.add(b)

	acctAB := ensureAccount(ra, b)
	acctAB.EnsureToken(token0)

	out, err := Process(reg, a, signer0, []Tx{{
		Type: TxDirectPayment,
		DirectPayment: &DirectPaymentData{
			Target:  b,
			TokenID: token0,
			Amount:  big.NewInt(100),
		},
	}})
	require.NoError(t, err)
	require.Len(t, out.Errors, 1)
	assert.Empty(t, out.Outbound)
}

func TestProcessJEventReserveUpdatedIsIdempotent(t *testing.T) {
	reg := newFakeRegistry()
	a := xlntypes.NumberedEntityID(1)
	reg.add(a)

	ev := &JEventData{
		Kind:            JEventReserveUpdated,
		BlockNumber:     10,
		TransactionHash: "0xabc",
		Entity:          a,
		TokenID:         token0,
		NewBalance:      big.NewInt(500),
	}
	out, err := Process(reg, a, signer0, []Tx{{Type: TxJEvent, JEvent: ev}})
	require.NoError(t, err)
	require.Len(t, out.ReserveMirrors, 1)
	assert.Zero(t, out.ReserveMirrors[0].NewBalance.Cmp(big.NewInt(500)))

	out2, err := Process(reg, a, signer0, []Tx{{Type: TxJEvent, JEvent: ev}})
	require.NoError(t, err)
	assert.Empty(t, out2.ReserveMirrors, "duplicate j_event must be a no-op")
}

func TestProcessJEventCollateralUpdatedWritesDeltaDirectly(t *testing.T) {
	reg := newFakeRegistry()
	a := xlntypes.NumberedEntityID(1)
	b := xlntypes.NumberedEntityID(2)
	reg.add(a)

	ev := &JEventData{
		Kind:            JEventCollateralUpdated,
		BlockNumber:     11,
		TransactionHash: "0xdef",
		Counterparty:    b,
		TokenID:         token0,
		Collateral:      big.NewInt(1000),
		Ondelta:         big.NewInt(0),
	}
	out, err := Process(reg, a, signer0, []Tx{{Type: TxJEvent, JEvent: ev}})
	require.NoError(t, err)
	require.Len(t, out.CollateralMirrors, 1)
	assert.Zero(t, out.CollateralMirrors[0].Collateral.Cmp(big.NewInt(1000)))

	ra, _ := reg.Get(a, signer0)
	assert.Zero(t, ra.State.Accounts[b].Deltas[token0].Collateral.Cmp(big.NewInt(1000)))
}

func TestProcessNonProposerOnlyBuffers(t *testing.T) {
	reg := newFakeRegistry()
	a := xlntypes.NumberedEntityID(1)
	r := reg.add(a)
	r.IsProposer = false

	out, err := Process(reg, a, signer0, []Tx{{Type: TxOpenAccount, OpenAccount: &OpenAccountData{Target: xlntypes.NumberedEntityID(9)}}})
	require.NoError(t, err)
	assert.Empty(t, out.Outbound)
	assert.Len(t, r.Mempool, 1)
	assert.Equal(t, uint64(0), r.CurrentFrame.Height)
}

func TestProcessUnknownReplicaErrors(t *testing.T) {
	reg := newFakeRegistry()
	_, err := Process(reg, xlntypes.NumberedEntityID(42), signer0, nil)
	assert.Error(t, err)
}

func TestHandleAccountInputAckCommitsPendingFrame(t *testing.T) {
	reg := newFakeRegistry()
	a := xlntypes.NumberedEntityID(1)
	b := xlntypes.NumberedEntityID(2)
	ra := reg.add(a)
	reg.add(b)

	acctAB := ensureAccount(ra, b)
	acctAB.EnsureToken(token0)
	_, err := acctAB.SubmitLocal(accountmachine.TxAddPayment, token0, big.NewInt(1))
	require.NoError(t, err)
	_, err = acctAB.Propose()
	require.NoError(t, err)
	require.NotNil(t, acctAB.PendingFrame)

	out, err := Process(reg, a, signer0, []Tx{{
		Type: TxAccountInput,
		AccountInput: &AccountInputData{
			From: b,
			To:   a,
			Message: accountmachine.Message{
				Type:   accountmachine.MsgAck,
				Height: acctAB.PendingFrame.Height,
			},
		},
	}})
	require.NoError(t, err)
	assert.Empty(t, out.Errors)
	assert.Nil(t, acctAB.PendingFrame)
	assert.Equal(t, uint64(1), acctAB.CurrentFrame.Height)
}
