package runtime

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xln-finance/xln/internal/accountmachine"
	"github.com/xln-finance/xln/internal/entitymachine"
	"github.com/xln-finance/xln/internal/environment"
	"github.com/xln-finance/xln/internal/jurisdiction"
	"github.com/xln-finance/xln/internal/xlntypes"
)

const token0 = xlntypes.TokenID(0)
const signerS = xlntypes.SignerID("s")

func newRuntime() *Runtime {
	return New(environment.New(), nil)
}

// TestMinimalMint reproduces spec §8 scenario S1: createXlnomy,
// importReplica, then a ReserveUpdated j_event, expecting the entity's
// reserve mirror to equal the minted balance after one advance.
func TestMinimalMint(t *testing.T) {
	rt := newRuntime()
	entity := xlntypes.NumberedEntityID(1)

	_, err := rt.ApplyRuntimeInput(environment.RuntimeInput{
		CreateXlnomy: []jurisdiction.Config{{Name: "j1", EvmType: "browservm", BlockDelay: time.Second}},
		ImportReplica: []environment.ImportReplicaInput{{
			EntityID:   entity,
			SignerID:   signerS,
			Config:     entitymachine.ReplicaConfig{Mode: "proposer-based", Threshold: 1, Validators: []xlntypes.SignerID{signerS}, Jurisdiction: "j1"},
			IsProposer: true,
		}},
	}, 0)
	require.NoError(t, err)
	require.Len(t, rt.Env.History, 1)

	j := rt.Env.Xlnomies["j1"]
	j.Enqueue(jurisdiction.Tx{
		Type: jurisdiction.JTxReserveUpdate,
		ReserveUpdate: &jurisdiction.ReserveUpdateData{
			Entity:     entity,
			TokenID:    token0,
			NewBalance: big.NewInt(1_000_000),
		},
	})

	result, err := rt.Tick(2000)
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Len(t, rt.Env.History, 2)

	assert.Zero(t, j.ReservesTotal(token0).Cmp(big.NewInt(1_000_000)))
	r, ok := rt.Env.Get(entity, signerS)
	require.True(t, ok)
	assert.Zero(t, r.State.Reserves[token0].Cmp(big.NewInt(1_000_000)))
}

// TestOpenAccountAndDirectPayment reproduces spec §8 scenario S2.
func TestOpenAccountAndDirectPayment(t *testing.T) {
	rt := newRuntime()
	a := xlntypes.NumberedEntityID(1)
	b := xlntypes.NumberedEntityID(2)
	signerA := xlntypes.SignerID("sa")
	signerB := xlntypes.SignerID("sb")

	_, err := rt.ApplyRuntimeInput(environment.RuntimeInput{
		CreateXlnomy: []jurisdiction.Config{{Name: "j1", EvmType: "browservm"}},
		ImportReplica: []environment.ImportReplicaInput{
			{EntityID: a, SignerID: signerA, Config: entitymachine.ReplicaConfig{Jurisdiction: "j1"}, IsProposer: true},
			{EntityID: b, SignerID: signerB, Config: entitymachine.ReplicaConfig{Jurisdiction: "j1"}, IsProposer: true},
		},
	}, 0)
	require.NoError(t, err)

	j := rt.Env.Xlnomies["j1"]
	j.Enqueue(jurisdiction.Tx{Type: jurisdiction.JTxReserveUpdate, ReserveUpdate: &jurisdiction.ReserveUpdateData{Entity: a, TokenID: token0, NewBalance: big.NewInt(1_000_000)}})
	j.Enqueue(jurisdiction.Tx{Type: jurisdiction.JTxReserveUpdate, ReserveUpdate: &jurisdiction.ReserveUpdateData{Entity: b, TokenID: token0, NewBalance: big.NewInt(1_000_000)}})
	_, err = rt.Tick(1000)
	require.NoError(t, err)

	ra, _ := rt.Env.Get(a, signerA)
	rb, _ := rt.Env.Get(b, signerB)
	aIsLeft := xlntypes.IsLeft(a, b)
	acctAB := accountmachine.New(b, aIsLeft)
	acctBA := accountmachine.New(a, !aIsLeft)
	ra.State.Accounts[b] = acctAB
	rb.State.Accounts[a] = acctBA
	acctAB.EnsureToken(token0)
	acctBA.EnsureToken(token0)
	// Credit limits must be mirrored identically on both sides: hashDeltas
	// hashes the full Delta including both limit fields, so a one-sided
	// write here would make ApplyRemotePropose reject the payment's PROPOSE
	// frame with FrameHashMismatch once it reaches b.
	if aIsLeft {
		acctAB.Deltas[token0].RightCreditLimit = big.NewInt(1_000_000)
		acctBA.Deltas[token0].RightCreditLimit = big.NewInt(1_000_000)
	} else {
		acctAB.Deltas[token0].LeftCreditLimit = big.NewInt(1_000_000)
		acctBA.Deltas[token0].LeftCreditLimit = big.NewInt(1_000_000)
	}

	result, err := rt.Process([]environment.EntityInput{{
		EntityID: a,
		SignerID: signerA,
		Txs: []entitymachine.Tx{{
			Type: entitymachine.TxDirectPayment,
			DirectPayment: &entitymachine.DirectPaymentData{
				Target:  b,
				TokenID: token0,
				Amount:  big.NewInt(500_000),
				Route:   []xlntypes.EntityID{b},
			},
		}},
	}}, 2000)
	require.NoError(t, err)
	assert.Empty(t, result.Errors)

	viewA := acctAB.Derive(token0)
	viewB := acctBA.Derive(token0)
	assert.Zero(t, viewA.Delta.Cmp(big.NewInt(-500_000)))
	assert.Zero(t, viewB.Delta.Cmp(big.NewInt(500_000)))
	assert.Zero(t, ra.State.Reserves[token0].Cmp(big.NewInt(1_000_000)))
}

func TestEmptyTickAppendsSnapshot(t *testing.T) {
	rt := newRuntime()
	_, err := rt.ApplyRuntimeInput(environment.RuntimeInput{
		CreateXlnomy: []jurisdiction.Config{{Name: "j1"}},
	}, 0)
	require.NoError(t, err)
	before := len(rt.Env.History)

	_, err = rt.Tick(0)
	require.NoError(t, err)
	assert.Equal(t, before+1, len(rt.Env.History), "a tick always appends a snapshot, even when nothing changed")
}

// TestStrictConservationRollsBackViolatingTick verifies spec §7/§8
// invariant 1's abort-and-discard behaviour: a reserveUpdate mint with
// no matching settle violates conservation once StrictConservation is
// on, and the tick must leave no trace in history.
func TestStrictConservationRollsBackViolatingTick(t *testing.T) {
	rt := newRuntime()
	rt.StrictConservation = true
	entity := xlntypes.NumberedEntityID(1)

	_, err := rt.ApplyRuntimeInput(environment.RuntimeInput{
		CreateXlnomy: []jurisdiction.Config{{Name: "j1"}},
	}, 0)
	require.NoError(t, err)
	historyBefore := len(rt.Env.History)

	j := rt.Env.Xlnomies["j1"]
	j.Enqueue(jurisdiction.Tx{Type: jurisdiction.JTxReserveUpdate, ReserveUpdate: &jurisdiction.ReserveUpdateData{
		Entity: entity, TokenID: token0, NewBalance: big.NewInt(1_000_000),
	}})

	_, err = rt.Tick(1000)
	assert.Error(t, err, "an unsettled mint must violate reserves == confirmedCollateral + pendingCollateral")
	assert.Equal(t, historyBefore, len(rt.Env.History), "a violating tick must not append a snapshot")

	rolledBack := rt.Env.Xlnomies["j1"]
	assert.Zero(t, rolledBack.ReservesTotal(token0).Sign(), "the mint itself must be rolled back along with everything else this tick did")
}

func TestJurisdictionBlockProgression(t *testing.T) {
	rt := newRuntime()
	entity := xlntypes.NumberedEntityID(1)
	_, err := rt.ApplyRuntimeInput(environment.RuntimeInput{
		CreateXlnomy: []jurisdiction.Config{{Name: "j1", BlockDelay: 100 * time.Millisecond}},
		ImportReplica: []environment.ImportReplicaInput{{
			EntityID: entity, SignerID: signerS, Config: entitymachine.ReplicaConfig{Jurisdiction: "j1"}, IsProposer: true,
		}},
	}, 0)
	require.NoError(t, err)

	j := rt.Env.Xlnomies["j1"]
	for i := 0; i < 3; i++ {
		j.Enqueue(jurisdiction.Tx{
			Type:            jurisdiction.JTxReserveUpdate,
			TransactionHash: string(rune('a' + i)),
			ReserveUpdate:   &jurisdiction.ReserveUpdateData{Entity: entity, TokenID: token0, NewBalance: big.NewInt(int64(i))},
		})
	}

	result, err := rt.Tick(1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), j.BlockNumber)
	assert.Empty(t, j.Mempool)
	assert.Len(t, result.JurisdictionEvents, 3)
}
