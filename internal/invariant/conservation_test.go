package invariant

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xln-finance/xln/internal/jurisdiction"
	"github.com/xln-finance/xln/internal/xlntypes"
)

func newJurisdiction() *jurisdiction.Machine {
	return jurisdiction.New(jurisdiction.Config{Name: "j1"})
}

func TestCheckJurisdictionPassesWhenEmpty(t *testing.T) {
	assert.NoError(t, CheckJurisdiction(newJurisdiction()))
}

func TestCheckJurisdictionPassesWhenReservesMatchCollateral(t *testing.T) {
	j := newJurisdiction()
	left := xlntypes.NumberedEntityID(1)
	right := xlntypes.NumberedEntityID(2)

	_, err := j.Advance(1000)
	require.NoError(t, err)

	j.Enqueue(jurisdiction.Tx{Type: jurisdiction.JTxReserveUpdate, ReserveUpdate: &jurisdiction.ReserveUpdateData{
		Entity: left, TokenID: 0, NewBalance: big.NewInt(100),
	}})
	_, err = j.Advance(2000)
	require.NoError(t, err)
	assert.Error(t, CheckJurisdiction(j), "reserves of 100 with no collateral yet must not balance")

	j.Enqueue(jurisdiction.Tx{Type: jurisdiction.JTxSettle, Settle: &jurisdiction.SettleData{
		Left: left, Right: right, TokenID: 0, Collateral: big.NewInt(100),
	}})
	_, err = j.Advance(3000)
	require.NoError(t, err)
	assert.NoError(t, CheckJurisdiction(j))
}

func TestCheckJurisdictionCountsPendingSettleInMempool(t *testing.T) {
	j := newJurisdiction()
	left := xlntypes.NumberedEntityID(1)
	right := xlntypes.NumberedEntityID(2)

	j.Enqueue(jurisdiction.Tx{Type: jurisdiction.JTxReserveUpdate, ReserveUpdate: &jurisdiction.ReserveUpdateData{
		Entity: left, TokenID: 0, NewBalance: big.NewInt(50),
	}})
	_, err := j.Advance(1000)
	require.NoError(t, err)

	j.Enqueue(jurisdiction.Tx{Type: jurisdiction.JTxSettle, Settle: &jurisdiction.SettleData{
		Left: left, Right: right, TokenID: 0, Collateral: big.NewInt(50),
	}})
	assert.NoError(t, CheckJurisdiction(j), "an unconfirmed settle in mempool must still count toward the total")
}

func TestCheckJurisdictionDetectsViolation(t *testing.T) {
	j := newJurisdiction()
	left := xlntypes.NumberedEntityID(1)
	right := xlntypes.NumberedEntityID(2)

	j.Enqueue(jurisdiction.Tx{Type: jurisdiction.JTxReserveUpdate, ReserveUpdate: &jurisdiction.ReserveUpdateData{
		Entity: left, TokenID: 0, NewBalance: big.NewInt(100),
	}})
	_, err := j.Advance(1000)
	require.NoError(t, err)

	j.Enqueue(jurisdiction.Tx{Type: jurisdiction.JTxSettle, Settle: &jurisdiction.SettleData{
		Left: left, Right: right, TokenID: 0, Collateral: big.NewInt(40),
	}})
	_, err = j.Advance(2000)
	require.NoError(t, err)

	assert.Error(t, CheckJurisdiction(j), "reserves of 100 backed by only 40 confirmed collateral must violate")
}
