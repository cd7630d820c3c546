package jurisdiction

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xln-finance/xln/internal/xlntypes"
)

const token0 = xlntypes.TokenID(0)

func newMachine() *Machine {
	return New(Config{Name: "j1", BlockDelay: 100 * time.Millisecond})
}

func TestAdvanceWithEmptyMempoolIsNoop(t *testing.T) {
	m := newMachine()
	events, err := m.Advance(0)
	require.NoError(t, err)
	assert.Nil(t, events)
	assert.Equal(t, uint64(0), m.BlockNumber)
}

func TestAdvanceAppliesReserveUpdateAndIncrementsBlockByOne(t *testing.T) {
	m := newMachine()
	entity := xlntypes.NumberedEntityID(1)

	for i := 0; i < 3; i++ {
		m.Enqueue(Tx{
			Type:            JTxReserveUpdate,
			TransactionHash: "0xhash" + string(rune('0'+i)),
			ReserveUpdate: &ReserveUpdateData{
				Entity:     entity,
				TokenID:    token0,
				NewBalance: big.NewInt(int64((i + 1) * 1000)),
			},
		})
	}

	events, err := m.Advance(1000)
	require.NoError(t, err)
	assert.Len(t, events, 3)
	assert.Equal(t, uint64(1), m.BlockNumber)
	assert.Empty(t, m.Mempool)
	// FIFO: the last enqueued reserveUpdate wins as the absolute balance.
	assert.Zero(t, m.ReservesTotal(token0).Cmp(big.NewInt(3000)))
	for i, ev := range events {
		assert.Equal(t, uint64(1), ev.BlockNumber)
		assert.Equal(t, entity, ev.TargetEntity)
		assert.Zero(t, ev.NewBalance.Cmp(big.NewInt(int64((i+1)*1000))))
	}
}

func TestAdvanceRejectsWholeBlockOnInvalidJTx(t *testing.T) {
	m := newMachine()
	entity := xlntypes.NumberedEntityID(1)
	m.Enqueue(Tx{
		Type: JTxReserveUpdate,
		ReserveUpdate: &ReserveUpdateData{
			Entity:     entity,
			TokenID:    token0,
			NewBalance: big.NewInt(500),
		},
	})
	m.Enqueue(Tx{
		Type: JTxReserveUpdate,
		ReserveUpdate: &ReserveUpdateData{
			Entity:     entity,
			TokenID:    token0,
			NewBalance: big.NewInt(-1),
		},
	})

	_, err := m.Advance(0)
	require.Error(t, err)
	assert.Equal(t, uint64(0), m.BlockNumber)
	assert.Len(t, m.Mempool, 2, "mempool must not be cleared on rejection")
}

func TestSettleEmitsEventsToBothSidesAndUpdatesConfirmedCollateral(t *testing.T) {
	m := newMachine()
	a := xlntypes.NumberedEntityID(1)
	b := xlntypes.NumberedEntityID(2)

	m.Enqueue(Tx{
		Type: JTxSettle,
		Settle: &SettleData{
			Left:       a,
			Right:      b,
			TokenID:    token0,
			Collateral: big.NewInt(100),
			Ondelta:    big.NewInt(0),
		},
	})
	events, err := m.Advance(0)
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Zero(t, m.ConfirmedCollateralTotal(token0).Cmp(big.NewInt(100)))
}

func TestShouldAutoAdvanceRespectsBlockDelay(t *testing.T) {
	m := newMachine()
	var nowMs int64 = 50
	assert.False(t, m.ShouldAutoAdvance(nowMs), "empty mempool never advances")

	m.Enqueue(Tx{Type: JTxReserveUpdate, ReserveUpdate: &ReserveUpdateData{
		Entity: xlntypes.NumberedEntityID(1), TokenID: token0, NewBalance: big.NewInt(1),
	}})
	assert.False(t, m.ShouldAutoAdvance(nowMs), "delay has not elapsed")
	assert.True(t, m.ShouldAutoAdvance(nowMs+200))
}
