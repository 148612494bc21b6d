package lending

import (
	"testing"

	"lending/core"
	"lending/pkg/ray"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func newState(scaleFactor string) core.MarketState {
	var state core.MarketState
	state.ScaleFactor.Set(uint256.MustFromDecimal(scaleFactor))
	return state
}

func TestAvailableLiquidityForPendingBatch(t *testing.T) {
	state := newState("1000000000000000000000000000")
	state.ScaledTotalSupply.SetUint64(1000)
	state.ScaledPendingWithdrawals.SetUint64(600)
	state.NormalizedUnclaimedWithdrawals.SetUint64(50)
	state.AccruedProtocolFees.SetUint64(10)

	var batch core.WithdrawalBatch
	batch.ScaledTotalAmount.SetUint64(400)

	// 200 scaled are owed to earlier batches
	available := AvailableLiquidityForPendingBatch(&batch, &state, ray.New(500))
	assert.Equal(t, uint64(240), available.Uint64())

	// never negative
	available = AvailableLiquidityForPendingBatch(&batch, &state, ray.New(100))
	assert.True(t, available.IsZero())
}

func TestApplyWithdrawalBatchPayment(t *testing.T) {
	state := newState("1000000000000000000000000000")
	state.ScaledTotalSupply.SetUint64(1000)
	state.ScaledPendingWithdrawals.SetUint64(600)
	state.NormalizedUnclaimedWithdrawals.SetUint64(50)

	var batch core.WithdrawalBatch
	batch.ScaledTotalAmount.SetUint64(400)

	burned, paid := ApplyWithdrawalBatchPayment(&batch, &state, ray.New(240))
	assert.Equal(t, uint64(240), burned.Uint64())
	assert.Equal(t, uint64(240), paid.Uint64())

	assert.Equal(t, uint64(240), batch.ScaledAmountBurned.Uint64())
	assert.Equal(t, uint64(240), batch.NormalizedAmountPaid.Uint64())
	assert.Equal(t, uint64(360), state.ScaledPendingWithdrawals.Uint64())
	assert.Equal(t, uint64(290), state.NormalizedUnclaimedWithdrawals.Uint64())
	assert.Equal(t, uint64(760), state.ScaledTotalSupply.Uint64())
	assert.False(t, batch.IsClosed())

	// the rest of the batch, capped at the owed amount
	burned, paid = ApplyWithdrawalBatchPayment(&batch, &state, ray.New(1_000_000))
	assert.Equal(t, uint64(160), burned.Uint64())
	assert.Equal(t, uint64(160), paid.Uint64())
	assert.True(t, batch.IsClosed())

	// closed batches take nothing
	burned, paid = ApplyWithdrawalBatchPayment(&batch, &state, ray.New(1_000_000))
	assert.True(t, burned.IsZero())
	assert.True(t, paid.IsZero())
}

func TestApplyWithdrawalBatchPaymentRoundsPaidDown(t *testing.T) {
	state := newState("1500000000000000000000000000")
	state.ScaledTotalSupply.SetUint64(3)
	state.ScaledPendingWithdrawals.SetUint64(3)

	var batch core.WithdrawalBatch
	batch.ScaledTotalAmount.SetUint64(3)

	// normalize(3) rounds 4.5 up to 5, the payment floors it
	assert.Equal(t, uint64(5), state.NormalizeAmount(ray.New(3)).Uint64())

	burned, paid := ApplyWithdrawalBatchPayment(&batch, &state, state.NormalizeAmount(ray.New(3)))
	assert.Equal(t, uint64(3), burned.Uint64())
	assert.Equal(t, uint64(4), paid.Uint64())
	assert.True(t, state.ScaledPendingWithdrawals.IsZero())
	assert.True(t, state.ScaledTotalSupply.IsZero())
}

func TestAccountShareOfBatch(t *testing.T) {
	var batch core.WithdrawalBatch
	batch.ScaledTotalAmount.SetUint64(300)
	batch.NormalizedAmountPaid.SetUint64(100)

	var status core.AccountWithdrawalStatus
	status.ScaledAmount.SetUint64(100)
	status.NormalizedAmountWithdrawn.SetUint64(10)

	total, amount := AccountShareOfBatch(&batch, &status)
	assert.Equal(t, uint64(33), total.Uint64())
	assert.Equal(t, uint64(23), amount.Uint64())

	total, amount = AccountShareOfBatch(&core.WithdrawalBatch{}, &core.AccountWithdrawalStatus{})
	assert.True(t, total.IsZero())
	assert.True(t, amount.IsZero())
}
