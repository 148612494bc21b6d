package lending

import (
	"lending/core"
	"lending/pkg/ray"

	"github.com/holiman/uint256"
)

// AvailableLiquidityForPendingBatch liquidity the pending batch can take:
// total assets minus unclaimed withdrawals, protocol fees and the amounts
// owed to every earlier unpaid batch.
func AvailableLiquidityForPendingBatch(batch *core.WithdrawalBatch, state *core.MarketState, totalAssets *uint256.Int) *uint256.Int {
	priorScaledAmountPending := ray.Sub(&state.ScaledPendingWithdrawals, batch.ScaledOwedAmount())
	unavailableAssets := ray.Add(
		ray.Add(&state.NormalizedUnclaimedWithdrawals, state.NormalizeAmount(priorScaledAmountPending)),
		&state.AccruedProtocolFees,
	)
	return ray.SatSub(totalAssets, unavailableAssets)
}

// ApplyWithdrawalBatchPayment burns as much of the batch as availableLiquidity
// covers and moves the paid amount to unclaimed withdrawals.
//
// The paid amount is floored so settling every batch never needs more than
// the normalized supply being burned.
func ApplyWithdrawalBatchPayment(batch *core.WithdrawalBatch, state *core.MarketState, availableLiquidity *uint256.Int) (scaledAmountBurned, normalizedAmountPaid *uint256.Int) {
	scaledAmountOwed := batch.ScaledOwedAmount()
	if scaledAmountOwed.IsZero() {
		return ray.Zero(), ray.Zero()
	}

	scaledAvailableLiquidity := state.ScaleAmount(availableLiquidity)
	scaledAmountBurned = ray.Min(scaledAvailableLiquidity, scaledAmountOwed)
	if scaledAmountBurned.IsZero() {
		return ray.Zero(), ray.Zero()
	}

	normalizedAmountPaid = ray.MulDiv(scaledAmountBurned, &state.ScaleFactor, ray.RAY)

	batch.ScaledAmountBurned = *ray.Add(&batch.ScaledAmountBurned, scaledAmountBurned)
	batch.NormalizedAmountPaid = *ray.Add(&batch.NormalizedAmountPaid, normalizedAmountPaid)

	state.ScaledPendingWithdrawals = *ray.Sub(&state.ScaledPendingWithdrawals, scaledAmountBurned)
	state.NormalizedUnclaimedWithdrawals = *ray.Add(&state.NormalizedUnclaimedWithdrawals, normalizedAmountPaid)
	state.ScaledTotalSupply = *ray.Sub(&state.ScaledTotalSupply, scaledAmountBurned)

	return scaledAmountBurned, normalizedAmountPaid
}

// AccountShareOfBatch pro-rata share of the batch payments owed to status,
// and the part of it not yet withdrawn
func AccountShareOfBatch(batch *core.WithdrawalBatch, status *core.AccountWithdrawalStatus) (newTotalWithdrawn, amount *uint256.Int) {
	if batch.ScaledTotalAmount.IsZero() {
		return status.NormalizedAmountWithdrawn.Clone(), ray.Zero()
	}

	newTotalWithdrawn = ray.MulDiv(&batch.NormalizedAmountPaid, &status.ScaledAmount, &batch.ScaledTotalAmount)
	return newTotalWithdrawn, ray.SatSub(newTotalWithdrawn, &status.NormalizedAmountWithdrawn)
}
