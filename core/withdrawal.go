package core

import (
	"lending/pkg/ray"

	"github.com/holiman/uint256"
)

// WithdrawalBatch withdrawals queued under the same expiry
type WithdrawalBatch struct {
	Expiry               uint32      `json:"expiry"`
	ScaledTotalAmount    uint256.Int `json:"scaled_total_amount"`
	ScaledAmountBurned   uint256.Int `json:"scaled_amount_burned"`
	NormalizedAmountPaid uint256.Int `json:"normalized_amount_paid"`
}

// ScaledOwedAmount scaled amount not yet burned
func (b *WithdrawalBatch) ScaledOwedAmount() *uint256.Int {
	return ray.Sub(&b.ScaledTotalAmount, &b.ScaledAmountBurned)
}

// IsClosed every queued amount has been paid
func (b *WithdrawalBatch) IsClosed() bool {
	return b.ScaledAmountBurned.Eq(&b.ScaledTotalAmount)
}

// CheckBounds panics when a field no longer fits its width
func (b *WithdrawalBatch) CheckBounds() {
	ray.CheckBits(&b.ScaledTotalAmount, 104, "scaled_total_amount")
	ray.CheckBits(&b.ScaledAmountBurned, 104, "scaled_amount_burned")
	ray.CheckBits(&b.NormalizedAmountPaid, 128, "normalized_amount_paid")
}

// AccountWithdrawalStatus a lender's share of one batch
type AccountWithdrawalStatus struct {
	Expiry                    uint32      `json:"expiry"`
	Account                   string      `json:"account"`
	ScaledAmount              uint256.Int `json:"scaled_amount"`
	NormalizedAmountWithdrawn uint256.Int `json:"normalized_amount_withdrawn"`
}

// CheckBounds panics when a field no longer fits its width
func (s *AccountWithdrawalStatus) CheckBounds() {
	ray.CheckBits(&s.ScaledAmount, 104, "scaled_amount")
	ray.CheckBits(&s.NormalizedAmountWithdrawn, 128, "normalized_amount_withdrawn")
}
