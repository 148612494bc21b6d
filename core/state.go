package core

import (
	"lending/pkg/ray"

	"github.com/holiman/uint256"
)

// MarketState the single mutable accounting record of a market.
//
// Amounts prefixed with Scaled are internal units that grow into normalized
// (face value) amounts through ScaleFactor.
type MarketState struct {
	IsClosed                       bool        `json:"is_closed"`
	MaxTotalSupply                 uint256.Int `json:"max_total_supply"`
	AccruedProtocolFees            uint256.Int `json:"accrued_protocol_fees"`
	NormalizedUnclaimedWithdrawals uint256.Int `json:"normalized_unclaimed_withdrawals"`
	ScaledTotalSupply              uint256.Int `json:"scaled_total_supply"`
	ScaledPendingWithdrawals       uint256.Int `json:"scaled_pending_withdrawals"`
	PendingWithdrawalExpiry        uint32      `json:"pending_withdrawal_expiry"`
	IsDelinquent                   bool        `json:"is_delinquent"`
	TimeDelinquent                 uint32      `json:"time_delinquent"`
	ProtocolFeeBips                uint16      `json:"protocol_fee_bips"`
	AnnualInterestBips             uint16      `json:"annual_interest_bips"`
	ReserveRatioBips               uint16      `json:"reserve_ratio_bips"`
	ScaleFactor                    uint256.Int `json:"scale_factor"`
	LastInterestAccruedTimestamp   uint32      `json:"last_interest_accrued_timestamp"`
	// Version bumps on every commit, a commit made from an older version fails
	Version int64 `json:"version"`
}

// NewMarketState initial state of a freshly opened market
func NewMarketState(params MarketParameters, now uint32) MarketState {
	state := MarketState{
		ProtocolFeeBips:              params.ProtocolFeeBips,
		AnnualInterestBips:           params.AnnualInterestBips,
		ReserveRatioBips:             params.ReserveRatioBips,
		LastInterestAccruedTimestamp: now,
	}
	state.MaxTotalSupply.Set(&params.MaxTotalSupply)
	state.ScaleFactor.Set(ray.RAY)
	return state
}

// NormalizeAmount scaled -> normalized, half-up
func (s *MarketState) NormalizeAmount(amount *uint256.Int) *uint256.Int {
	return ray.RayMul(amount, &s.ScaleFactor)
}

// ScaleAmount normalized -> scaled, half-up
func (s *MarketState) ScaleAmount(amount *uint256.Int) *uint256.Int {
	return ray.RayDiv(amount, &s.ScaleFactor)
}

// TotalSupply normalized value of all outstanding market tokens
func (s *MarketState) TotalSupply() *uint256.Int {
	return s.NormalizeAmount(&s.ScaledTotalSupply)
}

// MaximumDeposit room left under the supply ceiling
func (s *MarketState) MaximumDeposit() *uint256.Int {
	return ray.SatSub(&s.MaxTotalSupply, s.TotalSupply())
}

// LiquidityRequired assets the market has to hold to avoid delinquency:
// reserves on the non-withdrawing supply, every pending withdrawal in full,
// unclaimed withdrawals and protocol fees.
func (s *MarketState) LiquidityRequired() *uint256.Int {
	scaledWithdrawals := &s.ScaledPendingWithdrawals
	scaledRequiredReserves := ray.Add(
		ray.BipMul(ray.Sub(&s.ScaledTotalSupply, scaledWithdrawals), s.ReserveRatioBips),
		scaledWithdrawals,
	)
	return ray.Add(
		ray.Add(s.NormalizeAmount(scaledRequiredReserves), &s.AccruedProtocolFees),
		&s.NormalizedUnclaimedWithdrawals,
	)
}

// WithdrawableProtocolFees fees that can leave the market without touching
// assets reserved for unclaimed withdrawals
func (s *MarketState) WithdrawableProtocolFees(totalAssets *uint256.Int) *uint256.Int {
	available := ray.SatSub(totalAssets, &s.NormalizedUnclaimedWithdrawals)
	return ray.Min(available, &s.AccruedProtocolFees)
}

// BorrowableAssets assets above the required liquidity
func (s *MarketState) BorrowableAssets(totalAssets *uint256.Int) *uint256.Int {
	return ray.SatSub(totalAssets, s.LiquidityRequired())
}

// TotalDebts everything the borrower owes lenders and the protocol
func (s *MarketState) TotalDebts() *uint256.Int {
	return ray.Add(
		ray.Add(s.NormalizeAmount(&s.ScaledTotalSupply), &s.NormalizedUnclaimedWithdrawals),
		&s.AccruedProtocolFees,
	)
}

// HasPendingExpiredBatch whether the open batch has reached its expiry at now
func (s *MarketState) HasPendingExpiredBatch(now uint32) bool {
	return s.PendingWithdrawalExpiry != 0 && s.PendingWithdrawalExpiry <= now
}

// CheckBounds panics with ray.OverflowError when a field exceeds its width
func (s *MarketState) CheckBounds() {
	ray.CheckBits(&s.MaxTotalSupply, 128, "max_total_supply")
	ray.CheckBits(&s.AccruedProtocolFees, 128, "accrued_protocol_fees")
	ray.CheckBits(&s.NormalizedUnclaimedWithdrawals, 128, "normalized_unclaimed_withdrawals")
	ray.CheckBits(&s.ScaledTotalSupply, 104, "scaled_total_supply")
	ray.CheckBits(&s.ScaledPendingWithdrawals, 104, "scaled_pending_withdrawals")
	ray.CheckBits(&s.ScaleFactor, 112, "scale_factor")
}
