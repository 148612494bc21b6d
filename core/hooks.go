package core

import (
	"context"

	"github.com/holiman/uint256"
)

// IHooks callbacks a market runs before committing an operation.
//
// A hook vetoes by returning an error, which aborts the whole operation.
// state is a copy of the in-flight state, already advanced to the current time.
type IHooks interface {
	OnDeposit(ctx context.Context, market *Market, lender string, scaledAmount *uint256.Int, state MarketState) error
	OnQueueWithdrawal(ctx context.Context, market *Market, lender string, expiry uint32, scaledAmount *uint256.Int, state MarketState) error
	OnExecuteWithdrawal(ctx context.Context, market *Market, lender string, normalizedAmount *uint256.Int, state MarketState) error
	OnTransfer(ctx context.Context, market *Market, from, to string, scaledAmount *uint256.Int, state MarketState) error
	OnBorrow(ctx context.Context, market *Market, normalizedAmount *uint256.Int, state MarketState) error
	OnRepay(ctx context.Context, market *Market, normalizedAmount *uint256.Int, state MarketState) error
	OnCloseMarket(ctx context.Context, market *Market, state MarketState) error
	OnBlockAccount(ctx context.Context, market *Market, account string, state MarketState) error
	OnSetMaxTotalSupply(ctx context.Context, market *Market, maxTotalSupply *uint256.Int, state MarketState) error
	// OnSetAnnualInterestAndReserveRatioBips may rewrite the requested values
	OnSetAnnualInterestAndReserveRatioBips(ctx context.Context, market *Market, annualInterestBips, reserveRatioBips uint16, state MarketState) (uint16, uint16, error)
	OnSetProtocolFeeBips(ctx context.Context, market *Market, protocolFeeBips uint16, state MarketState) error
}
