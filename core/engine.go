package core

import (
	"context"

	"github.com/holiman/uint256"
)

// MarketSummary aggregate figures of a market as of Timestamp
type MarketSummary struct {
	Timestamp                uint32      `json:"timestamp"`
	State                    MarketState `json:"state"`
	TotalAssets              uint256.Int `json:"total_assets"`
	TotalSupply              uint256.Int `json:"total_supply"`
	TotalDebts               uint256.Int `json:"total_debts"`
	MaximumDeposit           uint256.Int `json:"maximum_deposit"`
	BorrowableAssets         uint256.Int `json:"borrowable_assets"`
	OutstandingDebt          uint256.Int `json:"outstanding_debt"`
	DelinquentDebt           uint256.Int `json:"delinquent_debt"`
	CoverageLiquidity        uint256.Int `json:"coverage_liquidity"`
	WithdrawableProtocolFees uint256.Int `json:"withdrawable_protocol_fees"`
}

// IMarketEngine operations of one market. Calls into the same market are
// serialized; a call made from inside one of its own hooks fails with
// ErrReentrantCall.
type IMarketEngine interface {
	Market() *Market

	// lenders
	Deposit(ctx context.Context, lender string, amount *uint256.Int) error
	DepositUpTo(ctx context.Context, lender string, amount *uint256.Int) (*uint256.Int, error)
	Transfer(ctx context.Context, from, to string, amount *uint256.Int) error
	QueueWithdrawal(ctx context.Context, lender string, amount *uint256.Int) (uint32, error)
	QueueFullWithdrawal(ctx context.Context, lender string) (uint32, error)
	ExecuteWithdrawal(ctx context.Context, account string, expiry uint32) (*uint256.Int, error)
	ExecuteWithdrawals(ctx context.Context, accounts []string, expiries []uint32) ([]*uint256.Int, error)

	// borrower
	Borrow(ctx context.Context, caller string, amount *uint256.Int) error
	Repay(ctx context.Context, caller string, amount *uint256.Int) error
	RepayAndProcessUnpaidWithdrawalBatches(ctx context.Context, caller string, amount *uint256.Int, maxBatches int) error
	CloseMarket(ctx context.Context, caller string) error
	SetMaxTotalSupply(ctx context.Context, caller string, maxTotalSupply *uint256.Int) error
	SetAnnualInterestAndReserveRatioBips(ctx context.Context, caller string, annualInterestBips, reserveRatioBips uint16) error

	// anyone
	ProcessUnpaidWithdrawalBatches(ctx context.Context, maxBatches int) error
	CollectFees(ctx context.Context) (*uint256.Int, error)
	BlockSanctionedAccount(ctx context.Context, account string) error
	UpdateState(ctx context.Context) error

	// admin
	SetProtocolFeeBips(ctx context.Context, protocolFeeBips uint16) error

	// views, never persisted
	CurrentState(ctx context.Context) (*MarketState, error)
	Summary(ctx context.Context) (*MarketSummary, error)
	BalanceOf(ctx context.Context, account string) (*uint256.Int, error)
	ScaledBalanceOf(ctx context.Context, account string) (*uint256.Int, error)
	WithdrawalBatch(ctx context.Context, expiry uint32) (*WithdrawalBatch, error)
	AccountWithdrawalStatus(ctx context.Context, account string, expiry uint32) (*AccountWithdrawalStatus, error)
	AvailableWithdrawalAmount(ctx context.Context, account string, expiry uint32) (*uint256.Int, error)
	UnpaidBatchExpiries(ctx context.Context) ([]uint32, error)
}
