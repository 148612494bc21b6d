package core

import (
	"context"

	"lending/pkg/fifo"
)

// MarketChangeset every write produced by one market operation.
// A ledger applies it all or nothing.
type MarketChangeset struct {
	Market string
	// Opening is set by the operation that opens the market
	Opening   *Market
	State     *MarketState
	Accounts  []*Account
	Batches   []*WithdrawalBatch
	Statuses  []*AccountWithdrawalStatus
	Unpaid    *fifo.Queue[uint32] // nil when the unpaid queue was not touched
	Transfers []*Transfer
	Escrows   []*Escrow
	Events    []*Event
}

// IMarketLedger persisted accounting records of all markets.
//
// Reads of accounts, batches and statuses that were never written return
// zero records, never an error.
type IMarketLedger interface {
	State(ctx context.Context, market string) (*MarketState, error)
	Account(ctx context.Context, market, address string) (*Account, error)
	Accounts(ctx context.Context, market string) ([]*Account, error)
	WithdrawalBatch(ctx context.Context, market string, expiry uint32) (*WithdrawalBatch, error)
	AccountWithdrawalStatus(ctx context.Context, market string, expiry uint32, account string) (*AccountWithdrawalStatus, error)
	UnpaidBatches(ctx context.Context, market string) (*fifo.Queue[uint32], error)
	Commit(ctx context.Context, cs *MarketChangeset) error
}
