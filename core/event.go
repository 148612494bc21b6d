package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/jmoiron/sqlx/types"
)

// event names
const (
	EventInterestAndFeesAccrued                  = "InterestAndFeesAccrued"
	EventWithdrawalBatchCreated                  = "WithdrawalBatchCreated"
	EventWithdrawalQueued                        = "WithdrawalQueued"
	EventWithdrawalBatchPayment                  = "WithdrawalBatchPayment"
	EventWithdrawalBatchExpired                  = "WithdrawalBatchExpired"
	EventWithdrawalBatchClosed                   = "WithdrawalBatchClosed"
	EventWithdrawalExecuted                      = "WithdrawalExecuted"
	EventSanctionedAccountWithdrawalSentToEscrow = "SanctionedAccountWithdrawalSentToEscrow"
	EventDeposit                                 = "Deposit"
	EventTransfer                                = "Transfer"
	EventBorrow                                  = "Borrow"
	EventDebtRepaid                              = "DebtRepaid"
	EventFeesCollected                           = "FeesCollected"
	EventMarketClosed                            = "MarketClosed"
	EventStateUpdated                            = "StateUpdated"
	EventMaxTotalSupplyUpdated                   = "MaxTotalSupplyUpdated"
	EventAnnualInterestBipsUpdated               = "AnnualInterestBipsUpdated"
	EventReserveRatioBipsUpdated                 = "ReserveRatioBipsUpdated"
	EventProtocolFeeBipsUpdated                  = "ProtocolFeeBipsUpdated"
	EventAccountSanctioned                       = "AccountSanctioned"
)

// Event domain event emitted by a market operation
type Event struct {
	ID        uint64         `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	TraceID   string         `sql:"size:36;unique_index:event_trace_idx" json:"trace_id"`
	Market    string         `sql:"size:36;index:event_market_idx" json:"market"`
	Name      string         `sql:"size:64" json:"name"`
	Data      types.JSONText `sql:"type:json" json:"data"`
	Timestamp uint32         `json:"timestamp"`
	CreatedAt time.Time      `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// IEventStore event store interface
type IEventStore interface {
	Save(ctx context.Context, tx *db.DB, events []*Event) error
	List(ctx context.Context, market string, from uint64, limit int) ([]*Event, error)
}
