package ledger

import (
	"time"

	"lending/core"
	"lending/pkg/number"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// MarketState persisted row of core.MarketState
type MarketState struct {
	ID                             uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT"`
	Market                         string          `sql:"size:36;unique_index:market_state_idx"`
	IsClosed                       bool
	MaxTotalSupply                 decimal.Decimal `sql:"type:decimal(65,0)"`
	AccruedProtocolFees            decimal.Decimal `sql:"type:decimal(65,0)"`
	NormalizedUnclaimedWithdrawals decimal.Decimal `sql:"type:decimal(65,0)"`
	ScaledTotalSupply              decimal.Decimal `sql:"type:decimal(65,0)"`
	ScaledPendingWithdrawals       decimal.Decimal `sql:"type:decimal(65,0)"`
	PendingWithdrawalExpiry        uint32
	IsDelinquent                   bool
	TimeDelinquent                 uint32
	ProtocolFeeBips                uint16
	AnnualInterestBips             uint16
	ReserveRatioBips               uint16
	ScaleFactor                    decimal.Decimal `sql:"type:decimal(65,0)"`
	LastInterestAccruedTimestamp   uint32
	Version                        int64 `sql:"default:0"`
	UpdatedAt                      time.Time
}

// MarketAccount persisted row of core.Account
type MarketAccount struct {
	ID            uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT"`
	Market        string          `sql:"size:36;unique_index:market_account_idx"`
	Address       string          `sql:"size:36;unique_index:market_account_idx"`
	ScaledBalance decimal.Decimal `sql:"type:decimal(65,0)"`
	UpdatedAt     time.Time
}

// WithdrawalBatch persisted row of core.WithdrawalBatch
type WithdrawalBatch struct {
	ID                   uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT"`
	Market               string          `sql:"size:36;unique_index:withdrawal_batch_idx"`
	Expiry               uint32          `sql:"unique_index:withdrawal_batch_idx"`
	ScaledTotalAmount    decimal.Decimal `sql:"type:decimal(65,0)"`
	ScaledAmountBurned   decimal.Decimal `sql:"type:decimal(65,0)"`
	NormalizedAmountPaid decimal.Decimal `sql:"type:decimal(65,0)"`
	UpdatedAt            time.Time
}

// WithdrawalStatus persisted row of core.AccountWithdrawalStatus
type WithdrawalStatus struct {
	ID                        uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT"`
	Market                    string          `sql:"size:36;unique_index:withdrawal_status_idx"`
	Expiry                    uint32          `sql:"unique_index:withdrawal_status_idx"`
	Account                   string          `sql:"size:36;unique_index:withdrawal_status_idx"`
	ScaledAmount              decimal.Decimal `sql:"type:decimal(65,0)"`
	NormalizedAmountWithdrawn decimal.Decimal `sql:"type:decimal(65,0)"`
	UpdatedAt                 time.Time
}

// UnpaidBatch one slot of a market's unpaid batch queue
type UnpaidBatch struct {
	ID       uint64 `sql:"PRIMARY_KEY;AUTO_INCREMENT"`
	Market   string `sql:"size:36;unique_index:unpaid_batch_idx"`
	Position uint64 `sql:"unique_index:unpaid_batch_idx"`
	Expiry   uint32
}

// decoder collects the first conversion error
type decoder struct {
	err error
}

func (d *decoder) set(dst *uint256.Int, v decimal.Decimal) {
	if d.err != nil {
		return
	}

	x, err := number.ToUint256(v)
	if err != nil {
		d.err = err
		return
	}

	dst.Set(x)
}

func fromState(market string, s *core.MarketState) *MarketState {
	return &MarketState{
		Market:                         market,
		IsClosed:                       s.IsClosed,
		MaxTotalSupply:                 number.FromUint256(&s.MaxTotalSupply),
		AccruedProtocolFees:            number.FromUint256(&s.AccruedProtocolFees),
		NormalizedUnclaimedWithdrawals: number.FromUint256(&s.NormalizedUnclaimedWithdrawals),
		ScaledTotalSupply:              number.FromUint256(&s.ScaledTotalSupply),
		ScaledPendingWithdrawals:       number.FromUint256(&s.ScaledPendingWithdrawals),
		PendingWithdrawalExpiry:        s.PendingWithdrawalExpiry,
		IsDelinquent:                   s.IsDelinquent,
		TimeDelinquent:                 s.TimeDelinquent,
		ProtocolFeeBips:                s.ProtocolFeeBips,
		AnnualInterestBips:             s.AnnualInterestBips,
		ReserveRatioBips:               s.ReserveRatioBips,
		ScaleFactor:                    number.FromUint256(&s.ScaleFactor),
		LastInterestAccruedTimestamp:   s.LastInterestAccruedTimestamp,
		Version:                        s.Version,
	}
}

// columns every column written by a state update, version excluded
func (r *MarketState) columns() map[string]interface{} {
	return map[string]interface{}{
		"is_closed":                        r.IsClosed,
		"max_total_supply":                 r.MaxTotalSupply,
		"accrued_protocol_fees":            r.AccruedProtocolFees,
		"normalized_unclaimed_withdrawals": r.NormalizedUnclaimedWithdrawals,
		"scaled_total_supply":              r.ScaledTotalSupply,
		"scaled_pending_withdrawals":       r.ScaledPendingWithdrawals,
		"pending_withdrawal_expiry":        r.PendingWithdrawalExpiry,
		"is_delinquent":                    r.IsDelinquent,
		"time_delinquent":                  r.TimeDelinquent,
		"protocol_fee_bips":                r.ProtocolFeeBips,
		"annual_interest_bips":             r.AnnualInterestBips,
		"reserve_ratio_bips":               r.ReserveRatioBips,
		"scale_factor":                     r.ScaleFactor,
		"last_interest_accrued_timestamp":  r.LastInterestAccruedTimestamp,
	}
}

func (r *MarketState) decode() (*core.MarketState, error) {
	s := &core.MarketState{
		IsClosed:                     r.IsClosed,
		PendingWithdrawalExpiry:      r.PendingWithdrawalExpiry,
		IsDelinquent:                 r.IsDelinquent,
		TimeDelinquent:               r.TimeDelinquent,
		ProtocolFeeBips:              r.ProtocolFeeBips,
		AnnualInterestBips:           r.AnnualInterestBips,
		ReserveRatioBips:             r.ReserveRatioBips,
		LastInterestAccruedTimestamp: r.LastInterestAccruedTimestamp,
		Version:                      r.Version,
	}

	var d decoder
	d.set(&s.MaxTotalSupply, r.MaxTotalSupply)
	d.set(&s.AccruedProtocolFees, r.AccruedProtocolFees)
	d.set(&s.NormalizedUnclaimedWithdrawals, r.NormalizedUnclaimedWithdrawals)
	d.set(&s.ScaledTotalSupply, r.ScaledTotalSupply)
	d.set(&s.ScaledPendingWithdrawals, r.ScaledPendingWithdrawals)
	d.set(&s.ScaleFactor, r.ScaleFactor)
	return s, d.err
}

func (r *MarketAccount) decode() (*core.Account, error) {
	a := &core.Account{Address: r.Address}
	var d decoder
	d.set(&a.ScaledBalance, r.ScaledBalance)
	return a, d.err
}

func (r *WithdrawalBatch) decode() (*core.WithdrawalBatch, error) {
	b := &core.WithdrawalBatch{Expiry: r.Expiry}
	var d decoder
	d.set(&b.ScaledTotalAmount, r.ScaledTotalAmount)
	d.set(&b.ScaledAmountBurned, r.ScaledAmountBurned)
	d.set(&b.NormalizedAmountPaid, r.NormalizedAmountPaid)
	return b, d.err
}

func (r *WithdrawalStatus) decode() (*core.AccountWithdrawalStatus, error) {
	st := &core.AccountWithdrawalStatus{Expiry: r.Expiry, Account: r.Account}
	var d decoder
	d.set(&st.ScaledAmount, r.ScaledAmount)
	d.set(&st.NormalizedAmountWithdrawn, r.NormalizedAmountWithdrawn)
	return st, d.err
}
