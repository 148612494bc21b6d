package views

import (
	"time"

	"lending/core"
	"lending/pkg/number"

	"github.com/shopspring/decimal"
)

// Market market view
type Market struct {
	Address                 string           `json:"address"`
	Name                    string           `json:"name"`
	Symbol                  string           `json:"symbol"`
	AssetID                 string           `json:"asset_id"`
	AssetSymbol             string           `json:"asset_symbol"`
	Decimals                uint8            `json:"decimals"`
	Borrower                string           `json:"borrower"`
	FeeRecipient            string           `json:"fee_recipient"`
	DelinquencyFeeBips      uint16           `json:"delinquency_fee_bips"`
	DelinquencyGracePeriod  uint32           `json:"delinquency_grace_period"`
	WithdrawalBatchDuration uint32           `json:"withdrawal_batch_duration"`
	Hooks                   core.HooksConfig `json:"hooks"`
	CreatedAt               time.Time        `json:"created_at"`
}

// MarketView render market with its asset
func MarketView(m *core.Market, asset *core.Asset) Market {
	hooks, _ := m.HooksConfig()
	return Market{
		Address:                 m.Address,
		Name:                    m.Name,
		Symbol:                  m.Symbol,
		AssetID:                 m.AssetID,
		AssetSymbol:             asset.Symbol,
		Decimals:                asset.Decimals,
		Borrower:                m.Borrower,
		FeeRecipient:            m.FeeRecipient,
		DelinquencyFeeBips:      m.DelinquencyFeeBips,
		DelinquencyGracePeriod:  m.DelinquencyGracePeriod,
		WithdrawalBatchDuration: m.WithdrawalBatchDuration,
		Hooks:                   hooks,
		CreatedAt:               m.CreatedAt,
	}
}

// Summary amounts are in asset units, scaled amounts stay raw
type Summary struct {
	Market                   string          `json:"market"`
	Timestamp                uint32          `json:"timestamp"`
	IsClosed                 bool            `json:"is_closed"`
	IsDelinquent             bool            `json:"is_delinquent"`
	TimeDelinquent           uint32          `json:"time_delinquent"`
	AnnualInterestBips       uint16          `json:"annual_interest_bips"`
	ReserveRatioBips         uint16          `json:"reserve_ratio_bips"`
	ProtocolFeeBips          uint16          `json:"protocol_fee_bips"`
	ScaleFactor              string          `json:"scale_factor"`
	ScaledTotalSupply        string          `json:"scaled_total_supply"`
	ScaledPendingWithdrawals string          `json:"scaled_pending_withdrawals"`
	PendingWithdrawalExpiry  uint32          `json:"pending_withdrawal_expiry"`
	MaxTotalSupply           decimal.Decimal `json:"max_total_supply"`
	TotalAssets              decimal.Decimal `json:"total_assets"`
	TotalSupply              decimal.Decimal `json:"total_supply"`
	TotalDebts               decimal.Decimal `json:"total_debts"`
	MaximumDeposit           decimal.Decimal `json:"maximum_deposit"`
	BorrowableAssets         decimal.Decimal `json:"borrowable_assets"`
	OutstandingDebt          decimal.Decimal `json:"outstanding_debt"`
	DelinquentDebt           decimal.Decimal `json:"delinquent_debt"`
	CoverageLiquidity        decimal.Decimal `json:"coverage_liquidity"`
	AccruedProtocolFees      decimal.Decimal `json:"accrued_protocol_fees"`
	WithdrawableProtocolFees decimal.Decimal `json:"withdrawable_protocol_fees"`
	UnclaimedWithdrawals     decimal.Decimal `json:"unclaimed_withdrawals"`
}

// SummaryView render summary in units of decimals
func SummaryView(market string, s *core.MarketSummary, decimals uint8) Summary {
	st := &s.State
	return Summary{
		Market:                   market,
		Timestamp:                s.Timestamp,
		IsClosed:                 st.IsClosed,
		IsDelinquent:             st.IsDelinquent,
		TimeDelinquent:           st.TimeDelinquent,
		AnnualInterestBips:       st.AnnualInterestBips,
		ReserveRatioBips:         st.ReserveRatioBips,
		ProtocolFeeBips:          st.ProtocolFeeBips,
		ScaleFactor:              st.ScaleFactor.Dec(),
		ScaledTotalSupply:        st.ScaledTotalSupply.Dec(),
		ScaledPendingWithdrawals: st.ScaledPendingWithdrawals.Dec(),
		PendingWithdrawalExpiry:  st.PendingWithdrawalExpiry,
		MaxTotalSupply:           number.Humanize(&st.MaxTotalSupply, decimals),
		TotalAssets:              number.Humanize(&s.TotalAssets, decimals),
		TotalSupply:              number.Humanize(&s.TotalSupply, decimals),
		TotalDebts:               number.Humanize(&s.TotalDebts, decimals),
		MaximumDeposit:           number.Humanize(&s.MaximumDeposit, decimals),
		BorrowableAssets:         number.Humanize(&s.BorrowableAssets, decimals),
		OutstandingDebt:          number.Humanize(&s.OutstandingDebt, decimals),
		DelinquentDebt:           number.Humanize(&s.DelinquentDebt, decimals),
		CoverageLiquidity:        number.Humanize(&s.CoverageLiquidity, decimals),
		AccruedProtocolFees:      number.Humanize(&st.AccruedProtocolFees, decimals),
		WithdrawableProtocolFees: number.Humanize(&s.WithdrawableProtocolFees, decimals),
		UnclaimedWithdrawals:     number.Humanize(&st.NormalizedUnclaimedWithdrawals, decimals),
	}
}
