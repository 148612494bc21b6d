package views

import (
	"lending/core"
	"lending/pkg/number"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Account lender position
type Account struct {
	Address       string          `json:"address"`
	ScaledBalance string          `json:"scaled_balance"`
	Balance       decimal.Decimal `json:"balance"`
}

func AccountView(address string, scaled, normalized *uint256.Int, decimals uint8) Account {
	return Account{
		Address:       address,
		ScaledBalance: scaled.Dec(),
		Balance:       number.Humanize(normalized, decimals),
	}
}

// Batch withdrawal batch
type Batch struct {
	Expiry               uint32          `json:"expiry"`
	Expired              bool            `json:"expired"`
	Closed               bool            `json:"closed"`
	ScaledTotalAmount    string          `json:"scaled_total_amount"`
	ScaledAmountBurned   string          `json:"scaled_amount_burned"`
	NormalizedAmountPaid decimal.Decimal `json:"normalized_amount_paid"`
}

func BatchView(b *core.WithdrawalBatch, now uint32, decimals uint8) Batch {
	return Batch{
		Expiry:               b.Expiry,
		Expired:              b.Expiry < now,
		Closed:               b.IsClosed(),
		ScaledTotalAmount:    b.ScaledTotalAmount.Dec(),
		ScaledAmountBurned:   b.ScaledAmountBurned.Dec(),
		NormalizedAmountPaid: number.Humanize(&b.NormalizedAmountPaid, decimals),
	}
}

// WithdrawalStatus account share of a batch. Available is null until the
// batch can be executed.
type WithdrawalStatus struct {
	Expiry    uint32           `json:"expiry"`
	Account   string           `json:"account"`
	Scaled    string           `json:"scaled_amount"`
	Withdrawn decimal.Decimal  `json:"withdrawn"`
	Available *decimal.Decimal `json:"available"`
}

func WithdrawalStatusView(st *core.AccountWithdrawalStatus, available *uint256.Int, decimals uint8) WithdrawalStatus {
	view := WithdrawalStatus{
		Expiry:    st.Expiry,
		Account:   st.Account,
		Scaled:    st.ScaledAmount.Dec(),
		Withdrawn: number.Humanize(&st.NormalizedAmountWithdrawn, decimals),
	}

	if available != nil {
		v := number.Humanize(available, decimals)
		view.Available = &v
	}

	return view
}
