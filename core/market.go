package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/holiman/uint256"
	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

const (
	// MaxBips one hundred percent
	MaxBips = 10_000
	// MaxProtocolFeeBips protocol fee cap, 10% of base interest
	MaxProtocolFeeBips = 1_000
)

// Market market registry info. The mutable accounting record lives in MarketState.
type Market struct {
	ID      uint64 `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	Address string `sql:"size:36;unique_index:market_address_idx" json:"address"`
	Name    string `sql:"size:64" json:"name"`
	Symbol  string `sql:"size:20;unique_index:market_symbol_idx" json:"symbol"`
	AssetID string `sql:"size:36" json:"asset_id"`
	// 借款人, 唯一可以 borrow / close 的账户
	Borrower     string `sql:"size:36;index:market_borrower_idx" json:"borrower"`
	FeeRecipient string `sql:"size:36" json:"fee_recipient"`
	// 逾期罚息, bips per year
	DelinquencyFeeBips uint16 `json:"delinquency_fee_bips"`
	// 逾期宽限期, seconds
	DelinquencyGracePeriod uint32 `json:"delinquency_grace_period"`
	// 提现批次时长, seconds
	WithdrawalBatchDuration uint32         `json:"withdrawal_batch_duration"`
	Hooks                   types.JSONText `sql:"type:json" json:"hooks"`
	Version                 int64          `sql:"default:0" json:"version"`
	CreatedAt               time.Time      `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt               time.Time      `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// HooksConfig access control hooks settings of a market
type HooksConfig struct {
	// only approved lenders can deposit or receive transfers
	RestrictedDeposits bool            `json:"restricted_deposits,omitempty"`
	MinimumDeposit     decimal.Decimal `json:"minimum_deposit,omitempty"`
	TransfersDisabled  bool            `json:"transfers_disabled,omitempty"`
	// fixed term loans reject withdrawals before this timestamp
	FixedTermEndTime          uint32 `json:"fixed_term_end_time,omitempty"`
	AllowClosureBeforeTerm    bool   `json:"allow_closure_before_term,omitempty"`
	MinimumAnnualInterestBips uint16 `json:"minimum_annual_interest_bips,omitempty"`
	MaximumAnnualInterestBips uint16 `json:"maximum_annual_interest_bips,omitempty"`
}

// HooksConfig decode the hooks column
func (m *Market) HooksConfig() (HooksConfig, error) {
	var cfg HooksConfig
	if len(m.Hooks) == 0 {
		return cfg, nil
	}

	err := m.Hooks.Unmarshal(&cfg)
	return cfg, err
}

// SetHooksConfig encode cfg into the hooks column
func (m *Market) SetHooksConfig(cfg HooksConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}

	m.Hooks = types.JSONText(data)
	return nil
}

// MarketParameters parameters to open a new market
type MarketParameters struct {
	Name                    string      `json:"name"`
	Symbol                  string      `json:"symbol"`
	AssetID                 string      `json:"asset_id"`
	Borrower                string      `json:"borrower"`
	FeeRecipient            string      `json:"fee_recipient"`
	MaxTotalSupply          uint256.Int `json:"max_total_supply"`
	AnnualInterestBips      uint16      `json:"annual_interest_bips"`
	ReserveRatioBips        uint16      `json:"reserve_ratio_bips"`
	ProtocolFeeBips         uint16      `json:"protocol_fee_bips"`
	DelinquencyFeeBips      uint16      `json:"delinquency_fee_bips"`
	DelinquencyGracePeriod  uint32      `json:"delinquency_grace_period"`
	WithdrawalBatchDuration uint32      `json:"withdrawal_batch_duration"`
	Hooks                   HooksConfig `json:"hooks"`
}

// IMarketStore market store interface
type IMarketStore interface {
	Save(ctx context.Context, tx *db.DB, market *Market) error
	Find(ctx context.Context, address string) (*Market, error)
	FindBySymbol(ctx context.Context, symbol string) (*Market, error)
	ListByBorrower(ctx context.Context, borrower string) ([]*Market, error)
	All(ctx context.Context) ([]*Market, error)
}

// IMarketService market registry
type IMarketService interface {
	Create(ctx context.Context, params *MarketParameters) (*Market, error)
	Find(ctx context.Context, address string) (*Market, error)
	All(ctx context.Context) ([]*Market, error)
	Engine(ctx context.Context, address string) (IMarketEngine, error)
}
