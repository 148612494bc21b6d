package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Asset underlying asset of a market
type Asset struct {
	ID       string `sql:"size:36;PRIMARY_KEY" json:"id"`
	Name     string `sql:"size:64" json:"name,omitempty"`
	Symbol   string `sql:"size:32" json:"symbol,omitempty"`
	Decimals uint8  `json:"decimals"`
}

// IAssetStore asset store interface
type IAssetStore interface {
	Save(ctx context.Context, asset *Asset) error
	Find(ctx context.Context, id string) (*Asset, error)
	All(ctx context.Context) ([]*Asset, error)
}

// Transfer asset movement between two owners
type Transfer struct {
	ID        uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id,omitempty"`
	CreatedAt time.Time       `json:"created_at,omitempty"`
	TraceID   string          `sql:"size:36;unique_index:transfer_trace_idx" json:"trace_id,omitempty"`
	AssetID   string          `sql:"size:36" json:"asset_id,omitempty"`
	Sender    string          `sql:"size:36" json:"sender,omitempty"`
	Opponent  string          `sql:"size:36" json:"opponent,omitempty"`
	Amount    decimal.Decimal `sql:"type:decimal(65,0)" json:"amount,omitempty"`
	Memo      string          `sql:"size:140" json:"memo,omitempty"`
}

// IBalanceStore asset balances per owner
type IBalanceStore interface {
	BalanceOf(ctx context.Context, assetID, owner string) (*uint256.Int, error)
	// Mint credits owner out of thin air, used to fund accounts
	Mint(ctx context.Context, assetID, owner string, amount *uint256.Int) error
	// Apply moves balances for transfers, fails when a sender balance is too low
	Apply(ctx context.Context, tx *db.DB, transfers []*Transfer) error
	ListTransfers(ctx context.Context, assetID string, from uint64, limit int) ([]*Transfer, error)
}

// IToken fungible asset primitive a market holds
type IToken interface {
	AssetID() string
	Symbol() string
	Decimals() uint8
	BalanceOf(ctx context.Context, owner string) (*uint256.Int, error)
}
