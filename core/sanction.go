package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
)

// Sanction account flagged by the sanctions list
type Sanction struct {
	ID        uint64    `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	Account   string    `sql:"size:36;unique_index:sanction_account_idx" json:"account"`
	CreatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// SanctionOverride a borrower vouching for one flagged account
type SanctionOverride struct {
	ID        uint64    `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	Borrower  string    `sql:"size:36;unique_index:sanction_override_idx" json:"borrower"`
	Account   string    `sql:"size:36;unique_index:sanction_override_idx" json:"account"`
	CreatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// ISanctionStore sanction store interface
type ISanctionStore interface {
	Flag(ctx context.Context, account string) error
	Unflag(ctx context.Context, account string) error
	IsFlagged(ctx context.Context, account string) (bool, error)
	Override(ctx context.Context, borrower, account string) error
	RemoveOverride(ctx context.Context, borrower, account string) error
	HasOverride(ctx context.Context, borrower, account string) (bool, error)
}

// ISanctionsOracle sanctions queries used by markets
type ISanctionsOracle interface {
	// IsSanctioned flagged and not overridden by borrower
	IsSanctioned(ctx context.Context, borrower, account string) (bool, error)
	// IsFlaggedByChainalysis raw list lookup, borrowers cannot override it
	IsFlaggedByChainalysis(ctx context.Context, account string) (bool, error)
}

// Escrow holds withdrawals of a sanctioned lender
type Escrow struct {
	ID        uint64    `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	Address   string    `sql:"size:36;unique_index:escrow_address_idx" json:"address"`
	Borrower  string    `sql:"size:36" json:"borrower"`
	Account   string    `sql:"size:36" json:"account"`
	AssetID   string    `sql:"size:36" json:"asset_id"`
	CreatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// IEscrowStore escrow store interface
type IEscrowStore interface {
	Save(ctx context.Context, tx *db.DB, escrows []*Escrow) error
	Find(ctx context.Context, address string) (*Escrow, error)
	ListByAccount(ctx context.Context, account string) ([]*Escrow, error)
}

// IEscrowFactory escrow factory interface
type IEscrowFactory interface {
	// CreateEscrowForAccount returns the escrow for (borrower, account, asset).
	// Calling it again with the same arguments yields the same escrow.
	CreateEscrowForAccount(ctx context.Context, borrower, account, assetID string) (*Escrow, error)
}

// Lender account approved to deposit into a restricted market
type Lender struct {
	ID        uint64    `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	Market    string    `sql:"size:36;unique_index:lender_market_idx" json:"market"`
	Address   string    `sql:"size:36;unique_index:lender_market_idx" json:"address"`
	CreatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// ILenderStore lender store interface
type ILenderStore interface {
	Approve(ctx context.Context, market, address string) error
	Revoke(ctx context.Context, market, address string) error
	IsApproved(ctx context.Context, market, address string) (bool, error)
	List(ctx context.Context, market string) ([]*Lender, error)
}
