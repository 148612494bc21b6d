package escrow

import (
	"context"

	"lending/core"
	"lending/pkg/id"

	"github.com/fox-one/pkg/logger"
)

type factory struct {
	escrows core.IEscrowStore
}

// New escrow factory. Escrows are persisted by the market ledger together
// with the withdrawal that funds them.
func New(escrows core.IEscrowStore) core.IEscrowFactory {
	return &factory{escrows: escrows}
}

// Address deterministic escrow address of (borrower, account, asset)
func Address(borrower, account, assetID string) string {
	return id.UUIDFromParts("escrow", borrower, account, assetID)
}

func (f *factory) CreateEscrowForAccount(ctx context.Context, borrower, account, assetID string) (*core.Escrow, error) {
	address := Address(borrower, account, assetID)

	escrow, err := f.escrows.Find(ctx, address)
	if err != nil {
		return nil, err
	}

	if escrow.ID > 0 {
		return escrow, nil
	}

	logger.FromContext(ctx).WithField("escrow", address).Infoln("new escrow for", account)
	return &core.Escrow{
		Address:  address,
		Borrower: borrower,
		Account:  account,
		AssetID:  assetID,
	}, nil
}
