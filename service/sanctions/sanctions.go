package sanctions

import (
	"context"

	"lending/core"
)

type oracle struct {
	store core.ISanctionStore
}

// New sanctions oracle backed by the sanction store
func New(store core.ISanctionStore) core.ISanctionsOracle {
	return &oracle{store: store}
}

// IsSanctioned flagged, and the borrower has not vouched for the account
func (o *oracle) IsSanctioned(ctx context.Context, borrower, account string) (bool, error) {
	flagged, err := o.store.IsFlagged(ctx, account)
	if err != nil || !flagged {
		return false, err
	}

	overridden, err := o.store.HasOverride(ctx, borrower, account)
	if err != nil {
		return false, err
	}

	return !overridden, nil
}

func (o *oracle) IsFlaggedByChainalysis(ctx context.Context, account string) (bool, error) {
	return o.store.IsFlagged(ctx, account)
}
