package token

import (
	"context"

	"lending/core"

	"github.com/holiman/uint256"
)

type token struct {
	asset    *core.Asset
	balances core.IBalanceStore
}

// New token view of asset over the balance store
func New(asset *core.Asset, balances core.IBalanceStore) core.IToken {
	return &token{
		asset:    asset,
		balances: balances,
	}
}

func (t *token) AssetID() string {
	return t.asset.ID
}

func (t *token) Symbol() string {
	return t.asset.Symbol
}

func (t *token) Decimals() uint8 {
	return t.asset.Decimals
}

func (t *token) BalanceOf(ctx context.Context, owner string) (*uint256.Int, error) {
	return t.balances.BalanceOf(ctx, t.asset.ID, owner)
}
