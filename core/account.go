package core

import (
	"lending/pkg/ray"

	"github.com/holiman/uint256"
)

// Account lender position in a market. Zeroed, never deleted.
type Account struct {
	Address       string      `json:"address"`
	ScaledBalance uint256.Int `json:"scaled_balance"`
}

// CheckBounds panics when the balance no longer fits 104 bits
func (a *Account) CheckBounds() {
	ray.CheckBits(&a.ScaledBalance, 104, "scaled_balance")
}
