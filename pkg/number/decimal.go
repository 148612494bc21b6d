package number

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

var (
	errNegative   = errors.New("number: negative amount")
	errFractional = errors.New("number: amount has more decimals than the asset")
)

// Decimal parse decimal string, zero if invalid
func Decimal(v string) decimal.Decimal {
	d, _ := decimal.NewFromString(v)
	return d
}

// FromUint256 integer decimal of v
func FromUint256(v *uint256.Int) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}

	return Decimal(v.Dec())
}

// ToUint256 converts a non-negative integral decimal
func ToUint256(d decimal.Decimal) (*uint256.Int, error) {
	if d.IsNegative() {
		return nil, errNegative
	}

	if !d.Equal(d.Truncate(0)) {
		return nil, errFractional
	}

	v, err := uint256.FromDecimal(d.StringFixed(0))
	if err != nil {
		return nil, fmt.Errorf("number: %w", err)
	}

	return v, nil
}

// Humanize base units -> asset units
func Humanize(v *uint256.Int, decimals uint8) decimal.Decimal {
	return FromUint256(v).Shift(-int32(decimals))
}

// ParseAmount asset units ("1.5") -> base units
func ParseAmount(s string, decimals uint8) (*uint256.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}

	return ToUint256(d.Shift(int32(decimals)))
}
