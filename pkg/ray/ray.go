package ray

import (
	"fmt"

	"github.com/holiman/uint256"
)

var (
	// RAY fixed point base, 1e27
	RAY = uint256.MustFromDecimal("1000000000000000000000000000")
	// HalfRAY half of RAY, used for half-up rounding
	HalfRAY = new(uint256.Int).Rsh(RAY, 1)
	// BIP one hundred percent in basis points
	BIP = uint256.NewInt(10_000)
	// HalfBIP half of BIP
	HalfBIP = uint256.NewInt(5_000)
	// BipRayRatio RAY / BIP
	BipRayRatio = uint256.MustFromDecimal("100000000000000000000000")
	// SecondsPerYear seconds in 365 days
	SecondsPerYear = uint256.NewInt(31_536_000)
)

// OverflowError is raised (via panic) when a checked operation does not fit.
// Callers at the operation boundary recover it and turn it into an error.
type OverflowError struct {
	Op string
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("ray: arithmetic overflow in %s", e.Op)
}

func overflow(op string) {
	panic(&OverflowError{Op: op})
}

// Zero returns a new zero value
func Zero() *uint256.Int {
	return new(uint256.Int)
}

// New returns a new value from uint64
func New(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

// Add a + b, panics on overflow
func Add(a, b *uint256.Int) *uint256.Int {
	z, over := new(uint256.Int).AddOverflow(a, b)
	if over {
		overflow("add")
	}
	return z
}

// Sub a - b, panics on underflow
func Sub(a, b *uint256.Int) *uint256.Int {
	z, under := new(uint256.Int).SubOverflow(a, b)
	if under {
		overflow("sub")
	}
	return z
}

// Mul a * b, panics on overflow
func Mul(a, b *uint256.Int) *uint256.Int {
	z, over := new(uint256.Int).MulOverflow(a, b)
	if over {
		overflow("mul")
	}
	return z
}

// SatSub a - b, or zero when b > a
func SatSub(a, b *uint256.Int) *uint256.Int {
	if b.Gt(a) {
		return Zero()
	}
	return new(uint256.Int).Sub(a, b)
}

// Min smaller of a and b
func Min(a, b *uint256.Int) *uint256.Int {
	if a.Lt(b) {
		return a.Clone()
	}
	return b.Clone()
}

// Max larger of a and b
func Max(a, b *uint256.Int) *uint256.Int {
	if a.Gt(b) {
		return a.Clone()
	}
	return b.Clone()
}

// MulDiv floor(a * b / d) with a 512 bit intermediate product.
// Panics when d is zero or the quotient does not fit 256 bits.
func MulDiv(a, b, d *uint256.Int) *uint256.Int {
	if d.IsZero() {
		overflow("muldiv: division by zero")
	}
	z, over := new(uint256.Int).MulDivOverflow(a, b, d)
	if over {
		overflow("muldiv")
	}
	return z
}

// MulDivUp ceil(a * b / d)
func MulDivUp(a, b, d *uint256.Int) *uint256.Int {
	z := MulDiv(a, b, d)
	if new(uint256.Int).MulMod(a, b, d).IsZero() {
		return z
	}
	return Add(z, New(1))
}

// RayMul (a * b + RAY/2) / RAY
func RayMul(a, b *uint256.Int) *uint256.Int {
	if a.IsZero() || b.IsZero() {
		return Zero()
	}
	return new(uint256.Int).Div(Add(Mul(a, b), HalfRAY), RAY)
}

// RayDiv (a * RAY + b/2) / b
func RayDiv(a, b *uint256.Int) *uint256.Int {
	if b.IsZero() {
		overflow("raydiv: division by zero")
	}
	half := new(uint256.Int).Rsh(b, 1)
	return new(uint256.Int).Div(Add(Mul(a, RAY), half), b)
}

// BipMul (a * bips + BIP/2) / BIP
func BipMul(a *uint256.Int, bips uint16) *uint256.Int {
	if a.IsZero() || bips == 0 {
		return Zero()
	}
	return new(uint256.Int).Div(Add(Mul(a, New(uint64(bips))), HalfBIP), BIP)
}

// LinearInterestFromBips ray-scaled simple interest accrued at an annual
// rate of rateBips over elapsed seconds
func LinearInterestFromBips(rateBips uint16, elapsed uint64) *uint256.Int {
	if rateBips == 0 || elapsed == 0 {
		return Zero()
	}
	numerator := Mul(Mul(New(uint64(rateBips)), BipRayRatio), New(elapsed))
	return new(uint256.Int).Div(numerator, SecondsPerYear)
}

// CheckBits panics when v needs more than bits bits
func CheckBits(v *uint256.Int, bits int, field string) {
	if v.BitLen() > bits {
		overflow(fmt.Sprintf("%s exceeds uint%d", field, bits))
	}
}

// Uint32 narrows v to uint32, panicking when it does not fit
func Uint32(v *uint256.Int, field string) uint32 {
	CheckBits(v, 32, field)
	return uint32(v.Uint64())
}
