package ray

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) *uint256.Int {
	return uint256.MustFromDecimal(s)
}

func TestRayMul(t *testing.T) {
	assert.Equal(t, "2000000000000000000000000000", RayMul(dec("2000000000000000000000000000"), RAY).Dec())
	assert.Equal(t, "1200000000000000000000000000", RayMul(RAY, dec("1200000000000000000000000000")).Dec())
	// 1 * 0.5 rounds half up
	assert.Equal(t, "1", RayMul(New(1), HalfRAY).Dec())
	assert.True(t, RayMul(Zero(), RAY).IsZero())
}

func TestRayDiv(t *testing.T) {
	assert.Equal(t, "1000000000000000000", RayDiv(dec("1000000000000000000"), RAY).Dec())
	// 1 / 1.2 = 0.8333 -> rounds to 1
	assert.Equal(t, "1", RayDiv(New(1), dec("1200000000000000000000000000")).Dec())
	assert.Panics(t, func() { RayDiv(New(1), Zero()) })
}

func TestBipMul(t *testing.T) {
	assert.Equal(t, "1000", BipMul(New(10_000), 1000).Dec())
	assert.Equal(t, "1", BipMul(New(1), 5000).Dec())
	assert.True(t, BipMul(New(1), 4999).IsZero())
	assert.True(t, BipMul(New(100), 0).IsZero())
}

func TestSatSubMinMax(t *testing.T) {
	assert.Equal(t, uint64(3), SatSub(New(5), New(2)).Uint64())
	assert.True(t, SatSub(New(2), New(5)).IsZero())
	assert.Equal(t, uint64(2), Min(New(5), New(2)).Uint64())
	assert.Equal(t, uint64(5), Max(New(5), New(2)).Uint64())
}

func TestMulDiv(t *testing.T) {
	assert.Equal(t, uint64(3), MulDiv(New(7), New(1), New(2)).Uint64())
	assert.Equal(t, uint64(4), MulDivUp(New(7), New(1), New(2)).Uint64())
	assert.Equal(t, uint64(4), MulDivUp(New(8), New(1), New(2)).Uint64())
	assert.Panics(t, func() { MulDiv(New(1), New(1), Zero()) })
}

func TestLinearInterestFromBips(t *testing.T) {
	// 10% over a full year
	assert.Equal(t, "100000000000000000000000000", LinearInterestFromBips(1000, 31_536_000).Dec())
	// 10% over half a year
	assert.Equal(t, "50000000000000000000000000", LinearInterestFromBips(1000, 15_768_000).Dec())
	assert.True(t, LinearInterestFromBips(0, 100).IsZero())
}

func TestCheckedArithmeticPanics(t *testing.T) {
	max := new(uint256.Int).SetAllOne()

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(*OverflowError)
		require.True(t, ok)
		assert.Contains(t, err.Error(), "add")
	}()

	Add(max, New(1))
}

func TestCheckBits(t *testing.T) {
	assert.NotPanics(t, func() { CheckBits(New(1<<32-1), 32, "expiry") })
	assert.Panics(t, func() { CheckBits(New(1<<32), 32, "expiry") })
	assert.Equal(t, uint32(7), Uint32(New(7), "x"))
	assert.Panics(t, func() { Sub(New(1), New(2)) })
}
