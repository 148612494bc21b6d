package lending

import (
	"testing"

	"lending/core"
	"lending/pkg/ray"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func TestUpdateScaleFactorAndFees(t *testing.T) {
	state := core.MarketState{
		AnnualInterestBips: 1000,
		ProtocolFeeBips:    1000,
		IsDelinquent:       true,
		TimeDelinquent:     1000,
	}
	state.ScaledTotalSupply.SetUint64(1e18)
	state.ScaleFactor.Set(ray.RAY)

	accrual := UpdateScaleFactorAndFees(&state, 1000, 0, 365*86400)

	assert.Equal(t, "100000000000000000000000000", accrual.BaseInterestRay.Dec())
	assert.Equal(t, "100000000000000000000000000", accrual.DelinquencyFeeRay.Dec())
	assert.Equal(t, "10000000000000000", accrual.ProtocolFee.Dec())
	assert.Equal(t, "1200000000000000000000000000", state.ScaleFactor.Dec())
	assert.Equal(t, "10000000000000000", state.AccruedProtocolFees.Dec())
	assert.Equal(t, uint32(365*86400), state.LastInterestAccruedTimestamp)
	assert.Equal(t, uint32(1000+365*86400), state.TimeDelinquent)
}

func TestUpdateScaleFactorAndFeesNoElapsedTime(t *testing.T) {
	state := core.MarketState{
		AnnualInterestBips:           1000,
		ProtocolFeeBips:              1000,
		IsDelinquent:                 true,
		TimeDelinquent:               5,
		LastInterestAccruedTimestamp: 100,
	}
	state.ScaledTotalSupply.SetUint64(1e18)
	state.ScaleFactor.Set(ray.RAY)
	before := state

	accrual := UpdateScaleFactorAndFees(&state, 1000, 0, 100)
	assert.True(t, accrual.Empty())
	assert.True(t, accrual.ProtocolFee.IsZero())
	assert.Equal(t, before, state)

	// a second call at the same timestamp is a no-op too
	UpdateScaleFactorAndFees(&state, 1000, 0, 200)
	after := state
	UpdateScaleFactorAndFees(&state, 1000, 0, 200)
	assert.Equal(t, after, state)
}

func TestUpdateScaleFactorAndFeesRejectsPastTimestamp(t *testing.T) {
	state := core.MarketState{LastInterestAccruedTimestamp: 100}
	state.ScaleFactor.Set(ray.RAY)

	assert.Panics(t, func() { UpdateScaleFactorAndFees(&state, 0, 0, 99) })
}

func TestUpdateTimeDelinquentAndGetPenaltyTime(t *testing.T) {
	cases := []struct {
		name           string
		delinquent     bool
		previous       uint32
		grace          uint32
		delta          uint32
		penalty        uint32
		timeDelinquent uint32
	}{
		{"crossing grace period", true, 99, 100, 100, 99, 199},
		{"within grace period", true, 0, 100, 50, 0, 50},
		{"past grace period", true, 200, 100, 50, 50, 250},
		{"recovering above grace", false, 150, 100, 100, 50, 50},
		{"recovering within grace", false, 80, 100, 10, 0, 70},
		{"fully recovered", false, 10, 0, 100, 10, 0},
		{"healthy", false, 0, 100, 100, 0, 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			state := core.MarketState{
				IsDelinquent:   c.delinquent,
				TimeDelinquent: c.previous,
			}

			penalty := UpdateTimeDelinquentAndGetPenaltyTime(&state, c.grace, c.delta)
			assert.Equal(t, c.penalty, penalty, "penalty time")
			assert.Equal(t, c.timeDelinquent, state.TimeDelinquent, "time delinquent")
		})
	}
}

func TestApplyProtocolFee(t *testing.T) {
	state := core.MarketState{ProtocolFeeBips: 500}
	state.ScaledTotalSupply.SetUint64(2e18)
	state.ScaleFactor.Set(uint256.MustFromDecimal("1100000000000000000000000000"))

	// 5% of 10% of 2.2e18
	fee := ApplyProtocolFee(&state, uint256.MustFromDecimal("100000000000000000000000000"))
	assert.Equal(t, "11000000000000000", fee.Dec())
}
