package lending

import (
	"lending/core"
	"lending/pkg/ray"

	"github.com/holiman/uint256"
)

// Accrual interest and fees added by one UpdateScaleFactorAndFees call
type Accrual struct {
	FromTimestamp     uint32
	ToTimestamp       uint32
	BaseInterestRay   *uint256.Int
	DelinquencyFeeRay *uint256.Int
	ProtocolFee       *uint256.Int
}

// Empty no time elapsed
func (a Accrual) Empty() bool {
	return a.FromTimestamp == a.ToTimestamp
}

// UpdateScaleFactorAndFees accrues base interest, delinquency fees and
// protocol fees on state from its watermark up to asOf.
func UpdateScaleFactorAndFees(state *core.MarketState, delinquencyFeeBips uint16, gracePeriod uint32, asOf uint32) Accrual {
	accrual := Accrual{
		FromTimestamp:     state.LastInterestAccruedTimestamp,
		ToTimestamp:       asOf,
		BaseInterestRay:   ray.Zero(),
		DelinquencyFeeRay: ray.Zero(),
		ProtocolFee:       ray.Zero(),
	}

	if asOf == state.LastInterestAccruedTimestamp {
		return accrual
	}

	if asOf < state.LastInterestAccruedTimestamp {
		panic(&ray.OverflowError{Op: "accrual timestamp before watermark"})
	}

	timeDelta := asOf - state.LastInterestAccruedTimestamp
	accrual.BaseInterestRay = ray.LinearInterestFromBips(state.AnnualInterestBips, uint64(timeDelta))

	if state.ProtocolFeeBips > 0 {
		accrual.ProtocolFee = ApplyProtocolFee(state, accrual.BaseInterestRay)
	}

	timeWithPenalty := UpdateTimeDelinquentAndGetPenaltyTime(state, gracePeriod, timeDelta)
	if delinquencyFeeBips > 0 && timeWithPenalty > 0 {
		accrual.DelinquencyFeeRay = ray.LinearInterestFromBips(delinquencyFeeBips, uint64(timeWithPenalty))
	}

	prevScaleFactor := state.ScaleFactor
	scaleFactorDelta := ray.RayMul(&prevScaleFactor, ray.Add(accrual.BaseInterestRay, accrual.DelinquencyFeeRay))
	state.ScaleFactor = *ray.Add(&prevScaleFactor, scaleFactorDelta)
	state.AccruedProtocolFees = *ray.Add(&state.AccruedProtocolFees, accrual.ProtocolFee)
	state.LastInterestAccruedTimestamp = asOf

	return accrual
}

// ApplyProtocolFee protocol share of the base interest accrued on the
// current supply. Fees are never charged on delinquency interest.
func ApplyProtocolFee(state *core.MarketState, baseInterestRay *uint256.Int) *uint256.Int {
	protocolFeeRay := ray.BipMul(baseInterestRay, state.ProtocolFeeBips)
	return ray.RayMul(state.NormalizeAmount(&state.ScaledTotalSupply), protocolFeeRay)
}

// UpdateTimeDelinquentAndGetPenaltyTime advances timeDelinquent by timeDelta
// and returns the seconds of the interval charged the delinquency fee.
//
// While delinquent the counter grows and only seconds past the grace period
// are penalized. Once healthy it counts down, and seconds spent above the
// grace period are penalized while being paid off.
func UpdateTimeDelinquentAndGetPenaltyTime(state *core.MarketState, gracePeriod, timeDelta uint32) uint32 {
	previous := state.TimeDelinquent

	if state.IsDelinquent {
		state.TimeDelinquent = ray.Uint32(ray.Add(ray.New(uint64(previous)), ray.New(uint64(timeDelta))), "time_delinquent")
		secondsRemainingWithoutPenalty := satSub32(gracePeriod, previous)
		return satSub32(timeDelta, secondsRemainingWithoutPenalty)
	}

	state.TimeDelinquent = satSub32(previous, timeDelta)
	secondsRemainingWithPenalty := satSub32(previous, gracePeriod)
	return min32(secondsRemainingWithPenalty, timeDelta)
}

func satSub32(a, b uint32) uint32 {
	if b > a {
		return 0
	}
	return a - b
}

func min32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
