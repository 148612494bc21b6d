package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarketDefaultsApply(t *testing.T) {
	d := MarketDefaults{
		ProtocolFeeBips:         1000,
		DelinquencyFeeBips:      500,
		DelinquencyGracePeriod:  86400,
		WithdrawalBatchDuration: 86400,
		FeeRecipient:            "fees",
	}

	params := &MarketParameters{}
	d.Apply(params, func(name string) bool {
		return name == ParamDelinquencyGracePeriod || name == ParamWithdrawalBatchDuration
	})

	assert.Zero(t, params.DelinquencyGracePeriod, "explicit zero kept")
	assert.Zero(t, params.WithdrawalBatchDuration, "explicit zero kept")
	assert.EqualValues(t, 1000, params.ProtocolFeeBips)
	assert.EqualValues(t, 500, params.DelinquencyFeeBips)
	assert.Equal(t, "fees", params.FeeRecipient)

	params = &MarketParameters{FeeRecipient: "treasury", ProtocolFeeBips: 7}
	d.Apply(params, func(string) bool { return true })
	assert.EqualValues(t, 7, params.ProtocolFeeBips)
	assert.Zero(t, params.DelinquencyFeeBips)
	assert.Equal(t, "treasury", params.FeeRecipient)
}
