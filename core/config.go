package core

import (
	"github.com/fox-one/pkg/store/db"
)

// Config lending config
type Config struct {
	App App       `json:"app"`
	DB  db.Config `json:"db"`
	// default parameters of new markets
	Defaults MarketDefaults `json:"defaults"`
	Worker   Worker         `json:"worker"`
	Admins   []string       `json:"admins"`
}

// IsAdmin check if the user is admin
func (c *Config) IsAdmin(userID string) bool {
	if len(c.Admins) <= 0 {
		return false
	}

	for _, a := range c.Admins {
		if a == userID {
			return true
		}
	}

	return false
}

// App app config
type App struct {
	Location string `json:"location"`
	// cache size of market rows
	CacheSize int `json:"cache_size"`
}

// MarketDefaults defaults of market parameters the creator did not give
type MarketDefaults struct {
	ProtocolFeeBips         uint16 `json:"protocol_fee_bips"`
	DelinquencyFeeBips      uint16 `json:"delinquency_fee_bips"`
	DelinquencyGracePeriod  uint32 `json:"delinquency_grace_period"`
	WithdrawalBatchDuration uint32 `json:"withdrawal_batch_duration"`
	FeeRecipient            string `json:"fee_recipient"`
}

// Market parameter names understood by MarketDefaults.Apply
const (
	ParamProtocolFeeBips         = "protocol-fee"
	ParamDelinquencyFeeBips      = "delinquency-fee"
	ParamDelinquencyGracePeriod  = "grace"
	ParamWithdrawalBatchDuration = "batch-duration"
)

// Apply fills every parameter given reports as not given. An explicit zero
// is kept.
func (d MarketDefaults) Apply(params *MarketParameters, given func(name string) bool) {
	if !given(ParamProtocolFeeBips) {
		params.ProtocolFeeBips = d.ProtocolFeeBips
	}

	if !given(ParamDelinquencyFeeBips) {
		params.DelinquencyFeeBips = d.DelinquencyFeeBips
	}

	if !given(ParamDelinquencyGracePeriod) {
		params.DelinquencyGracePeriod = d.DelinquencyGracePeriod
	}

	if !given(ParamWithdrawalBatchDuration) {
		params.WithdrawalBatchDuration = d.WithdrawalBatchDuration
	}

	if params.FeeRecipient == "" {
		params.FeeRecipient = d.FeeRecipient
	}
}

// Worker worker config
type Worker struct {
	// cron schedule of the state update job, e.g. "@every 1m"
	Schedule    string `json:"schedule"`
	Concurrency int    `json:"concurrency"`
}
