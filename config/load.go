package config

import (
	"lending/core"

	configUtil "github.com/fox-one/pkg/config"
)

// Load load config file
func Load(configFile string, config *core.Config) error {
	configUtil.AutomaticLoadEnv("LENDING")
	if err := configUtil.LoadYaml(configFile, config); err != nil {
		return err
	}

	defaults(config)
	return nil
}

func defaults(cfg *core.Config) {
	if cfg.App.Location == "" {
		cfg.App.Location = "UTC"
	}

	if cfg.App.CacheSize <= 0 {
		cfg.App.CacheSize = 256
	}

	if cfg.Worker.Schedule == "" {
		cfg.Worker.Schedule = "@every 1m"
	}

	if cfg.Worker.Concurrency <= 0 {
		cfg.Worker.Concurrency = 4
	}

	d := &cfg.Defaults
	if d.WithdrawalBatchDuration == 0 {
		d.WithdrawalBatchDuration = 86400
	}

	if d.DelinquencyGracePeriod == 0 {
		d.DelinquencyGracePeriod = 86400
	}
}
