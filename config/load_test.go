package config

import (
	"os"
	"path/filepath"
	"testing"

	"lending/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
admins:
  - root
defaults:
  protocol_fee_bips: 1000
  fee_recipient: fees
worker:
  schedule: "@every 10s"
`), 0o600))

	var cfg core.Config
	require.NoError(t, Load(file, &cfg))

	assert.True(t, cfg.IsAdmin("root"))
	assert.False(t, cfg.IsAdmin("alice"))
	assert.EqualValues(t, 1000, cfg.Defaults.ProtocolFeeBips)
	assert.Equal(t, "fees", cfg.Defaults.FeeRecipient)
	assert.Equal(t, "@every 10s", cfg.Worker.Schedule)
	assert.Equal(t, 4, cfg.Worker.Concurrency)
	assert.EqualValues(t, 86400, cfg.Defaults.WithdrawalBatchDuration)
	assert.Equal(t, "UTC", cfg.App.Location)
}
