package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderDefaults(t *testing.T) {
	cfg, err := NewBuilder().Build()
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, cfg.SyncInterval)
	assert.Equal(t, 6, cfg.CoinRoundPeriod)
}

func TestBuilderRejectsInvalidSyncInterval(t *testing.T) {
	_, err := NewBuilder().WithSyncInterval(0).Build()
	assert.Error(t, err)
}

func TestBuilderRejectsUnknownPreset(t *testing.T) {
	_, err := NewBuilder().FromPreset("bogus").Build()
	assert.Error(t, err)
}

func TestBuilderFromPresetLocal(t *testing.T) {
	cfg, err := NewBuilder().FromPreset(PresetLocal).WithBindAddress("127.0.0.1:9000").Build()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.LocalBindAddress)
}
