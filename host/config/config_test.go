package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"DIMMER_DEVICE", "DIMMER_BAUD", "DIMMER_READ_TIMEOUT_MS", "DIMMER_ACK_TIMEOUT_MS",
		"DIMMER_LOG_LEVEL", "DIMMER_BOARD_CONFIG", "DIMMER_TICK_US", "DIMMER_SIMULATE"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg := Load()
	assert.Equal(t, "/dev/ttyACM0", cfg.Device)
	assert.Equal(t, 250000, cfg.Baud)
	assert.Equal(t, 100*time.Millisecond, cfg.ReadTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.AckTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Microsecond, cfg.TickDuration)
	assert.False(t, cfg.Simulate)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DIMMER_DEVICE", "/dev/ttyUSB3")
	t.Setenv("DIMMER_BAUD", "115200")
	t.Setenv("DIMMER_ACK_TIMEOUT_MS", "not-a-number")
	t.Setenv("DIMMER_SIMULATE", "true")

	cfg := Load()
	assert.Equal(t, "/dev/ttyUSB3", cfg.Device)
	assert.Equal(t, 115200, cfg.Baud)
	assert.Equal(t, 500*time.Millisecond, cfg.AckTimeout, "invalid ints fall back to the default")
	assert.True(t, cfg.Simulate)

	sc := cfg.SerialConfig()
	assert.Equal(t, "/dev/ttyUSB3", sc.Device)
	assert.Equal(t, 115200, sc.Baud)
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pwm.env")
	require.NoError(t, os.WriteFile(path, []byte("DIMMER_LOG_LEVEL=debug\n"), 0o644))

	t.Setenv("DIMMER_LOG_LEVEL", "")
	os.Unsetenv("DIMMER_LOG_LEVEL")

	require.NoError(t, LoadDotenv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "debug", Load().LogLevel)

	assert.NoError(t, LoadDotenv(filepath.Join(dir, "missing.env")))
}

func TestLogger(t *testing.T) {
	cfg := &Config{LogLevel: "warn"}
	log, err := cfg.Logger()
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))

	cfg.LogLevel = "bogus"
	log, err = cfg.Logger()
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}
