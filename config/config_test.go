package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multipwm/core"
	"multipwm/errcode"
	"multipwm/sim"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{"channels":[{"pin":"gpio4"}]}`))
	require.NoError(t, err)
	assert.Equal(t, uint32(core.RP2040TickHz), cfg.TickHz)
	assert.Equal(t, uint32(core.DefaultPeriod), cfg.Period)
	assert.False(t, cfg.AutoStart)
}

func TestLoadConfigFrequency(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{
		"tick_hz": 1000000,
		"frequency_hz": 200,
		"invert": true,
		"channels": [
			{"name": "warm", "pin": "GPIO10", "percent": 25},
			{"name": "cool", "pin": "11", "duty": 4000}
		]
	}`))
	require.NoError(t, err)
	assert.Equal(t, uint32(5000), cfg.Period)
	assert.Equal(t, core.Config{Period: 5000, Channels: 2, Invert: true}, cfg.EngineConfig())
	assert.Equal(t, uint32(1250), cfg.InitialDuty(0))
	assert.Equal(t, uint32(4000), cfg.InitialDuty(1))
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		json string
		want errcode.Code
	}{
		{"malformed", `{`, errcode.InvalidParams},
		{"no channels", `{"channels":[]}`, errcode.TooManyChans},
		{"bad pin", `{"channels":[{"pin":"gpioX"}]}`, errcode.UnknownPin},
		{"pin range", `{"channels":[{"pin":"gpio32"}]}`, errcode.UnknownPin},
		{"duplicate pin", `{"channels":[{"pin":"gpio3"},{"pin":"3"}]}`, errcode.PinInUse},
		{"percent", `{"channels":[{"pin":"1","percent":150}]}`, errcode.InvalidParams},
		{"period", `{"period":1,"channels":[{"pin":"1"}]}`, errcode.InvalidPeriod},
		{"too many", `{"channels":[{"pin":"0"},{"pin":"1"},{"pin":"2"},{"pin":"3"},{"pin":"4"},{"pin":"5"},{"pin":"6"},{"pin":"7"},{"pin":"8"}]}`, errcode.TooManyChans},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig([]byte(tt.json))
			require.Error(t, err)
			assert.Equal(t, tt.want, errcode.Of(err))
		})
	}
}

func TestParsePin(t *testing.T) {
	for in, want := range map[string]core.Pin{"gpio0": 0, "GPIO25": 25, " 7 ": 7, "31": 31} {
		got, err := ParsePin(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParsePin("")
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{
		"period": 1000,
		"auto_start": true,
		"channels": [{"pin":"gpio1","percent":50},{"pin":"gpio2"}]
	}`))
	require.NoError(t, err)

	b := sim.NewBoard()
	e, err := core.NewEngine(cfg.EngineConfig(), b, b)
	require.NoError(t, err)
	require.NoError(t, cfg.Apply(e))

	assert.True(t, e.Running())
	d, ok := e.Duty(0)
	assert.True(t, ok)
	assert.Equal(t, uint32(500), d)
	assert.Equal(t, []core.Pin{1, 2}, b.ConfiguredPins())
	assert.NoError(t, e.Check())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"channels":[{"pin":"gpio5"}]}`), 0o644))
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Channels, 1)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, errcode.NotConfigured, errcode.Of(err))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, uint32(65535), cfg.Period)
	assert.True(t, cfg.Invert)
	assert.True(t, cfg.AutoStart)
}
