package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multipwm/errcode"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DIMMER_LOG_LEVEL", "error")
	t.Setenv("DIMMER_SIMULATE", "true")
	t.Setenv("DIMMER_BOARD_CONFIG", "")

	var out bytes.Buffer
	err := newApp(&out).Run(append([]string{"dimmerctl"}, args...))
	return out.String(), err
}

func TestStatus(t *testing.T) {
	out, err := run(t, "status")
	require.NoError(t, err)
	assert.Equal(t, "running=true period=65535 channels=1\n", out)
}

func TestDumpDefaultBoard(t *testing.T) {
	out, err := run(t, "dump")
	require.NoError(t, err)
	assert.Equal(t, "period=65535 entries=1 running=true\n0 tick=0 set=0b0 clear=0b100\n", out)
}

func TestDumpBoardFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"period": 1000,
		"channels": [
			{"name": "warm", "pin": "gpio4", "percent": 25},
			{"name": "cold", "pin": "5", "duty": 1000}
		]
	}`), 0o644))

	out, err := run(t, "--board", path, "dump")
	require.NoError(t, err)
	assert.Equal(t,
		"period=1000 entries=2 running=false\n"+
			"0 tick=0 set=0b110000 clear=0b0\n"+
			"1 tick=250 set=0b0 clear=0b10000\n",
		out)
}

func TestDutyCommands(t *testing.T) {
	_, err := run(t, "duty", "0", "50%")
	require.NoError(t, err)

	_, err = run(t, "all", "1200")
	require.NoError(t, err)

	_, err = run(t, "duty", "0", "lots")
	assert.Error(t, err)

	_, err = run(t, "duty", "0")
	assert.ErrorContains(t, err, "usage: dimmerctl duty CHANNEL VALUE")
}

func TestLight(t *testing.T) {
	out, err := run(t, "light", "0", "50")
	require.NoError(t, err)
	assert.Equal(t, "channel 0 duty=32767\n", out)

	out, err = run(t, "light", "--gamma", "2", "0", "50%")
	require.NoError(t, err)
	assert.Equal(t, "channel 0 duty=16383\n", out)

	out, err = run(t, "light", "0", "off")
	require.NoError(t, err)
	assert.Equal(t, "channel 0 duty=0\n", out)
}

func TestConfigRejectsBoundChannel(t *testing.T) {
	_, err := run(t, "config", "0", "gpio3")
	require.Error(t, err)
	assert.ErrorIs(t, err, errcode.ChannelBound)

	_, err = run(t, "config", "0", "gpio40")
	assert.ErrorIs(t, err, errcode.UnknownPin)
}

func TestStartStop(t *testing.T) {
	_, err := run(t, "stop")
	require.NoError(t, err)
	_, err = run(t, "start")
	require.NoError(t, err)
}
