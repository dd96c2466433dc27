package light

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multipwm/core"
	"multipwm/sim"
)

type recordingSetter struct {
	channel uint8
	duties  []uint32
}

func (r *recordingSetter) SetDuty(channel uint8, duty uint32) error {
	r.channel = channel
	r.duties = append(r.duties, duty)
	return nil
}

func TestLightbulbOnOff(t *testing.T) {
	rec := &recordingSetter{}
	l := NewLightbulb(rec, 3, 65535)

	require.NoError(t, l.SetOn(true))
	require.NoError(t, l.SetBrightness(50))
	require.NoError(t, l.SetOn(false))
	require.NoError(t, l.SetBrightness(20))

	assert.Equal(t, uint8(3), rec.channel)
	assert.Equal(t, []uint32{65535, 32767, 0, 0}, rec.duties)
	assert.Equal(t, 20, l.Brightness())
	assert.False(t, l.On())
}

func TestLightbulbClampsBrightness(t *testing.T) {
	rec := &recordingSetter{}
	l := NewLightbulb(rec, 0, 1000)
	require.NoError(t, l.SetOn(true))
	require.NoError(t, l.SetBrightness(150))
	assert.Equal(t, 100, l.Brightness())
	assert.Equal(t, uint32(1000), l.Duty())

	require.NoError(t, l.SetBrightness(-5))
	assert.Equal(t, uint32(0), l.Duty())
}

func TestLightbulbSetPushesOnce(t *testing.T) {
	rec := &recordingSetter{}
	l := NewLightbulb(rec, 1, 1000)
	require.NoError(t, l.Set(true, 25))
	assert.Equal(t, []uint32{250}, rec.duties)
	assert.True(t, l.On())
	assert.Equal(t, 25, l.Brightness())
}

func TestDutyForGamma(t *testing.T) {
	assert.Equal(t, uint32(500), DutyFor(50, 1000, 0))
	assert.Equal(t, uint32(500), DutyFor(50, 1000, 1))
	assert.Equal(t, uint32(250), DutyFor(50, 1000, 2))
	assert.Equal(t, uint32(1000), DutyFor(100, 1000, 2.2))
	assert.Equal(t, uint32(0), DutyFor(0, 1000, 2.2))
}

func TestLightbulbDrivesEngine(t *testing.T) {
	b := sim.NewBoard()
	e, err := core.NewEngine(core.Config{Period: 200, Channels: 1}, b, b)
	require.NoError(t, err)
	require.NoError(t, e.Register(0, 2))

	l := NewLightbulb(Engine(e), 0, e.Period())
	require.NoError(t, l.SetBrightness(25))
	require.NoError(t, l.SetOn(true))
	e.Start()

	assert.Equal(t, 50, sim.HighTicks(b.Record(2, 200)))
}
