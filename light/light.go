// Package light maps lightbulb state (on/off plus brightness percent) onto
// PWM duty, the way a smart-home accessory drives a dimmer channel.
package light

import (
	"math"

	"multipwm/core"
	"multipwm/x/mathx"
)

// DutySetter applies a duty, in ticks, to one channel.
type DutySetter interface {
	SetDuty(channel uint8, duty uint32) error
}

// Engine adapts a local engine to DutySetter.
func Engine(e *core.Engine) DutySetter {
	return engineSetter{e}
}

type engineSetter struct{ e *core.Engine }

func (s engineSetter) SetDuty(channel uint8, duty uint32) error {
	s.e.SetDuty(channel, duty)
	return nil
}

// Lightbulb is one dimmable light on a PWM channel.
type Lightbulb struct {
	Channel uint8
	Period  uint32  // ticks per PWM cycle of the engine behind Out
	Gamma   float64 // 0 or 1 for linear brightness
	Out     DutySetter

	on         bool
	brightness int
}

// NewLightbulb returns a light that is off at full brightness.
func NewLightbulb(out DutySetter, channel uint8, period uint32) *Lightbulb {
	return &Lightbulb{Channel: channel, Period: period, Out: out, brightness: 100}
}

// On reports whether the light is on.
func (l *Lightbulb) On() bool { return l.on }

// Brightness returns the brightness percent, kept while off.
func (l *Lightbulb) Brightness() int { return l.brightness }

// SetOn switches the light and pushes the resulting duty.
func (l *Lightbulb) SetOn(on bool) error {
	l.on = on
	return l.apply()
}

// SetBrightness stores pct, clamped to [0, 100], and pushes the resulting
// duty. A light that is off stays off.
func (l *Lightbulb) SetBrightness(pct int) error {
	l.brightness = mathx.Clamp(pct, 0, 100)
	return l.apply()
}

// Set changes state and brightness together and pushes one duty.
func (l *Lightbulb) Set(on bool, pct int) error {
	l.on = on
	l.brightness = mathx.Clamp(pct, 0, 100)
	return l.apply()
}

// Duty returns the duty for the current state.
func (l *Lightbulb) Duty() uint32 {
	if !l.on {
		return 0
	}
	return DutyFor(l.brightness, l.Period, l.Gamma)
}

func (l *Lightbulb) apply() error {
	return l.Out.SetDuty(l.Channel, l.Duty())
}

// DutyFor converts a brightness percent into ticks of period. With gamma
// other than 0 or 1 the percent is raised to gamma first.
func DutyFor(pct int, period uint32, gamma float64) uint32 {
	pct = mathx.Clamp(pct, 0, 100)
	if gamma == 0 || gamma == 1 {
		return mathx.Scale(uint32(pct), period, 100)
	}
	f := math.Pow(float64(pct)/100, gamma)
	return uint32(math.Floor(f * float64(period)))
}
