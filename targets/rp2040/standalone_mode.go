//go:build rp2040

package main

import (
	"machine"
	"time"

	"multipwm/core"
	"multipwm/light"
)

// breathStep is the time between brightness changes
const breathStep = 20 * time.Millisecond

// RunStandaloneMode drives the on-board LED as a light that fades up and
// down, with gamma correction so the fade looks even.
func RunStandaloneMode(e *core.Engine) {
	if err := e.Register(0, core.Pin(machine.LED)); err != nil {
		blinkForever(100 * time.Millisecond)
	}

	bulb := light.NewLightbulb(light.Engine(e), 0, e.Period())
	bulb.Gamma = 2.2
	if err := bulb.Set(true, 0); err != nil {
		blinkForever(100 * time.Millisecond)
	}
	e.Start()

	// Flash 3 times to indicate standalone mode started
	for i := 0; i < 3; i++ {
		_ = bulb.Set(true, 100)
		time.Sleep(200 * time.Millisecond)
		_ = bulb.Set(true, 0)
		time.Sleep(200 * time.Millisecond)
	}

	pct, dir := 0, 1
	for {
		_ = bulb.SetBrightness(pct)
		pct += dir
		if pct == 100 || pct == 0 {
			dir = -dir
		}
		time.Sleep(breathStep)
	}
}
