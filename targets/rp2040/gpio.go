//go:build rp2040

package main

import (
	"device/rp"
	"machine"

	"multipwm/core"
	"multipwm/errcode"
)

// numGPIO is the number of user GPIOs on the RP2040.
const numGPIO = 30

// SIOPort implements core.OutputPort on the single-cycle IO block. Raise and
// Lower are one register write each, whatever the number of pins.
type SIOPort struct {
	outputs core.PinMask
}

// NewSIOPort returns a port with no pins configured.
func NewSIOPort() *SIOPort {
	return &SIOPort{}
}

// ConfigureOutput implements core.OutputPort.
func (p *SIOPort) ConfigureOutput(pin core.Pin) error {
	if pin >= numGPIO {
		return errcode.Wrap(errcode.UnknownPin, "configure_output", "gpio "+itoa(int(pin)), nil)
	}
	rp.SIO.GPIO_OUT_CLR.Set(uint32(pin.Mask()))
	machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.outputs |= pin.Mask()
	return nil
}

// Raise implements core.OutputPort.
func (p *SIOPort) Raise(mask core.PinMask) {
	rp.SIO.GPIO_OUT_SET.Set(uint32(mask & p.outputs))
}

// Lower implements core.OutputPort.
func (p *SIOPort) Lower(mask core.PinMask) {
	rp.SIO.GPIO_OUT_CLR.Set(uint32(mask & p.outputs))
}
