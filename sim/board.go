// Package sim provides a tick-accurate simulated output register and
// countdown timer for running the PWM engine without hardware.
package sim

import (
	"errors"

	"multipwm/core"
)

// ErrPinUnavailable is returned by ConfigureOutput for pins marked
// unavailable with Reserve.
var ErrPinUnavailable = errors.New("sim: pin unavailable")

// Board implements core.OutputPort and core.CountdownTimer. Time only moves
// when Advance is called. A Board is not safe for concurrent use.
type Board struct {
	out      core.PinMask
	outputs  core.PinMask
	reserved core.PinMask

	handler   func()
	armed     bool
	remaining uint32
	irq       bool

	now   uint64
	fires uint64
	arms  []uint32
}

// NewBoard returns a board with all outputs low and the timer halted.
func NewBoard() *Board {
	return &Board{}
}

// Reserve makes ConfigureOutput fail for every pin in mask.
func (b *Board) Reserve(mask core.PinMask) {
	b.reserved |= mask
}

// ConfigureOutput implements core.OutputPort.
func (b *Board) ConfigureOutput(pin core.Pin) error {
	if pin > core.MaxPin || b.reserved&pin.Mask() != 0 {
		return ErrPinUnavailable
	}
	b.outputs |= pin.Mask()
	return nil
}

// Raise implements core.OutputPort. Pins not configured as outputs ignore
// the write.
func (b *Board) Raise(mask core.PinMask) {
	b.out |= mask & b.outputs
}

// Lower implements core.OutputPort.
func (b *Board) Lower(mask core.PinMask) {
	b.out &^= mask & b.outputs
}

// Configure implements core.CountdownTimer.
func (b *Board) Configure(handler func()) error {
	if handler == nil {
		return errors.New("sim: nil timer handler")
	}
	b.handler = handler
	b.armed = false
	return nil
}

// Arm implements core.CountdownTimer. A zero count fires on the next tick.
func (b *Board) Arm(ticks uint32) {
	if ticks == 0 {
		ticks = 1
	}
	b.arms = append(b.arms, ticks)
	b.remaining = ticks
	b.armed = true
}

// Halt implements core.CountdownTimer.
func (b *Board) Halt() {
	b.armed = false
}

// EnableIRQ implements core.CountdownTimer.
func (b *Board) EnableIRQ() {
	b.irq = true
}

// DisableIRQ implements core.CountdownTimer.
func (b *Board) DisableIRQ() {
	b.irq = false
}

// Advance moves time forward n ticks. Whenever the countdown expires with
// the interrupt enabled the handler runs before the next tick.
func (b *Board) Advance(n uint64) {
	for i := uint64(0); i < n; i++ {
		b.step()
	}
}

func (b *Board) step() {
	b.now++
	if !b.armed {
		return
	}
	b.remaining--
	if b.remaining != 0 {
		return
	}
	b.armed = false
	if b.irq && b.handler != nil {
		b.fires++
		b.handler()
	}
}

// Level reports the current output level of pin.
func (b *Board) Level(pin core.Pin) bool {
	return b.out&pin.Mask() != 0
}

// Outputs returns the whole output register.
func (b *Board) Outputs() core.PinMask {
	return b.out
}

// Record advances ticks ticks and returns the level of pin after each one.
func (b *Board) Record(pin core.Pin, ticks int) []bool {
	levels := make([]bool, ticks)
	for i := range levels {
		b.step()
		levels[i] = b.Level(pin)
	}
	return levels
}

// Sample advances ticks ticks and returns the output register after each.
func (b *Board) Sample(ticks int) []core.PinMask {
	regs := make([]core.PinMask, ticks)
	for i := range regs {
		b.step()
		regs[i] = b.out
	}
	return regs
}

// Now returns the number of ticks elapsed.
func (b *Board) Now() uint64 { return b.now }

// Fires returns how many times the handler ran.
func (b *Board) Fires() uint64 { return b.fires }

// Arms returns every countdown value passed to Arm, oldest first.
func (b *Board) Arms() []uint32 {
	return append([]uint32(nil), b.arms...)
}

// ResetArms clears the Arm history.
func (b *Board) ResetArms() { b.arms = nil }

// Armed reports whether a countdown is pending.
func (b *Board) Armed() bool { return b.armed }

// IRQEnabled reports whether the timer interrupt is unmasked.
func (b *Board) IRQEnabled() bool { return b.irq }

// ConfiguredPins returns every pin configured as an output, ascending.
func (b *Board) ConfiguredPins() []core.Pin {
	var pins []core.Pin
	for p := core.Pin(0); p <= core.MaxPin; p++ {
		if b.outputs&p.Mask() != 0 {
			pins = append(pins, p)
		}
	}
	return pins
}

// HighTicks counts ticks with pin high in levels.
func HighTicks(levels []bool) int {
	n := 0
	for _, l := range levels {
		if l {
			n++
		}
	}
	return n
}
