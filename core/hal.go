package core

// Pin identifies a hardware output pin (bit position in the output register).
type Pin uint8

// MaxPin is the highest pin a 32-bit output register can address.
const MaxPin Pin = 31

// PinMask is a set of pins, bit n = pin n.
type PinMask uint32

// Mask returns the single-bit mask for the pin.
func (p Pin) Mask() PinMask {
	return PinMask(1) << p
}

// OutputPort is the abstract output register the interrupt handler drives.
// Platform-specific implementations handle actual hardware control.
type OutputPort interface {
	// ConfigureOutput configures a pin as a digital output
	ConfigureOutput(pin Pin) error

	// Raise drives every pin in mask high in one register write
	Raise(mask PinMask)

	// Lower drives every pin in mask low in one register write
	Lower(mask PinMask)
}

// CountdownTimer is the one-shot hardware timer behind the engine.
//
// The handler passed to Configure runs in interrupt context. It must be
// allowed to call Arm to schedule the next firing. While the interrupt source
// is disabled the handler never runs, which is the only synchronisation the
// engine relies on.
type CountdownTimer interface {
	// Configure installs the interrupt handler; the timer stays halted
	Configure(handler func()) error

	// Arm (re)loads the countdown so the handler fires after ticks ticks
	Arm(ticks uint32)

	// Halt stops the countdown
	Halt()

	// EnableIRQ unmasks the timer interrupt source
	EnableIRQ()

	// DisableIRQ masks the timer interrupt source. On return no handler
	// invocation is in progress.
	DisableIRQ()
}
