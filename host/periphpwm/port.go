// Package periphpwm runs the PWM engine on a Linux single-board computer:
// GPIO lines through periph.io and the countdown timer in a goroutine.
package periphpwm

import (
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"multipwm/core"
)

// Init loads the periph host drivers. Call it once before NewPort.
func Init() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}
	return nil
}

// PinLookup resolves a GPIO number to a periph pin, nil if unknown.
type PinLookup func(pin core.Pin) gpio.PinOut

// ByNumber looks pins up in the periph registry by GPIO number.
func ByNumber(pin core.Pin) gpio.PinOut {
	p := gpioreg.ByName(strconv.Itoa(int(pin)))
	if p == nil {
		return nil
	}
	return p
}

// Port implements core.OutputPort over periph GPIO lines. It keeps a shadow
// of the output levels and only writes lines whose level changes.
type Port struct {
	mu     sync.Mutex
	lookup PinLookup
	logger *zap.Logger

	pins      [core.MaxPin + 1]gpio.PinOut
	shadow    core.PinMask
	writeErrs uint64
}

// NewPort returns a port resolving pins through lookup. A nil lookup uses
// ByNumber.
func NewPort(lookup PinLookup, logger *zap.Logger) *Port {
	if lookup == nil {
		lookup = ByNumber
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Port{lookup: lookup, logger: logger}
}

// ConfigureOutput implements core.OutputPort. The line starts low.
func (p *Port) ConfigureOutput(pin core.Pin) error {
	if pin > core.MaxPin {
		return fmt.Errorf("gpio %d out of range", pin)
	}
	line := p.lookup(pin)
	if line == nil {
		return fmt.Errorf("gpio %d not found", pin)
	}
	if err := line.Out(gpio.Low); err != nil {
		return fmt.Errorf("gpio %d: %w", pin, err)
	}

	p.mu.Lock()
	p.pins[pin] = line
	p.shadow &^= pin.Mask()
	p.mu.Unlock()

	p.logger.Debug("configured output", zap.String("line", line.Name()), zap.Uint8("gpio", uint8(pin)))
	return nil
}

// Raise implements core.OutputPort.
func (p *Port) Raise(mask core.PinMask) {
	p.write(mask, gpio.High)
}

// Lower implements core.OutputPort.
func (p *Port) Lower(mask core.PinMask) {
	p.write(mask, gpio.Low)
}

func (p *Port) write(mask core.PinMask, level gpio.Level) {
	p.mu.Lock()
	defer p.mu.Unlock()

	changed := mask &^ p.shadow
	if level == gpio.Low {
		changed = mask & p.shadow
	}
	for pin := core.Pin(0); changed != 0; pin++ {
		bit := pin.Mask()
		if changed&bit == 0 {
			continue
		}
		changed &^= bit

		line := p.pins[pin]
		if line == nil {
			continue
		}
		if err := line.Out(level); err != nil {
			// Runs on every timer firing; log the first failure only.
			if p.writeErrs == 0 {
				p.logger.Warn("gpio write failed", zap.Uint8("gpio", uint8(pin)), zap.Error(err))
			}
			p.writeErrs++
			continue
		}
		if level {
			p.shadow |= bit
		} else {
			p.shadow &^= bit
		}
	}
}

// Levels returns the last level written to every configured line.
func (p *Port) Levels() core.PinMask {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shadow
}

// WriteErrors returns the number of failed line writes.
func (p *Port) WriteErrors() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writeErrs
}
