// Package serial opens the USB CDC / UART link to a PWM controller.
package serial

import (
	"io"
	"time"
)

// Port is an open serial link
type Port interface {
	io.ReadWriteCloser

	// Flush discards data received but not yet read
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate; USB CDC devices ignore it
	Baud int

	// ReadTimeout bounds each Read so the reader can notice shutdown
	ReadTimeout time.Duration
}

// DefaultConfig returns the configuration used by the firmware targets
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        250000,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// Opener opens a port. Tests substitute an in-memory link.
type Opener func(cfg *Config) (Port, error)
