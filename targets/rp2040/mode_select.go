//go:build rp2040

package main

// ModeConfig determines which mode to run
type ModeConfig struct {
	// Standalone runs a breathing light on the on-board LED without a host.
	// Otherwise the board waits for PWM commands over USB.
	Standalone bool
}

// GetMode returns the mode selected at build time
func GetMode() ModeConfig {
	return ModeConfig{
		Standalone: false,
	}
}
