// Package config loads the JSON description of a PWM board: timing,
// polarity, and the channel to pin map with initial duties.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"multipwm/core"
	"multipwm/errcode"
)

// ChannelConfig describes one output channel.
type ChannelConfig struct {
	Name    string  `json:"name,omitempty"`
	Pin     string  `json:"pin"`               // "gpio2", "GPIO2" or "2"
	Duty    uint32  `json:"duty,omitempty"`    // initial on-time in ticks
	Percent float64 `json:"percent,omitempty"` // initial on-time in percent, used when duty is 0
}

// BoardConfig is the top-level board description.
type BoardConfig struct {
	Name        string          `json:"name,omitempty"`
	TickHz      uint32          `json:"tick_hz"`      // countdown timer rate
	FrequencyHz uint32          `json:"frequency_hz"` // derives period when period is 0
	Period      uint32          `json:"period"`       // ticks per PWM cycle
	Invert      bool            `json:"invert"`       // active-low outputs
	AutoStart   bool            `json:"auto_start"`
	Channels    []ChannelConfig `json:"channels"`
}

// LoadConfig parses a JSON board configuration and applies defaults
func LoadConfig(jsonData []byte) (*BoardConfig, error) {
	var cfg BoardConfig
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, errcode.Wrap(errcode.InvalidParams, "load_config", "malformed JSON", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads and parses a board configuration file
func LoadFile(path string) (*BoardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errcode.Wrap(errcode.NotConfigured, "load_config", path, err)
	}
	return LoadConfig(data)
}

// applyDefaults fills in missing timing values
func applyDefaults(cfg *BoardConfig) {
	if cfg.TickHz == 0 {
		cfg.TickHz = core.RP2040TickHz
	}
	if cfg.Period == 0 {
		if cfg.FrequencyHz != 0 {
			cfg.Period = core.PeriodForFrequency(cfg.TickHz, cfg.FrequencyHz)
		} else {
			cfg.Period = core.DefaultPeriod
		}
	}
}

// Validate checks ranges and that no pin is used twice
func (c *BoardConfig) Validate() error {
	if c.Period < 2 || c.Period > core.MaxPeriod {
		return errcode.Wrap(errcode.InvalidPeriod, "validate", "period "+strconv.FormatUint(uint64(c.Period), 10), nil)
	}
	if len(c.Channels) == 0 || len(c.Channels) > core.MaxChannels {
		return errcode.Wrap(errcode.TooManyChans, "validate", strconv.Itoa(len(c.Channels))+" channels", nil)
	}
	var used core.PinMask
	for i, ch := range c.Channels {
		pin, err := ParsePin(ch.Pin)
		if err != nil {
			return errcode.Wrap(errcode.UnknownPin, "validate", "channel "+strconv.Itoa(i), err)
		}
		if used&pin.Mask() != 0 {
			return errcode.Wrap(errcode.PinInUse, "validate", ch.Pin, nil)
		}
		used |= pin.Mask()
		if ch.Percent < 0 || ch.Percent > 100 {
			return errcode.Wrap(errcode.InvalidParams, "validate", "channel "+strconv.Itoa(i)+" percent out of range", nil)
		}
	}
	return nil
}

// EngineConfig returns the core engine configuration
func (c *BoardConfig) EngineConfig() core.Config {
	return core.Config{
		Period:   c.Period,
		Channels: uint8(len(c.Channels)),
		Invert:   c.Invert,
	}
}

// InitialDuty returns the starting duty of channel i in ticks
func (c *BoardConfig) InitialDuty(i int) uint32 {
	ch := c.Channels[i]
	if ch.Duty != 0 || ch.Percent == 0 {
		return ch.Duty
	}
	return uint32(float64(c.Period) * ch.Percent / 100)
}

// Apply registers every channel on e, sets initial duties, and starts the
// engine when AutoStart is set
func (c *BoardConfig) Apply(e *core.Engine) error {
	for i, ch := range c.Channels {
		pin, err := ParsePin(ch.Pin)
		if err != nil {
			return errcode.Wrap(errcode.UnknownPin, "apply", ch.Pin, err)
		}
		if err := e.Register(uint8(i), pin); err != nil {
			return err
		}
		if d := c.InitialDuty(i); d != 0 {
			e.SetDuty(uint8(i), d)
		}
	}
	if c.AutoStart {
		e.Start()
	}
	return nil
}

// ParsePin accepts "gpioN", "GPION" or a bare number
func ParsePin(s string) (core.Pin, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimPrefix(s, "gpio")
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, errcode.Wrap(errcode.UnknownPin, "parse_pin", s, err)
	}
	if n > uint64(core.MaxPin) {
		return 0, errcode.Wrap(errcode.UnknownPin, "parse_pin", s, nil)
	}
	return core.Pin(n), nil
}

// DefaultConfig returns a single dimmable LED on GPIO 2, active low, over a
// full 16-bit period
func DefaultConfig() *BoardConfig {
	cfg := &BoardConfig{
		Name:      "led",
		Invert:    true,
		AutoStart: true,
		Channels: []ChannelConfig{
			{Name: "led", Pin: "gpio2"},
		},
	}
	applyDefaults(cfg)
	return cfg
}
