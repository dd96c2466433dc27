// Package client drives a remote PWM engine over the framed serial
// protocol.
package client

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"multipwm/core"
	"multipwm/errcode"
	"multipwm/host/serial"
	"multipwm/protocol"
)

// Config controls how a Client connects and how long it waits.
type Config struct {
	Serial          *serial.Config
	AckTimeout      time.Duration // per command frame
	ResponseTimeout time.Duration // per command including replies
	Logger          *zap.Logger
	Opener          serial.Opener // defaults to serial.Open
}

func (c *Config) applyDefaults() {
	if c.AckTimeout <= 0 {
		c.AckTimeout = 500 * time.Millisecond
	}
	if c.ResponseTimeout <= 0 {
		c.ResponseTimeout = 2 * time.Second
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Opener == nil {
		c.Opener = serial.Open
	}
}

// Status mirrors the pwm_status response.
type Status struct {
	Running  bool
	Period   uint32
	Channels uint8
}

// Entry mirrors one pwm_entry response.
type Entry struct {
	Tick  uint32
	Set   core.PinMask
	Clear core.PinMask
}

// Client is a connection to one PWM controller. Methods may be called from
// multiple goroutines; commands are sent one at a time.
type Client struct {
	transport *protocol.HostTransport
	log       *zap.Logger
	timeout   time.Duration
}

// Open opens the serial device in cfg and returns a connected client.
func Open(cfg Config) (*Client, error) {
	cfg.applyDefaults()
	if cfg.Serial == nil {
		return nil, fmt.Errorf("client: no serial configuration")
	}
	port, err := cfg.Opener(cfg.Serial)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	if err := port.Flush(); err != nil {
		cfg.Logger.Debug("flush failed", zap.Error(err))
	}
	cfg.Logger.Info("connected", zap.String("device", cfg.Serial.Device))
	return New(port, cfg), nil
}

// New wraps an already open link.
func New(port io.ReadWriteCloser, cfg Config) *Client {
	cfg.applyDefaults()
	return &Client{
		transport: protocol.NewHostTransport(port,
			protocol.WithAckTimeout(cfg.AckTimeout),
			protocol.WithLogger(cfg.Logger.Named("link")),
		),
		log:     cfg.Logger,
		timeout: cfg.ResponseTimeout,
	}
}

// send delivers one command and turns a pwm_error reply into an error.
func (c *Client) send(cmdID uint16, args ...uint32) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	msgs, err := c.transport.Exchange(ctx, cmdID, args...)
	if err != nil {
		return err
	}
	for _, m := range msgs {
		if m.ID != core.CmdPWMError {
			continue
		}
		vals, err := protocol.DecodeArgs(&m.Args, 2)
		if err != nil {
			return fmt.Errorf("decode pwm_error: %w", err)
		}
		if uint16(vals[0]) == cmdID {
			return errcode.Wrap(errcode.FromNumber(uint8(vals[1])), "device", "", nil)
		}
	}
	return nil
}

// ConfigureChannel binds channel to pin on the device.
func (c *Client) ConfigureChannel(channel uint8, pin core.Pin) error {
	c.log.Debug("config_pwm_channel", zap.Uint8("channel", channel), zap.Uint8("pin", uint8(pin)))
	if err := c.send(core.CmdConfigPWMChannel, uint32(channel), uint32(pin)); err != nil {
		return fmt.Errorf("configure channel %d: %w", channel, err)
	}
	return nil
}

// SetDuty sets one channel's on-time in ticks.
func (c *Client) SetDuty(channel uint8, duty uint32) error {
	c.log.Debug("set_pwm_duty", zap.Uint8("channel", channel), zap.Uint32("duty", duty))
	if err := c.send(core.CmdSetPWMDuty, uint32(channel), duty); err != nil {
		return fmt.Errorf("set duty on channel %d: %w", channel, err)
	}
	return nil
}

// SetDutyAll sets every bound channel to duty.
func (c *Client) SetDutyAll(duty uint32) error {
	c.log.Debug("set_pwm_duty_all", zap.Uint32("duty", duty))
	if err := c.send(core.CmdSetPWMDutyAll, duty); err != nil {
		return fmt.Errorf("set duty on all channels: %w", err)
	}
	return nil
}

// Start starts PWM generation on the device.
func (c *Client) Start() error {
	if err := c.send(core.CmdPWMStart); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	return nil
}

// Stop stops PWM generation; outputs hold their last level.
func (c *Client) Stop() error {
	if err := c.send(core.CmdPWMStop); err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	return nil
}

// Status queries the engine state.
func (c *Client) Status() (Status, error) {
	msgs, err := c.request(core.CmdGetPWMStatus)
	if err != nil {
		return Status{}, fmt.Errorf("status: %w", err)
	}
	return decodeStatus(msgs[len(msgs)-1])
}

// Schedule dumps the device schedule in traversal order.
func (c *Client) Schedule() ([]Entry, Status, error) {
	msgs, err := c.request(core.CmdDumpPWMSchedule)
	if err != nil {
		return nil, Status{}, fmt.Errorf("dump schedule: %w", err)
	}

	var entries []Entry
	for _, m := range msgs[:len(msgs)-1] {
		if m.ID != core.CmdPWMEntry {
			continue
		}
		args, err := protocol.DecodeArgs(&m.Args, 3)
		if err != nil {
			return nil, Status{}, fmt.Errorf("decode pwm_entry: %w", err)
		}
		entries = append(entries, Entry{
			Tick:  args[0],
			Set:   core.PinMask(args[1]),
			Clear: core.PinMask(args[2]),
		})
	}
	st, err := decodeStatus(msgs[len(msgs)-1])
	return entries, st, err
}

func (c *Client) request(cmdID uint16, args ...uint32) ([]protocol.Message, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	return c.transport.Request(ctx, core.CmdPWMStatus, cmdID, args...)
}

func decodeStatus(m protocol.Message) (Status, error) {
	args, err := protocol.DecodeArgs(&m.Args, 3)
	if err != nil {
		return Status{}, fmt.Errorf("decode pwm_status: %w", err)
	}
	return Status{
		Running:  args[0] != 0,
		Period:   args[1],
		Channels: uint8(args[2]),
	}, nil
}

// Close closes the link.
func (c *Client) Close() error {
	return c.transport.Close()
}
