// Command dimmerctl talks to a multi-channel PWM board over its serial link.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	boardconfig "multipwm/config"
	"multipwm/core"
	"multipwm/host/client"
	hostconfig "multipwm/host/config"
	"multipwm/light"
	"multipwm/sim"
)

const (
	flagDevice   = "device"
	flagBaud     = "baud"
	flagEnvFile  = "env-file"
	flagSimulate = "simulate"
	flagBoard    = "board"
	flagLogLevel = "log-level"
	flagGamma    = "gamma"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// session holds the connection shared by one invocation.
type session struct {
	cfg    *hostconfig.Config
	logger *zap.Logger
	client *client.Client
}

func newApp(out io.Writer) *cli.App {
	s := &session{}

	return &cli.App{
		Name:   "dimmerctl",
		Usage:  "control a multi-channel software PWM board",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagDevice,
				Aliases: []string{"d"},
				Usage:   "serial `DEVICE` of the board (default $DIMMER_DEVICE or /dev/ttyACM0)",
			},
			&cli.IntFlag{
				Name:  flagBaud,
				Usage: "baud rate, ignored for USB CDC",
			},
			&cli.StringSliceFlag{
				Name:  flagEnvFile,
				Usage: "load environment from `FILE` (default .env)",
			},
			&cli.BoolFlag{
				Name:  flagSimulate,
				Usage: "drive an in-process simulated board",
			},
			&cli.StringFlag{
				Name:  flagBoard,
				Usage: "board configuration `FILE` for --simulate",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "debug, info, warn or error",
			},
		},
		Before: s.setup,
		After:  s.teardown,
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "show whether PWM is running, its period and channel count",
				Action: s.status,
			},
			{
				Name:      "config",
				Usage:     "bind a channel to a GPIO pin",
				ArgsUsage: "CHANNEL PIN",
				Action:    s.configChannel,
			},
			{
				Name:      "duty",
				Usage:     "set one channel's on-time in ticks, or in percent with a % suffix",
				ArgsUsage: "CHANNEL VALUE",
				Action:    s.duty,
			},
			{
				Name:      "all",
				Usage:     "set every bound channel's on-time",
				ArgsUsage: "VALUE",
				Action:    s.dutyAll,
			},
			{
				Name:      "light",
				Usage:     "set a channel as a dimmable light",
				ArgsUsage: "CHANNEL on|off|PERCENT",
				Flags: []cli.Flag{
					&cli.Float64Flag{
						Name:  flagGamma,
						Usage: "brightness curve exponent, 1 for linear",
						Value: 1,
					},
				},
				Action: s.light,
			},
			{
				Name:   "start",
				Usage:  "start PWM generation",
				Action: s.start,
			},
			{
				Name:   "stop",
				Usage:  "stop PWM generation, outputs hold their level",
				Action: s.stop,
			},
			{
				Name:   "dump",
				Usage:  "print the transition schedule",
				Action: s.dump,
			},
		},
	}
}

func (s *session) setup(c *cli.Context) error {
	if err := hostconfig.LoadDotenv(c.StringSlice(flagEnvFile)...); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	cfg := hostconfig.Load()
	if c.IsSet(flagDevice) {
		cfg.Device = c.String(flagDevice)
	}
	if c.IsSet(flagBaud) {
		cfg.Baud = c.Int(flagBaud)
	}
	if c.IsSet(flagSimulate) {
		cfg.Simulate = c.Bool(flagSimulate)
	}
	if c.IsSet(flagBoard) {
		cfg.BoardConfig = c.String(flagBoard)
	}
	if c.IsSet(flagLogLevel) {
		cfg.LogLevel = c.String(flagLogLevel)
	}

	logger, err := cfg.Logger()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	s.cfg = cfg
	s.logger = logger
	return nil
}

// connect opens the link on first use so help output needs no board.
func (s *session) connect() (*client.Client, error) {
	if s.client != nil {
		return s.client, nil
	}
	ccfg := client.Config{
		Serial:     s.cfg.SerialConfig(),
		AckTimeout: s.cfg.AckTimeout,
		Logger:     s.logger,
	}
	if s.cfg.Simulate {
		e, err := s.simulatedEngine()
		if err != nil {
			return nil, err
		}
		s.client = client.Loopback(e, ccfg)
		return s.client, nil
	}
	cl, err := client.Open(ccfg)
	if err != nil {
		return nil, err
	}
	s.client = cl
	return cl, nil
}

func (s *session) simulatedEngine() (*core.Engine, error) {
	board := boardconfig.DefaultConfig()
	if s.cfg.BoardConfig != "" {
		var err error
		if board, err = boardconfig.LoadFile(s.cfg.BoardConfig); err != nil {
			return nil, err
		}
	}
	hw := sim.NewBoard()
	e, err := core.NewEngine(board.EngineConfig(), hw, hw)
	if err != nil {
		return nil, err
	}
	if err := board.Apply(e); err != nil {
		return nil, err
	}
	s.logger.Info("simulated board",
		zap.String("name", board.Name),
		zap.Uint32("period", board.Period),
		zap.Int("channels", len(board.Channels)))
	return e, nil
}

func (s *session) teardown(c *cli.Context) error {
	var err error
	if s.client != nil {
		err = s.client.Close()
	}
	if s.logger != nil {
		_ = s.logger.Sync()
	}
	return err
}

func (s *session) status(c *cli.Context) error {
	cl, err := s.connect()
	if err != nil {
		return err
	}
	st, err := cl.Status()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "running=%t period=%d channels=%d\n", st.Running, st.Period, st.Channels)
	return nil
}

func (s *session) configChannel(c *cli.Context) error {
	if c.NArg() != 2 {
		return usage(c)
	}
	channel, err := parseChannel(c.Args().Get(0))
	if err != nil {
		return err
	}
	pin, err := boardconfig.ParsePin(c.Args().Get(1))
	if err != nil {
		return err
	}
	cl, err := s.connect()
	if err != nil {
		return err
	}
	return cl.ConfigureChannel(channel, pin)
}

func (s *session) duty(c *cli.Context) error {
	if c.NArg() != 2 {
		return usage(c)
	}
	channel, err := parseChannel(c.Args().Get(0))
	if err != nil {
		return err
	}
	cl, err := s.connect()
	if err != nil {
		return err
	}
	duty, err := s.parseDuty(cl, c.Args().Get(1))
	if err != nil {
		return err
	}
	return cl.SetDuty(channel, duty)
}

func (s *session) dutyAll(c *cli.Context) error {
	if c.NArg() != 1 {
		return usage(c)
	}
	cl, err := s.connect()
	if err != nil {
		return err
	}
	duty, err := s.parseDuty(cl, c.Args().Get(0))
	if err != nil {
		return err
	}
	return cl.SetDutyAll(duty)
}

func (s *session) light(c *cli.Context) error {
	if c.NArg() != 2 {
		return usage(c)
	}
	channel, err := parseChannel(c.Args().Get(0))
	if err != nil {
		return err
	}
	cl, err := s.connect()
	if err != nil {
		return err
	}
	st, err := cl.Status()
	if err != nil {
		return err
	}

	bulb := light.NewLightbulb(cl, channel, st.Period)
	bulb.Gamma = c.Float64(flagGamma)
	switch arg := strings.ToLower(c.Args().Get(1)); arg {
	case "on":
		err = bulb.SetOn(true)
	case "off":
		err = bulb.SetOn(false)
	default:
		pct, perr := strconv.Atoi(strings.TrimSuffix(arg, "%"))
		if perr != nil {
			return fmt.Errorf("invalid brightness %q", arg)
		}
		err = bulb.Set(true, pct)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "channel %d duty=%d\n", channel, bulb.Duty())
	return nil
}

func (s *session) start(c *cli.Context) error {
	cl, err := s.connect()
	if err != nil {
		return err
	}
	return cl.Start()
}

func (s *session) stop(c *cli.Context) error {
	cl, err := s.connect()
	if err != nil {
		return err
	}
	return cl.Stop()
}

func (s *session) dump(c *cli.Context) error {
	cl, err := s.connect()
	if err != nil {
		return err
	}
	entries, st, err := cl.Schedule()
	if err != nil {
		return err
	}
	w := c.App.Writer
	fmt.Fprintf(w, "period=%d entries=%d running=%t\n", st.Period, len(entries), st.Running)
	for i, en := range entries {
		fmt.Fprintf(w, "%d tick=%d set=0b%b clear=0b%b\n", i, en.Tick, en.Set, en.Clear)
	}
	return nil
}

func usage(c *cli.Context) error {
	return fmt.Errorf("usage: %s %s %s", c.App.Name, c.Command.Name, c.Command.ArgsUsage)
}

func parseChannel(s string) (uint8, error) {
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid channel %q", s)
	}
	return uint8(n), nil
}

// parseDuty accepts ticks or a percent of the board's period.
func (s *session) parseDuty(cl *client.Client, v string) (uint32, error) {
	if pct, ok := strings.CutSuffix(v, "%"); ok {
		p, err := strconv.Atoi(pct)
		if err != nil {
			return 0, fmt.Errorf("invalid percent %q", v)
		}
		st, err := cl.Status()
		if err != nil {
			return 0, err
		}
		return light.DutyFor(p, st.Period, 1), nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid duty %q", v)
	}
	return uint32(n), nil
}
