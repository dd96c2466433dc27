// Command softpwm runs the PWM engine on a Linux board's GPIO lines using a
// board configuration file.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	boardconfig "multipwm/config"
	"multipwm/core"
	hostconfig "multipwm/host/config"
	"multipwm/host/periphpwm"
)

var (
	boardFile = flag.String("board", "", "board configuration file (default $DIMMER_BOARD_CONFIG)")
	envFile   = flag.String("env", ".env", "environment file")
	verbose   = flag.Bool("verbose", false, "log engine debug output")
)

func main() {
	flag.Parse()

	if err := hostconfig.LoadDotenv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg := hostconfig.Load()
	if *boardFile != "" {
		cfg.BoardConfig = *boardFile
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}

	logger, err := cfg.Logger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("softpwm failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *hostconfig.Config, logger *zap.Logger) error {
	board := boardconfig.DefaultConfig()
	if cfg.BoardConfig != "" {
		var err error
		if board, err = boardconfig.LoadFile(cfg.BoardConfig); err != nil {
			return err
		}
	}

	if *verbose {
		sugar := logger.Named("engine").Sugar()
		core.SetDebugWriter(func(s string) { sugar.Debug(s) })
		core.SetDebugEnabled(true)
	}

	if err := periphpwm.Init(); err != nil {
		return err
	}
	port := periphpwm.NewPort(nil, logger.Named("gpio"))
	timer := periphpwm.NewSoftTimer(nil, cfg.TickDuration)
	defer func() { _ = timer.Close() }()

	e, err := core.NewEngine(board.EngineConfig(), port, timer)
	if err != nil {
		return err
	}
	if err := board.Apply(e); err != nil {
		return err
	}
	// The daemon always runs PWM, auto_start or not.
	e.Start()

	logger.Info("running",
		zap.String("board", board.Name),
		zap.Uint32("period", e.Period()),
		zap.Duration("tick", timer.Tick()),
		zap.Duration("cycle", time.Duration(e.Period())*timer.Tick()),
		zap.Int("channels", len(e.Bound())),
		zap.Bool("invert", e.Inverted()))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)
	for s := range sig {
		if s == syscall.SIGUSR1 {
			e.Stop()
			e.DumpSchedule(func(line string) { logger.Info(line) })
			e.DumpTrace(func(line string) { logger.Info(line) })
			e.Start()
			continue
		}
		logger.Info("shutting down", zap.Stringer("signal", s))
		break
	}

	e.Stop()
	var pins core.PinMask
	for _, ch := range e.Bound() {
		pins |= ch.Pin.Mask()
	}
	if e.Inverted() {
		port.Raise(pins)
	} else {
		port.Lower(pins)
	}
	if n := port.WriteErrors(); n != 0 {
		logger.Warn("gpio writes failed", zap.Uint64("count", n))
	}
	return nil
}
