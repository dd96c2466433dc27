package core

import (
	"errors"

	"multipwm/errcode"
)

// MaxPeriod bounds the period so tick differences never overflow uint32
// arithmetic in the interrupt handler.
const MaxPeriod uint32 = 0x7FFFFFFF

// Config selects the period and channel count of an Engine.
type Config struct {
	Period   uint32 // timer ticks per PWM cycle
	Channels uint8  // number of logical channels, 1..MaxChannels
	Invert   bool   // drive pins active-low
}

// Engine generates PWM on up to MaxChannels pins from one countdown timer.
//
// The timer handler replays a circular schedule of transitions. Every
// structural change to the schedule happens with the timer interrupt masked,
// so the handler always sees a consistent list. Engine methods are not safe
// for concurrent use by multiple goroutines; callers serialise updates.
type Engine struct {
	period uint32
	invert bool
	port   OutputPort
	timer  CountdownTimer

	chans channelTable
	sched Schedule

	// Interrupt handler state, reset by every timerGuard.
	current  slot
	lastTick uint32
	running  bool

	trace traceRing
}

// NewEngine validates cfg, installs the timer handler and returns a stopped
// engine with no channels bound.
func NewEngine(cfg Config, port OutputPort, timer CountdownTimer) (*Engine, error) {
	switch {
	case port == nil || timer == nil:
		return nil, errcode.Wrap(errcode.InvalidParams, "new_engine", "nil port or timer", nil)
	case cfg.Period < 2 || cfg.Period > MaxPeriod:
		return nil, errcode.Wrap(errcode.InvalidPeriod, "new_engine", "period "+utoa(cfg.Period), nil)
	case cfg.Channels == 0 || cfg.Channels > MaxChannels:
		return nil, errcode.Wrap(errcode.TooManyChans, "new_engine", "channels "+itoa(int(cfg.Channels)), nil)
	}

	e := &Engine{
		period:  cfg.Period,
		invert:  cfg.Invert,
		port:    port,
		timer:   timer,
		current: homeSlot,
	}
	e.chans.init(cfg.Channels)
	e.sched.reset(cfg.Period, 0)

	if err := timer.Configure(e.handleTimer); err != nil {
		return nil, errcode.Wrap(errcode.Error, "new_engine", "timer configure", err)
	}
	DebugPrintln("[PWM] engine period=" + utoa(cfg.Period) + " channels=" + itoa(int(cfg.Channels)))
	return e, nil
}

// Period returns the PWM period in timer ticks.
func (e *Engine) Period() uint32 { return e.period }

// Channels returns the configured channel count.
func (e *Engine) Channels() uint8 { return e.chans.count }

// Inverted reports whether outputs are active-low.
func (e *Engine) Inverted() bool { return e.invert }

// Running reports whether the timer is armed and its interrupt enabled.
func (e *Engine) Running() bool { return e.running }

// Register binds channel to pin and configures the pin as an output driven
// to its off level. A channel index beyond the configured count is ignored.
// Binding is permanent: a bound channel or a pin already in use is an error.
func (e *Engine) Register(channel uint8, pin Pin) error {
	if channel >= e.chans.count {
		return nil
	}
	if err := e.chans.canBind(channel, pin); err != nil {
		return err
	}
	if err := e.port.ConfigureOutput(pin); err != nil {
		return errcode.Wrap(errcode.UnknownPin, "register", "pin "+itoa(int(pin)), err)
	}

	g := e.suspend()
	e.chans.bind(channel, pin)
	bit := pin.Mask()
	home := e.sched.home()
	home.Set &^= bit
	home.Clear |= bit
	e.drive(0, bit)
	g.resume()

	DebugPrintln("[PWM] channel " + itoa(int(channel)) + " -> pin " + itoa(int(pin)))
	return nil
}

// SetDuty sets the on-time of one channel in ticks. Values above the period
// are clamped to it. Unknown or unbound channels are ignored.
func (e *Engine) SetDuty(channel uint8, duty uint32) {
	ch := e.chans.lookup(channel)
	if ch == nil {
		return
	}
	g := e.suspend()
	e.applyDuty(ch, duty)
	g.resume()
}

// SetDutyAll applies duty to every bound channel inside one critical
// section.
func (e *Engine) SetDutyAll(duty uint32) {
	g := e.suspend()
	e.chans.each(func(ch *Channel) {
		e.applyDuty(ch, duty)
	})
	g.resume()
}

// Duty returns the stored duty of a bound channel.
func (e *Engine) Duty(channel uint8) (uint32, bool) {
	ch := e.chans.lookup(channel)
	if ch == nil {
		return 0, false
	}
	return ch.Duty, true
}

// Bound returns a copy of every bound channel in index order.
func (e *Engine) Bound() []Channel {
	var out []Channel
	e.chans.each(func(ch *Channel) {
		out = append(out, *ch)
	})
	return out
}

// Entries returns a snapshot of the schedule starting at the home entry.
func (e *Engine) Entries() []Entry {
	return e.sched.Entries()
}

// Start arms the timer to fire almost immediately from the home entry and
// enables its interrupt. Starting a running engine does nothing.
func (e *Engine) Start() {
	if e.running {
		return
	}
	e.current = homeSlot
	e.lastTick = 0
	e.startTimer()
	DebugPrintln("[PWM] start")
}

// Stop masks the timer interrupt and halts the countdown. Pins keep the
// level of the last transition applied.
func (e *Engine) Stop() {
	if !e.running {
		return
	}
	e.stopTimer()
	DebugPrintln("[PWM] stop")
}

func (e *Engine) startTimer() {
	state := disableInterrupts()
	e.timer.Arm(1)
	e.timer.EnableIRQ()
	e.running = true
	restoreInterrupts(state)
}

func (e *Engine) stopTimer() {
	state := disableInterrupts()
	e.timer.DisableIRQ()
	e.timer.Halt()
	e.running = false
	restoreInterrupts(state)
}

// timerGuard is the critical section around schedule mutation. suspend
// masks the timer if it was running; resume rewinds the handler to the home
// entry and restarts the timer only if suspend stopped it.
type timerGuard struct {
	e          *Engine
	wasRunning bool
}

func (e *Engine) suspend() timerGuard {
	g := timerGuard{e: e, wasRunning: e.running}
	if g.wasRunning {
		e.stopTimer()
	}
	return g
}

func (g timerGuard) resume() {
	g.e.current = homeSlot
	g.e.lastTick = 0
	if g.wasRunning {
		g.e.startTimer()
	}
}

// drive applies one transition to the output port, honouring inversion.
func (e *Engine) drive(set, clear PinMask) {
	if e.invert {
		set, clear = clear, set
	}
	if set != 0 {
		e.port.Raise(set)
	}
	if clear != 0 {
		e.port.Lower(clear)
	}
}

// Check verifies the schedule structure and that it encodes exactly the
// stored duty of every bound channel.
func (e *Engine) Check() error {
	if err := e.sched.check(); err != nil {
		return err
	}
	home := e.sched.home()
	if home.Set&home.Clear != 0 {
		return errors.New("schedule: home sets and clears the same pin")
	}

	var used PinMask
	for _, en := range e.sched.Entries() {
		used |= en.Set | en.Clear
		if en.Tick != 0 && en.Set != 0 {
			return errors.New("schedule: set mask at tick " + utoa(en.Tick))
		}
	}
	if stray := used &^ e.chans.pins; stray != 0 {
		return errors.New("schedule: unbound pins " + formatMask(stray))
	}

	var err error
	e.chans.each(func(ch *Channel) {
		if err == nil {
			err = e.checkChannel(ch)
		}
	})
	return err
}

func (e *Engine) checkChannel(ch *Channel) error {
	bit := ch.Pin.Mask()
	home := e.sched.home()
	prefix := "channel " + itoa(int(ch.Index)) + ": "

	if ch.Duty > e.period {
		return errors.New(prefix + "duty above period")
	}

	clears := 0
	var clearTick uint32
	for _, en := range e.sched.Entries()[1:] {
		if en.Clear&bit != 0 {
			clears++
			clearTick = en.Tick
		}
	}

	switch {
	case ch.Duty == 0:
		if home.Clear&bit == 0 || clears != 0 {
			return errors.New(prefix + "duty 0 must clear at home only")
		}
	case ch.Duty == e.period:
		if home.Set&bit == 0 || clears != 0 {
			return errors.New(prefix + "full duty must set at home only")
		}
	default:
		if home.Set&bit == 0 {
			return errors.New(prefix + "not set at home")
		}
		if clears != 1 || clearTick != ch.Duty {
			return errors.New(prefix + "expected one clear at tick " + utoa(ch.Duty))
		}
	}
	return nil
}
