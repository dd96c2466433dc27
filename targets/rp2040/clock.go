//go:build rp2040

package main

import (
	"device/rp"
	"runtime/interrupt"
)

// The engine owns ALARM1. ALARM0 belongs to the TinyGo runtime.
const alarmBit = 1 << 1

// alarmHandler is the engine's timer handler, installed by Configure.
var alarmHandler func()

// AlarmTimer implements core.CountdownTimer on TIMER ALARM1. The timer
// counts microseconds, one tick per microsecond. Each delay counts from the
// moment Arm runs, so handler latency adds to every edge and the real cycle
// runs slightly longer than the engine period.
type AlarmTimer struct {
	irq interrupt.Interrupt
}

// NewAlarmTimer registers the ALARM1 interrupt. The alarm stays disarmed and
// its interrupt source masked until the engine starts.
func NewAlarmTimer() *AlarmTimer {
	return &AlarmTimer{
		irq: interrupt.New(rp.IRQ_TIMER_IRQ_1, handleAlarm),
	}
}

func handleAlarm(interrupt.Interrupt) {
	rp.TIMER.INTF.ClearBits(alarmBit)
	rp.TIMER.INTR.Set(alarmBit)
	if h := alarmHandler; h != nil {
		h()
	}
}

// Configure implements core.CountdownTimer.
func (t *AlarmTimer) Configure(handler func()) error {
	t.Halt()
	rp.TIMER.INTE.ClearBits(alarmBit)
	rp.TIMER.INTR.Set(alarmBit)
	alarmHandler = handler
	t.irq.SetPriority(0x00)
	t.irq.Enable()
	return nil
}

// Arm implements core.CountdownTimer. The alarm matches the low 32 bits of
// the counter exactly, so a target that has already passed is forced
// instead of waiting a full wrap.
func (t *AlarmTimer) Arm(ticks uint32) {
	if ticks == 0 {
		ticks = 1
	}
	target := rp.TIMER.TIMERAWL.Get() + ticks
	rp.TIMER.ALARM1.Set(target)
	if int32(rp.TIMER.TIMERAWL.Get()-target) >= 0 && rp.TIMER.ARMED.Get()&alarmBit != 0 {
		rp.TIMER.ARMED.Set(alarmBit)
		rp.TIMER.INTF.SetBits(alarmBit)
	}
}

// Halt implements core.CountdownTimer. Writing the bit to ARMED disarms.
func (t *AlarmTimer) Halt() {
	rp.TIMER.ARMED.Set(alarmBit)
	rp.TIMER.INTF.ClearBits(alarmBit)
}

// EnableIRQ implements core.CountdownTimer.
func (t *AlarmTimer) EnableIRQ() {
	rp.TIMER.INTE.SetBits(alarmBit)
}

// DisableIRQ implements core.CountdownTimer. On a single core a masked
// source cannot have a handler in progress.
func (t *AlarmTimer) DisableIRQ() {
	rp.TIMER.INTE.ClearBits(alarmBit)
}

// Uptime reads the full 64-bit microsecond counter.
func Uptime() uint64 {
	for {
		high1 := rp.TIMER.TIMERAWH.Get()
		low := rp.TIMER.TIMERAWL.Get()
		high2 := rp.TIMER.TIMERAWH.Get()

		// Retry on rollover of the low word.
		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}
