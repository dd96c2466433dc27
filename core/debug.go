package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// invariantViolation reports a broken schedule invariant and panics. It is
// reached only through a bug in the update logic.
func invariantViolation(msg string) {
	if debugPrintln != nil {
		debugPrintln("[PWM] invariant violated: " + msg)
	}
	panic("pwm: " + msg)
}

// DumpSchedule writes the schedule, one line per entry, through w.
func (e *Engine) DumpSchedule(w DebugWriter) {
	if w == nil {
		return
	}
	w("[PWM] period=" + utoa(e.period) + " entries=" + itoa(e.sched.Len()))
	for i, en := range e.sched.Entries() {
		w("[PWM] " + itoa(i) +
			" tick=" + utoa(en.Tick) +
			" set=" + formatMask(en.Set) +
			" clear=" + formatMask(en.Clear))
	}
}

// DumpTrace writes the handler trace ring through w, oldest first.
func (e *Engine) DumpTrace(w DebugWriter) {
	if w == nil {
		return
	}
	w("[TRACE] === fires=" + utoa(e.trace.fires) + " ===")
	for _, ev := range e.trace.snapshot() {
		w("[TRACE] #" + utoa(ev.Seq) +
			" slot=" + itoa(int(ev.Slot)) +
			" tick=" + utoa(ev.Tick) +
			" delay=" + utoa(ev.Delay))
	}
	w("[TRACE] === end ===")
}
