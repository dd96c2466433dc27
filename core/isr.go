package core

// handleTimer runs in interrupt context each time the countdown expires. It
// applies the current entry, arms the timer for the distance to the next
// entry and advances. Constant time, no allocation.
func (e *Engine) handleTimer() {
	cur := &e.sched.entries[e.current]
	nextSlot := cur.next
	next := &e.sched.entries[nextSlot]

	e.drive(cur.Set, cur.Clear)

	// The home entry sits at tick 0 of the following period.
	nextTick := next.Tick
	if nextSlot == homeSlot {
		nextTick = e.period
	}
	delay := nextTick - e.lastTick
	e.timer.Arm(delay)

	e.trace.record(uint8(e.current), cur.Tick, delay)
	e.lastTick = next.Tick
	e.current = nextSlot
}

// TraceRingSize is the number of handler invocations kept for post-mortem.
const TraceRingSize = 32

// TraceEvent records one handler invocation.
type TraceEvent struct {
	Seq   uint32 // invocation counter, starts at 1
	Slot  uint8  // arena slot applied
	Tick  uint32 // tick of the applied entry
	Delay uint32 // ticks armed for the next firing
}

// traceRing is written only by the handler.
type traceRing struct {
	events [TraceRingSize]TraceEvent
	head   uint8
	fires  uint32
}

func (r *traceRing) record(s uint8, tick, delay uint32) {
	r.fires++
	r.events[r.head] = TraceEvent{Seq: r.fires, Slot: s, Tick: tick, Delay: delay}
	r.head = (r.head + 1) % TraceRingSize
}

// snapshot returns the recorded events oldest first.
func (r *traceRing) snapshot() []TraceEvent {
	out := make([]TraceEvent, 0, TraceRingSize)
	for i := uint8(0); i < TraceRingSize; i++ {
		ev := r.events[(r.head+i)%TraceRingSize]
		if ev.Seq == 0 {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// Fires returns the number of handler invocations so far. Read it with the
// engine stopped for a stable value.
func (e *Engine) Fires() uint32 { return e.trace.fires }

// Trace returns the most recent handler invocations, oldest first.
func (e *Engine) Trace() []TraceEvent { return e.trace.snapshot() }
