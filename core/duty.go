package core

// Duty updates. Everything here mutates the schedule and must run with the
// timer interrupt masked (see timerGuard).

// applyDuty rewrites the schedule so that ch is on from tick 0 until duty
// and off for the rest of the period. duty is clamped to the period.
func (e *Engine) applyDuty(ch *Channel, duty uint32) {
	if duty > e.period {
		duty = e.period
	}
	ch.Duty = duty

	bit := ch.Pin.Mask()
	s := &e.sched
	home := s.home()

	// Dropping the old edge first frees its slot before any allocation.
	s.strip(bit)

	switch {
	case duty == 0:
		home.Set &^= bit
		home.Clear |= bit
	case duty == e.period:
		home.Clear &^= bit
		home.Set |= bit
	default:
		home.Clear &^= bit
		home.Set |= bit
		s.addClear(duty, bit)
	}
}

// addClear merges bit into the clear mask of the entry at tick, creating and
// linking the entry if none exists.
func (s *Schedule) addClear(tick uint32, bit PinMask) {
	prev, at := s.locate(tick)
	if at == nilSlot {
		at = s.alloc()
		if at == nilSlot {
			invariantViolation("schedule: no free slot for tick " + utoa(tick))
		}
		s.at(at).Tick = tick
		s.link(prev, at)
	}
	s.at(at).Clear |= bit
}

// strip removes bit from every non-home entry and unlinks entries left with
// empty masks.
func (s *Schedule) strip(bit PinMask) {
	prev := homeSlot
	for n := 0; n < scheduleSlots; n++ {
		i := s.entries[prev].next
		if i == homeSlot {
			return
		}
		en := &s.entries[i]
		en.Set &^= bit
		en.Clear &^= bit
		if en.Set == 0 && en.Clear == 0 {
			s.unlink(prev)
			continue
		}
		prev = i
	}
}
