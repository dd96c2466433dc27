package core

import "errors"

// slot addresses an entry in the schedule arena.
type slot uint8

const (
	homeSlot slot = 0    // entry 0, tick 0, never freed
	nilSlot  slot = 0xFF // end of the free list

	// Each channel owns at most one non-home entry, so MaxChannels+1 slots
	// always suffice.
	scheduleSlots = MaxChannels + 1
)

// Entry is one point in the period where pins transition.
type Entry struct {
	Tick  uint32  // offset within the period, 0 <= Tick < period
	Set   PinMask // pins driven high at Tick
	Clear PinMask // pins driven low at Tick

	next slot
}

// Schedule is a fixed-capacity circular list of entries ordered by strictly
// increasing tick, linked by arena index. The last entry links back to the
// home entry.
type Schedule struct {
	period  uint32
	entries [scheduleSlots]Entry
	free    slot // free list, linked through Entry.next
	used    uint8
}

// reset leaves only the home entry, with every pin off.
func (s *Schedule) reset(period uint32, off PinMask) {
	s.period = period
	s.entries[homeSlot] = Entry{Tick: 0, Clear: off, next: homeSlot}
	s.free = nilSlot
	for i := scheduleSlots - 1; i > int(homeSlot); i-- {
		s.entries[i] = Entry{next: s.free}
		s.free = slot(i)
	}
	s.used = 1
}

// home returns the tick-0 entry.
func (s *Schedule) home() *Entry {
	return &s.entries[homeSlot]
}

func (s *Schedule) at(i slot) *Entry {
	return &s.entries[i]
}

// Len returns the number of linked entries, home included.
func (s *Schedule) Len() int {
	return int(s.used)
}

// alloc takes a slot from the free list. It returns nilSlot when exhausted.
func (s *Schedule) alloc() slot {
	i := s.free
	if i == nilSlot {
		return nilSlot
	}
	s.free = s.entries[i].next
	s.entries[i] = Entry{next: nilSlot}
	return i
}

// release returns an unlinked slot to the free list.
func (s *Schedule) release(i slot) {
	s.entries[i] = Entry{next: s.free}
	s.free = i
}

// link inserts slot i after prev.
func (s *Schedule) link(prev, i slot) {
	s.entries[i].next = s.entries[prev].next
	s.entries[prev].next = i
	s.used++
}

// unlink removes the entry following prev and frees its slot.
func (s *Schedule) unlink(prev slot) {
	i := s.entries[prev].next
	s.entries[prev].next = s.entries[i].next
	s.used--
	s.release(i)
}

// locate walks from home looking for tick. When an entry at tick exists it
// is returned as at; otherwise at is nilSlot and prev is the entry after
// which a new one belongs (prev.Tick < tick < prev.next.Tick, wrapping at
// the end).
func (s *Schedule) locate(tick uint32) (prev, at slot) {
	prev = homeSlot
	for n := 0; n < scheduleSlots; n++ {
		next := s.entries[prev].next
		if next == homeSlot {
			return prev, nilSlot
		}
		switch t := s.entries[next].Tick; {
		case t == tick:
			return prev, next
		case t > tick:
			return prev, nilSlot
		}
		prev = next
	}
	return prev, nilSlot
}

// Entries returns a copy of the linked entries in traversal order, starting
// with home. Not for interrupt context.
func (s *Schedule) Entries() []Entry {
	out := make([]Entry, 0, s.used)
	i := homeSlot
	for n := 0; n < scheduleSlots; n++ {
		out = append(out, s.entries[i])
		i = s.entries[i].next
		if i == homeSlot {
			break
		}
	}
	return out
}

var (
	errHomeTick   = errors.New("schedule: home entry not at tick 0")
	errOrder      = errors.New("schedule: ticks not strictly ascending")
	errTickRange  = errors.New("schedule: tick outside period")
	errEmptyEntry = errors.New("schedule: linked entry with empty masks")
	errNoWrap     = errors.New("schedule: traversal does not return home")
	errCount      = errors.New("schedule: entry count mismatch")
)

// check verifies the structural invariants: home at tick 0, strictly
// ascending ticks below the period, no empty non-home entries, and a
// traversal that wraps back to home.
func (s *Schedule) check() error {
	if s.entries[homeSlot].Tick != 0 {
		return errHomeTick
	}
	last := uint32(0)
	seen := 1
	i := s.entries[homeSlot].next
	for i != homeSlot {
		if seen >= scheduleSlots || i >= scheduleSlots {
			return errNoWrap
		}
		e := &s.entries[i]
		if e.Tick <= last {
			return errOrder
		}
		if e.Tick >= s.period {
			return errTickRange
		}
		if e.Set == 0 && e.Clear == 0 {
			return errEmptyEntry
		}
		last = e.Tick
		seen++
		i = e.next
	}
	if seen != int(s.used) {
		return errCount
	}
	return nil
}
