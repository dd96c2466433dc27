package core_test

import (
	"math/rand"
	"testing"

	"multipwm/core"
	"multipwm/sim"
)

func newSimEngine(t *testing.T, cfg core.Config, pins ...core.Pin) (*core.Engine, *sim.Board) {
	t.Helper()
	b := sim.NewBoard()
	e, err := core.NewEngine(cfg, b, b)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	for ch, pin := range pins {
		if err := e.Register(uint8(ch), pin); err != nil {
			t.Fatalf("Register(%d, %d) failed: %v", ch, pin, err)
		}
	}
	return e, b
}

func TestScenarioSingleChannel(t *testing.T) {
	e, b := newSimEngine(t, core.Config{Period: 65535, Channels: 1}, 0)
	e.SetDuty(0, 16384)

	entries := e.Entries()
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Tick != 0 || entries[0].Set != 0x1 || entries[0].Clear != 0 {
		t.Errorf("Unexpected home entry: %+v", entries[0])
	}
	if entries[1].Tick != 16384 || entries[1].Set != 0 || entries[1].Clear != 0x1 {
		t.Errorf("Unexpected edge entry: %+v", entries[1])
	}

	e.Start()
	levels := b.Record(0, 65535)
	for i, l := range levels {
		want := i < 16384
		if l != want {
			t.Fatalf("Tick %d: expected level %v, got %v", i, want, l)
		}
	}
}

func TestScenarioSharedEdge(t *testing.T) {
	e, _ := newSimEngine(t, core.Config{Period: 1000, Channels: 2}, 0, 1)
	e.SetDuty(0, 200)
	e.SetDuty(1, 200)

	entries := e.Entries()
	if len(entries) != 2 {
		t.Fatalf("Expected one shared edge, got %d entries", len(entries))
	}
	if entries[0].Set != 0x3 {
		t.Errorf("Expected home set mask 0b11, got %#x", entries[0].Set)
	}
	if entries[1].Tick != 200 || entries[1].Clear != 0x3 {
		t.Errorf("Unexpected edge entry: %+v", entries[1])
	}

	// Moving channel 0 splits the shared edge.
	e.SetDuty(0, 300)
	entries = e.Entries()
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	if entries[1].Tick != 200 || entries[1].Clear != 0x2 {
		t.Errorf("Expected tick 200 to keep only channel 1, got %+v", entries[1])
	}
	if entries[2].Tick != 300 || entries[2].Clear != 0x1 {
		t.Errorf("Expected new edge at 300 for channel 0, got %+v", entries[2])
	}
	if err := e.Check(); err != nil {
		t.Errorf("Check failed: %v", err)
	}
}

func TestScenarioUpdateWhileRunning(t *testing.T) {
	e, b := newSimEngine(t, core.Config{Period: 1000, Channels: 1}, 0)
	e.SetDuty(0, 500)
	e.Start()

	// Stop mid-period, past the edge.
	b.Advance(700)
	if b.Level(0) {
		t.Fatal("Expected pin low after the edge")
	}

	b.ResetArms()
	e.SetDuty(0, 600)
	if !e.Running() {
		t.Fatal("Engine must keep running after SetDuty")
	}
	if arms := b.Arms(); len(arms) != 1 || arms[0] != 1 {
		t.Errorf("Expected a single 1-tick restart, got %v", arms)
	}

	// The next firing is the home entry: pin high on the very next tick.
	levels := b.Record(0, 1000)
	if !levels[0] {
		t.Error("Expected home entry to fire first after the update")
	}
	if n := sim.HighTicks(levels); n != 600 {
		t.Errorf("Expected 600 high ticks, got %d", n)
	}
}

func TestDutyProportionality(t *testing.T) {
	const period = 500
	pins := []core.Pin{2, 3, 5, 7, 11, 13, 17, 19}
	duties := []uint32{0, 1, 125, 250, 250, 499, 500, 9999}

	e, b := newSimEngine(t, core.Config{Period: period, Channels: 8}, pins...)
	for ch, d := range duties {
		e.SetDuty(uint8(ch), d)
	}
	if err := e.Check(); err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	e.Start()
	regs := b.Sample(period * 4)
	for ch, pin := range pins {
		want := duties[ch]
		if want > period {
			want = period
		}
		high := 0
		for _, r := range regs {
			if r&pin.Mask() != 0 {
				high++
			}
		}
		if uint32(high) != want*4 {
			t.Errorf("Channel %d: expected %d high ticks, got %d", ch, want*4, high)
		}
	}
}

func TestSetDutyAll(t *testing.T) {
	e, b := newSimEngine(t, core.Config{Period: 1000, Channels: 3}, 4, 5, 6)
	e.Start()
	b.Advance(10)
	b.ResetArms()

	e.SetDutyAll(400)
	if arms := b.Arms(); len(arms) != 1 {
		t.Errorf("Expected one restart for SetDutyAll, got %v", arms)
	}
	entries := e.Entries()
	if len(entries) != 2 || entries[1].Clear != 0x70 {
		t.Errorf("Expected one shared edge for all channels, got %+v", entries)
	}
	for ch := uint8(0); ch < 3; ch++ {
		if d, _ := e.Duty(ch); d != 400 {
			t.Errorf("Channel %d: expected duty 400, got %d", ch, d)
		}
	}

	e.Stop()
	e.SetDutyAll(0)
	if e.Running() {
		t.Error("SetDutyAll must not start a stopped engine")
	}
	if len(e.Entries()) != 1 {
		t.Error("Expected only the home entry at duty 0")
	}
}

func TestInvertedOutputIsComplement(t *testing.T) {
	run := func(invert bool) []core.PinMask {
		e, b := newSimEngine(t, core.Config{Period: 300, Channels: 2, Invert: invert}, 1, 2)
		e.SetDuty(0, 100)
		e.SetDuty(1, 250)
		e.Start()
		return b.Sample(900)
	}
	normal := run(false)
	inverted := run(true)
	const pins = core.PinMask(0x6)
	for i := range normal {
		if normal[i]&pins != ^inverted[i]&pins {
			t.Fatalf("Tick %d: %#x is not the complement of %#x", i, inverted[i], normal[i])
		}
	}
}

func TestStopFreezesOutputs(t *testing.T) {
	e, b := newSimEngine(t, core.Config{Period: 100, Channels: 1}, 0)
	e.SetDuty(0, 50)
	e.Start()
	b.Advance(20)
	e.Stop()
	fires := b.Fires()
	b.Advance(500)
	if b.Fires() != fires {
		t.Error("Handler ran after Stop")
	}
	if !b.Level(0) {
		t.Error("Expected pin to hold its level after Stop")
	}
}

func TestRandomUpdatesKeepInvariants(t *testing.T) {
	const period = 1000
	pins := []core.Pin{0, 1, 2, 3, 4, 5, 6, 7}
	e, b := newSimEngine(t, core.Config{Period: period, Channels: 8}, pins...)
	e.Start()

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		ch := uint8(rng.Intn(9)) // 8 is out of range
		var duty uint32
		switch rng.Intn(4) {
		case 0:
			duty = 0
		case 1:
			duty = period
		default:
			duty = uint32(rng.Intn(period + 50))
		}
		e.SetDuty(ch, duty)
		if err := e.Check(); err != nil {
			t.Fatalf("Step %d (ch=%d duty=%d): %v", i, ch, duty, err)
		}
		if got := len(e.Entries()); got > core.MaxChannels+1 {
			t.Fatalf("Step %d: %d entries exceed the arena", i, got)
		}
		b.Advance(uint64(rng.Intn(period)))
	}
}

func TestInsertionOrderDoesNotMatter(t *testing.T) {
	pins := []core.Pin{2, 3, 5, 7}
	cfg := core.Config{Period: 1000, Channels: 4}
	a, _ := newSimEngine(t, cfg, pins...)
	b, _ := newSimEngine(t, cfg, pins...)

	a.SetDuty(0, 250)
	a.SetDuty(1, 500)
	a.SetDuty(2, 250)
	a.SetDuty(3, 1000)

	b.SetDuty(3, 10)
	b.SetDuty(2, 250)
	b.SetDuty(0, 700)
	b.SetDuty(1, 0)
	b.SetDuty(3, 1000)
	b.SetDuty(1, 500)
	b.SetDuty(0, 250)

	ea, eb := a.Entries(), b.Entries()
	if len(ea) != len(eb) {
		t.Fatalf("Expected %d entries, got %d", len(ea), len(eb))
	}
	for i := range ea {
		if ea[i].Tick != eb[i].Tick || ea[i].Set != eb[i].Set || ea[i].Clear != eb[i].Clear {
			t.Errorf("Entry %d differs: %+v vs %+v", i, ea[i], eb[i])
		}
	}
}
