package core

// Tick rates and periods for the supported countdown sources
const (
	DefaultPeriod = 65535   // one period per full 16-bit reload
	RP2040TickHz  = 1000000 // TIMER peripheral, 1 tick per microsecond
)

// PeriodForFrequency returns the period in ticks that yields pwmHz at a
// timer running at tickHz. The result is never below 2.
func PeriodForFrequency(tickHz, pwmHz uint32) uint32 {
	if pwmHz == 0 {
		return MaxPeriod
	}
	p := tickHz / pwmHz
	if p < 2 {
		p = 2
	}
	if p > MaxPeriod {
		p = MaxPeriod
	}
	return p
}

// DutyFraction converts num/den of a period into ticks, rounding down.
func DutyFraction(period, num, den uint32) uint32 {
	if den == 0 || num >= den {
		return period
	}
	return uint32(uint64(period) * uint64(num) / uint64(den))
}
