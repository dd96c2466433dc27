// Package mathx holds small generic numeric helpers.
package mathx

import "golang.org/x/exp/constraints"

// Clamp limits v to [lo, hi]. If lo > hi, the bounds are swapped.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Scale returns v*num/den rounded down, computed in 64 bits. A zero
// denominator yields 0.
func Scale[T ~uint8 | ~uint16 | ~uint32](v, num, den T) T {
	if den == 0 {
		return 0
	}
	return T(uint64(v) * uint64(num) / uint64(den))
}
