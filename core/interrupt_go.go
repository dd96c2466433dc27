//go:build !tinygo

package core

// State stands in for the saved interrupt mask on hosts without one
type State uintptr

// disableInterrupts is a no-op off-target. Host timer backends serialise
// their handler against DisableIRQ themselves.
func disableInterrupts() State {
	return 0
}

// restoreInterrupts is a no-op off-target
func restoreInterrupts(state State) {}
