package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodesAreStableStrings(t *testing.T) {
	cases := map[string]Code{
		"ok":                OK,
		"invalid_params":    InvalidParams,
		"invalid_period":    InvalidPeriod,
		"too_many_channels": TooManyChans,
		"unknown_pin":       UnknownPin,
		"pin_in_use":        PinInUse,
		"channel_bound":     ChannelBound,
		"not_configured":    NotConfigured,
		"timeout":           Timeout,
		"error":             Error,
	}
	for want, c := range cases {
		if c.Error() != want {
			t.Fatalf("code %q mismatch: got %q", want, c.Error())
		}
	}
}

func TestOf(t *testing.T) {
	if Of(nil) != OK {
		t.Errorf("Of(nil) = %q, want ok", Of(nil))
	}
	if Of(PinInUse) != PinInUse {
		t.Errorf("Of(PinInUse) = %q", Of(PinInUse))
	}
	wrapped := Wrap(UnknownPin, "register", "pin 40", nil)
	if Of(wrapped) != UnknownPin {
		t.Errorf("Of(wrapped) = %q, want unknown_pin", Of(wrapped))
	}
	if got := Of(fmt.Errorf("setup: %w", wrapped)); got != UnknownPin {
		t.Errorf("Of(fmt-wrapped) = %q, want unknown_pin", got)
	}
	if got := Of(Wrap(PinInUse, "register", "", TooManyChans)); got != PinInUse {
		t.Errorf("Of should report the outermost code, got %q", got)
	}
	if Of(errors.New("boom")) != Error {
		t.Errorf("Of(plain error) should fall back to Error")
	}
}

func TestWrapMatchesCode(t *testing.T) {
	cause := errors.New("gpio busy")
	err := fmt.Errorf("setup: %w", Wrap(PinInUse, "register", "", cause))

	if !errors.Is(err, PinInUse) {
		t.Error("errors.Is should match the wrapped code")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
	if got := Wrap(PinInUse, "register", "pin 2", nil).Error(); got != "register: pin_in_use: pin 2" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestWireNumbersRoundTrip(t *testing.T) {
	for _, c := range []Code{OK, InvalidParams, UnknownPin, PinInUse, ChannelBound, Timeout} {
		if got := FromNumber(Number(c)); got != c {
			t.Errorf("round trip of %q gave %q", c, got)
		}
	}
	if Number(Error) != 0xFF || FromNumber(0xFF) != Error {
		t.Errorf("generic error must use 0xFF")
	}
	if Number(PinInUse) != 5 {
		t.Errorf("wire numbers must not move: pin_in_use = %d", Number(PinInUse))
	}
}
