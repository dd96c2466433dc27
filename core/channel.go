package core

import "multipwm/errcode"

// MaxChannels is the largest channel count an engine supports.
const MaxChannels = 8

// Channel is one logical dimming output bound to a physical pin.
type Channel struct {
	Index uint8
	Pin   Pin
	Duty  uint32 // 0..period

	bound bool
}

// channelTable maps logical channel indexes to pins. Channels are bound once
// and never removed.
type channelTable struct {
	count    uint8
	channels [MaxChannels]Channel
	pins     PinMask // every bound pin
}

func (t *channelTable) init(count uint8) {
	*t = channelTable{count: count}
	for i := range t.channels {
		t.channels[i].Index = uint8(i)
	}
}

// lookup returns the bound channel at index, or nil when the index is out of
// range or not bound yet.
func (t *channelTable) lookup(index uint8) *Channel {
	if index >= t.count {
		return nil
	}
	ch := &t.channels[index]
	if !ch.bound {
		return nil
	}
	return ch
}

// canBind reports why index/pin cannot be bound, or nil.
func (t *channelTable) canBind(index uint8, pin Pin) error {
	if pin > MaxPin {
		return errcode.Wrap(errcode.UnknownPin, "register", "pin "+itoa(int(pin)), nil)
	}
	if t.channels[index].bound {
		return errcode.Wrap(errcode.ChannelBound, "register", "channel "+itoa(int(index)), nil)
	}
	if t.pins&pin.Mask() != 0 {
		return errcode.Wrap(errcode.PinInUse, "register", "pin "+itoa(int(pin)), nil)
	}
	return nil
}

// bind records the channel/pin pair. It does not touch hardware.
func (t *channelTable) bind(index uint8, pin Pin) *Channel {
	ch := &t.channels[index]
	ch.Pin = pin
	ch.Duty = 0
	ch.bound = true
	t.pins |= pin.Mask()
	return ch
}

// each calls fn for every bound channel in index order.
func (t *channelTable) each(fn func(ch *Channel)) {
	for i := uint8(0); i < t.count; i++ {
		if t.channels[i].bound {
			fn(&t.channels[i])
		}
	}
}
