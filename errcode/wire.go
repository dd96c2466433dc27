package errcode

// Wire numbers carry a Code in one byte. Numbers are append-only.
var wireCodes = [...]Code{
	OK,
	InvalidParams,
	InvalidPeriod,
	TooManyChans,
	UnknownPin,
	PinInUse,
	ChannelBound,
	NotConfigured,
	Timeout,
}

// Number returns the wire number of c. Unlisted codes map to 0xFF.
func Number(c Code) uint8 {
	for i, w := range wireCodes {
		if w == c {
			return uint8(i)
		}
	}
	return 0xFF
}

// FromNumber is the inverse of Number. Unknown numbers yield Error.
func FromNumber(n uint8) Code {
	if int(n) < len(wireCodes) {
		return wireCodes[n]
	}
	return Error
}
