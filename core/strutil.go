package core

// itoa converts an integer to a string without using fmt package
// This is a lightweight alternative for embedded systems
func itoa(n int) string {
	if n == 0 {
		return "0"
	}

	negative := n < 0
	if negative {
		n = -n
	}

	// Count digits
	temp := n
	digits := 0
	for temp > 0 {
		digits++
		temp /= 10
	}

	// Add space for negative sign
	if negative {
		digits++
	}

	// Build string from right to left
	buf := make([]byte, digits)
	pos := digits - 1

	for n > 0 {
		buf[pos] = byte('0' + n%10)
		n /= 10
		pos--
	}

	if negative {
		buf[0] = '-'
	}

	return string(buf)
}

// utoa converts an unsigned integer to a string
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}

	// Count digits
	temp := n
	digits := 0
	for temp > 0 {
		digits++
		temp /= 10
	}

	// Build string from right to left
	buf := make([]byte, digits)
	pos := digits - 1

	for n > 0 {
		buf[pos] = byte('0' + n%10)
		n /= 10
		pos--
	}

	return string(buf)
}

// formatMask renders a pin mask in binary, most significant set pin first
func formatMask(m PinMask) string {
	if m == 0 {
		return "0b0"
	}
	n := 0
	for v := m; v != 0; v >>= 1 {
		n++
	}
	buf := make([]byte, n+2)
	buf[0], buf[1] = '0', 'b'
	for i := 0; i < n; i++ {
		if m&(1<<uint(n-1-i)) != 0 {
			buf[2+i] = '1'
		} else {
			buf[2+i] = '0'
		}
	}
	return string(buf)
}
