package protocol

import (
	"bytes"
	"errors"
)

// ErrFrameTooLong is returned when a payload does not fit in one frame.
var ErrFrameTooLong = errors.New("frame exceeds maximum length")

// AppendFrame appends a complete frame carrying payload to dst.
func AppendFrame(dst []byte, seq uint8, payload []byte) ([]byte, error) {
	n := MessageLengthMin + len(payload)
	if n > MessageLengthMax {
		return dst, ErrFrameTooLong
	}
	start := len(dst)
	dst = append(dst, uint8(n), seq)
	dst = append(dst, payload...)
	crc := CRC16(dst[start:])
	return append(dst, uint8(crc>>8), uint8(crc), MessageValueSync), nil
}

// frameScanner splits a byte stream into CRC-checked frames. After any
// malformed frame it drops bytes up to the next sync byte.
type frameScanner struct {
	desynced bool
	onResync func()
}

// scan emits every complete frame at the front of data and returns the
// unconsumed tail. The payload passed to emit aliases data.
func (s *frameScanner) scan(data []byte, emit func(seq uint8, payload []byte)) []byte {
	for len(data) > 0 {
		if s.desynced {
			i := bytes.IndexByte(data, MessageValueSync)
			if i < 0 {
				return nil
			}
			data = data[i+1:]
			s.desynced = false
			if s.onResync != nil {
				s.onResync()
			}
			continue
		}

		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}
		if len(data) < MessageLengthMin {
			break
		}

		n := int(data[MessagePositionLen])
		seq := data[MessagePositionSeq]
		if n < MessageLengthMin || n > MessageLengthMax || seq&^MessageSeqMask != MessageDest {
			s.desynced = true
			continue
		}
		if len(data) < n {
			break
		}
		if data[n-MessageTrailerSync] != MessageValueSync {
			s.desynced = true
			continue
		}
		crc := uint16(data[n-MessageTrailerCRC])<<8 | uint16(data[n-MessageTrailerCRC+1])
		if crc != CRC16(data[:n-MessageTrailerSize]) {
			s.desynced = true
			continue
		}

		emit(seq, data[MessageHeaderSize:n-MessageTrailerSize])
		data = data[n:]
	}
	return data
}
