package protocol

import "sync/atomic"

// CommandHandler handles one decoded command. It consumes its arguments
// from the front of data.
type CommandHandler func(cmdID uint16, data *[]byte) error

// Transport is the device end of the link. It verifies incoming frames,
// dispatches their commands in order and acknowledges every frame with the
// next sequence it expects.
//
// Receive must be called from a single goroutine.
type Transport struct {
	nextSeq atomic.Uint32 // sequence expected from the host, 0x10..0x1F
	scanner frameScanner
	output  OutputBuffer
	handler CommandHandler

	resetCallback func() // host restarted its sequence
	flushCallback func() // push pending output to the wire now
	errorCallback func(cmdID uint16, err error)
}

// NewTransport creates a device transport writing to output
func NewTransport(output OutputBuffer, handler CommandHandler) *Transport {
	t := &Transport{
		output:  output,
		handler: handler,
	}
	t.nextSeq.Store(MessageDest)
	t.scanner.onResync = t.encodeAck
	return t
}

// Receive consumes every complete frame from input
func (t *Transport) Receive(input InputBuffer) {
	data := input.Data()
	rest := t.scanner.scan(data, t.handleFrame)
	if consumed := len(data) - len(rest); consumed > 0 {
		input.Pop(consumed)
	}
}

func (t *Transport) handleFrame(seq uint8, payload []byte) {
	expected := uint8(t.nextSeq.Load())

	// A host that restarts begins again at MessageDest.
	if seq == MessageDest && expected != MessageDest {
		t.nextSeq.Store(MessageDest)
		expected = MessageDest
		if t.resetCallback != nil {
			t.resetCallback()
		}
	}

	if seq == expected {
		t.nextSeq.Store(uint32(NextSeq(seq)))
		t.parseFrame(payload)
	}
	// An out-of-order frame is answered with the expected sequence, which
	// the host reads as a NAK.
	t.encodeAck()
}

// parseFrame dispatches each command in the payload. A handler error stops
// the rest of the frame; malformed data or a handler panic desyncs.
func (t *Transport) parseFrame(frame []byte) {
	defer func() {
		if r := recover(); r != nil {
			t.scanner.desynced = true
		}
	}()

	for len(frame) > 0 {
		cmdID, err := DecodeVLQUint(&frame)
		if err != nil {
			t.scanner.desynced = true
			return
		}
		if t.handler == nil {
			continue
		}
		if err := t.handler(uint16(cmdID), &frame); err != nil {
			if t.errorCallback != nil {
				t.errorCallback(uint16(cmdID), err)
			}
			return
		}
	}
}

// encodeAck writes an empty frame carrying the next expected sequence and
// flushes it ahead of any buffered response.
func (t *Transport) encodeAck() {
	ack, _ := AppendFrame(make([]byte, 0, MessageLengthMin), uint8(t.nextSeq.Load()), nil)
	t.output.Output(ack)
	if t.flushCallback != nil {
		t.flushCallback()
	}
}

// EncodeFrame writes one frame whose payload is produced by frameData
func (t *Transport) EncodeFrame(frameData func(output OutputBuffer)) {
	cursor := t.output.CurPosition()
	t.output.Output([]byte{0, uint8(t.nextSeq.Load())})

	frameData(t.output)

	n := len(t.output.DataSince(cursor)) + MessageTrailerSize
	t.output.Update(cursor, uint8(n))

	crc := CRC16(t.output.DataSince(cursor))
	t.output.Output([]byte{uint8(crc >> 8), uint8(crc), MessageValueSync})
}

// SendCommand writes a response frame: command ID then its arguments
func (t *Transport) SendCommand(cmdID uint16, args func(output OutputBuffer)) {
	t.EncodeFrame(func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(cmdID))
		if args != nil {
			args(output)
		}
	})
}

// Reset returns to the power-on state, e.g. after a USB reconnect
func (t *Transport) Reset() {
	t.scanner.desynced = false
	t.nextSeq.Store(MessageDest)
	if t.resetCallback != nil {
		t.resetCallback()
	}
}

// SetResetCallback is called when the host restarts its sequence
func (t *Transport) SetResetCallback(callback func()) {
	t.resetCallback = callback
}

// SetFlushCallback is called after every ACK so it reaches the host before
// any response queued behind it
func (t *Transport) SetFlushCallback(callback func()) {
	t.flushCallback = callback
}

// SetErrorCallback is called when a command handler fails
func (t *Transport) SetErrorCallback(callback func(cmdID uint16, err error)) {
	t.errorCallback = callback
}
