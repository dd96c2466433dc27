//go:build !tinygo

package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrClosed is returned by operations on a closed HostTransport.
var ErrClosed = errors.New("transport closed")

// Message is one response frame received from the device.
type Message struct {
	Seq  uint8
	ID   uint16
	Args []byte // encoded arguments following the command ID
}

// ResponseHandler observes every response as it is read.
type ResponseHandler func(msg Message)

// HostOption configures a HostTransport.
type HostOption func(*HostTransport)

// WithAckTimeout bounds how long Send waits for the device ACK.
func WithAckTimeout(d time.Duration) HostOption {
	return func(t *HostTransport) { t.ackTimeout = d }
}

// WithLogger sets the logger for link diagnostics.
func WithLogger(l *zap.Logger) HostOption {
	return func(t *HostTransport) { t.log = l }
}

// WithResponseHandler installs a callback run from the read goroutine.
func WithResponseHandler(h ResponseHandler) HostOption {
	return func(t *HostTransport) { t.onResponse = h }
}

// HostTransport is the host end of the link. Send writes one command frame
// and waits for the device to acknowledge it; responses are queued for
// Request or handed to a ResponseHandler.
type HostTransport struct {
	port       io.ReadWriteCloser
	ackTimeout time.Duration
	log        *zap.Logger
	onResponse ResponseHandler

	sendMu sync.Mutex // one command in flight
	seq    uint8      // guarded by sendMu

	scanner frameScanner
	pending []byte

	acks      chan uint8
	responses chan Message

	closeOnce sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewHostTransport starts reading from port in the background.
func NewHostTransport(port io.ReadWriteCloser, opts ...HostOption) *HostTransport {
	t := &HostTransport{
		port:       port,
		ackTimeout: 2 * time.Second,
		log:        zap.NewNop(),
		seq:        MessageDest,
		acks:       make(chan uint8, 1),
		responses:  make(chan Message, 32),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.scanner.onResync = func() { t.log.Debug("link resynchronised") }
	go t.readLoop()
	return t
}

// Send writes cmdID with args and waits for the ACK.
func (t *HostTransport) Send(ctx context.Context, cmdID uint16, args ...uint32) error {
	t.sendMu.Lock()
	defer t.sendMu.Unlock()
	return t.sendLocked(ctx, cmdID, args)
}

// Exchange sends a command and returns the responses the device wrote
// before acknowledging it.
func (t *HostTransport) Exchange(ctx context.Context, cmdID uint16, args ...uint32) ([]Message, error) {
	t.sendMu.Lock()
	defer t.sendMu.Unlock()

	t.drainResponses()
	if err := t.sendLocked(ctx, cmdID, args); err != nil {
		return nil, err
	}
	var out []Message
	for {
		select {
		case msg := <-t.responses:
			out = append(out, msg)
		default:
			return out, nil
		}
	}
}

// Request sends a command and collects responses until one with ID until
// arrives. Responses left over from earlier commands are discarded first.
func (t *HostTransport) Request(ctx context.Context, until uint16, cmdID uint16, args ...uint32) ([]Message, error) {
	t.sendMu.Lock()
	defer t.sendMu.Unlock()

	t.drainResponses()
	if err := t.sendLocked(ctx, cmdID, args); err != nil {
		return nil, err
	}

	var out []Message
	for {
		select {
		case msg := <-t.responses:
			out = append(out, msg)
			if msg.ID == until {
				return out, nil
			}
		case <-ctx.Done():
			return out, fmt.Errorf("waiting for response %d: %w", until, ctx.Err())
		case <-t.stop:
			return out, ErrClosed
		}
	}
}

func (t *HostTransport) sendLocked(ctx context.Context, cmdID uint16, args []uint32) error {
	payload := EncodeArgs(append([]uint32{uint32(cmdID)}, args...)...)
	frame, err := AppendFrame(nil, t.seq, payload)
	if err != nil {
		return fmt.Errorf("encode command %d: %w", cmdID, err)
	}

	// Drop a stale ACK from a previous timed-out command.
	select {
	case <-t.acks:
	default:
	}

	if _, err := t.port.Write(frame); err != nil {
		return fmt.Errorf("write command %d: %w", cmdID, err)
	}

	timer := time.NewTimer(t.ackTimeout)
	defer timer.Stop()

	want := NextSeq(t.seq)
	select {
	case got := <-t.acks:
		if got != want {
			// The device expects got; adopt it so the next send lines up.
			t.seq = got
			return fmt.Errorf("command %d: device expected sequence %#02x", cmdID, got)
		}
		t.seq = want
		return nil
	case <-timer.C:
		return fmt.Errorf("command %d: ACK timeout after %v", cmdID, t.ackTimeout)
	case <-ctx.Done():
		return ctx.Err()
	case <-t.stop:
		return ErrClosed
	}
}

func (t *HostTransport) drainResponses() {
	for {
		select {
		case <-t.responses:
		default:
			return
		}
	}
}

func (t *HostTransport) readLoop() {
	defer close(t.done)

	buf := make([]byte, 256)
	for {
		n, err := t.port.Read(buf)
		if n > 0 {
			t.feed(buf[:n])
		}
		if err == nil {
			continue
		}
		select {
		case <-t.stop:
			return
		default:
		}
		if errors.Is(err, io.EOF) {
			t.log.Debug("port closed by peer")
			return
		}
		t.log.Warn("serial read failed", zap.Error(err))
		time.Sleep(10 * time.Millisecond)
	}
}

// feed appends raw bytes and dispatches every complete frame.
func (t *HostTransport) feed(data []byte) {
	t.pending = append(t.pending, data...)
	rest := t.scanner.scan(t.pending, t.dispatch)
	t.pending = append(t.pending[:0], rest...)
}

func (t *HostTransport) dispatch(seq uint8, payload []byte) {
	if len(payload) == 0 {
		select {
		case t.acks <- seq:
		default:
			t.log.Debug("unexpected ACK", zap.Uint8("seq", seq))
		}
		return
	}

	args := append([]byte(nil), payload...)
	id, err := DecodeVLQUint(&args)
	if err != nil {
		t.log.Debug("undecodable response", zap.Error(err))
		return
	}
	msg := Message{Seq: seq, ID: uint16(id), Args: args}

	if t.onResponse != nil {
		t.onResponse(msg)
	}

	select {
	case t.responses <- msg:
	default:
		// Queue full: keep the newest.
		select {
		case <-t.responses:
		default:
		}
		t.responses <- msg
	}
}

// Close stops the read goroutine and closes the port.
func (t *HostTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.stop)
		err = t.port.Close()
		<-t.done
	})
	return err
}
