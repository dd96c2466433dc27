//go:build !tinygo

package protocol

import (
	"io"
	"net"
)

// ServeLoopback runs a device Transport on one end of an in-memory pipe and
// returns the host end. setup receives the transport so command handlers
// can reply through it, and returns the handler to dispatch to. The device
// goroutine exits when the host end is closed.
func ServeLoopback(setup func(t *Transport) CommandHandler) io.ReadWriteCloser {
	hostEnd, devEnd := net.Pipe()

	out := &connOutput{conn: devEnd}
	t := NewTransport(out, nil)
	t.handler = setup(t)
	t.SetFlushCallback(out.flush)

	go func() {
		defer devEnd.Close()
		fifo := NewFifoBuffer(1024)
		buf := make([]byte, 256)
		for {
			n, err := devEnd.Read(buf)
			if n > 0 {
				fifo.Write(buf[:n])
				t.Receive(fifo)
				out.flush()
			}
			if err != nil {
				return
			}
		}
	}()
	return hostEnd
}

// connOutput buffers encoded frames until flush writes them out.
type connOutput struct {
	ScratchOutput
	conn net.Conn
}

func (o *connOutput) flush() {
	if o.pos == 0 {
		return
	}
	_, _ = o.conn.Write(o.Result())
	o.Reset()
}
