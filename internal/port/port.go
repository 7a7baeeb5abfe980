// Package port owns the serial endpoint: open/close, non-blocking reads,
// synchronous writes, and an error signal the connection FSM watches to
// schedule reconnection. Settings are fixed at 8N1, no flow control.
package port

import (
	"errors"
	"io"
	"sync/atomic"

	"github.com/pkg/term"
)

// ErrClosed is returned by Write/PollRead once the port has closed itself
// following an earlier I/O error.
var ErrClosed = errors.New("port: closed")

// DefaultDevice and DefaultBaud are the configuration defaults when the
// caller doesn't override them.
const (
	DefaultDevice = "/dev/serial0"
	DefaultBaud   = 115200
)

var supportedBauds = map[int]bool{
	1200: true, 2400: true, 4800: true, 9600: true,
	19200: true, 38400: true, 57600: true, 115200: true,
}

// Port is the serial endpoint. Reads happen on a background goroutine and
// are delivered through PollRead non-blockingly; writes flush synchronously.
// On any underlying error the port closes itself and the error is
// delivered once on the Errors channel.
type Port struct {
	rw     io.ReadWriteCloser
	rx     chan []byte
	errc   chan error
	closed atomic.Bool
}

// Open opens devicename at baud (0 leaves the line speed alone; an
// unsupported non-zero speed falls back to 4800).
func Open(devicename string, baud int) (*Port, error) {
	t, err := term.Open(devicename, term.RawMode)
	if err != nil {
		return nil, err
	}
	if baud != 0 {
		if !supportedBauds[baud] {
			baud = 4800
		}
		if err := t.SetSpeed(baud); err != nil {
			t.Close()
			return nil, err
		}
	}
	return wrap(t), nil
}

// wrap adapts any byte-stream endpoint (the real serial port, or a pty in
// tests) into a Port, starting its background read loop.
func wrap(rw io.ReadWriteCloser) *Port {
	p := &Port{
		rw:   rw,
		rx:   make(chan []byte, 64),
		errc: make(chan error, 1),
	}
	go p.readLoop()
	return p
}

// FromReadWriteCloser exposes wrap for tests that drive the Port over a
// pty pair instead of a real serial device.
func FromReadWriteCloser(rw io.ReadWriteCloser) *Port {
	return wrap(rw)
}

func (p *Port) readLoop() {
	buf := make([]byte, 512)
	for {
		n, err := p.rw.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			p.rx <- chunk
		}
		if err != nil {
			p.closeWithErr(err)
			return
		}
	}
}

// PollRead returns the next chunk of bytes read from the port, or nil if
// none is available yet. It never blocks.
func (p *Port) PollRead() []byte {
	select {
	case b := <-p.rx:
		return b
	default:
		return nil
	}
}

// Write flushes data synchronously. A short write or any error closes the
// port (mirroring the controller's "any underlying error closes the port"
// policy) and returns the underlying error to the caller; every later Write
// returns ErrClosed.
func (p *Port) Write(data []byte) (int, error) {
	if p.closed.Load() {
		return 0, ErrClosed
	}
	n, err := p.rw.Write(data)
	if err != nil || n != len(data) {
		p.closeWithErr(err)
		return n, err
	}
	return n, nil
}

// Errors delivers at most one error: the cause of the port closing itself.
func (p *Port) Errors() <-chan error {
	return p.errc
}

// Close closes the underlying endpoint. Safe to call more than once.
func (p *Port) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.rw.Close()
}

func (p *Port) closeWithErr(err error) {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	p.rw.Close()
	if err == nil {
		err = ErrClosed
	}
	select {
	case p.errc <- err:
	default:
	}
}
