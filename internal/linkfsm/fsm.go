// Package linkfsm implements the three-state connection lifecycle: open,
// handshake, and liveness, plus automatic reconnection. It reacts to
// framing events (handshake received, disconnect received, port error) and
// to its own reconnect timer; it never blocks and never waits for an
// acknowledgement.
package linkfsm

import (
	"time"

	"github.com/jdavidguerrero/pushclone-linkd/internal/wire"
)

// State is one of the three connection lifecycle states.
type State int

const (
	Disconnected State = iota
	WaitingHandshake
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case WaitingHandshake:
		return "waiting-handshake"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// reconnectInterval is the fixed single-shot delay before a reopen attempt
// after the port closes.
const reconnectInterval = 2 * time.Second

// Callbacks are the FSM's side effects, injected so the state machine
// itself stays pure and testable without a real serial port.
type Callbacks struct {
	// Open (re)opens the port. Called on Start and on every reconnect
	// timer fire.
	Open func() error
	// Close closes the currently open port.
	Close func()
	// Send writes an encoded frame to the port. Errors are surfaced to
	// the FSM via a subsequent PortError call from the caller's I/O loop,
	// not returned here.
	Send func(cmd byte, payload []byte)
	// OnStateChange is called whenever the state actually changes.
	OnStateChange func(State)
}

// FSM is the connection state machine.
//
// state and the reconnect timer are read and written only from the
// single-threaded event loop. The reconnect timer's callback runs on its
// own goroutine (per time.AfterFunc) and must never call tryOpen directly:
// Open/Close/setState all touch state shared with the rest of the link
// layer (the port variable the caller's Open/Close callbacks close over,
// f.state, bus notifications reachable through OnStateChange). The
// callback only signals readiness over reconnectReady; the event loop
// drains it and calls Reconnect itself, keeping every such mutation on the
// one cooperative loop goroutine.
type FSM struct {
	state          State
	cb             Callbacks
	afterFn        func(time.Duration, func()) *time.Timer
	timer          *time.Timer
	reconnectReady chan struct{}
}

// New returns an FSM in the Disconnected state. Call Start to begin
// opening the port.
func New(cb Callbacks) *FSM {
	return &FSM{state: Disconnected, cb: cb, afterFn: time.AfterFunc, reconnectReady: make(chan struct{}, 1)}
}

// State returns the current lifecycle state.
func (f *FSM) State() State { return f.state }

// Connected reports the derived invariant: true iff State() == Connected.
func (f *FSM) Connected() bool { return f.state == Connected }

// Start attempts the initial port open. Called once from the event-loop
// goroutine before the loop's select begins, so it may call tryOpen
// directly with no other goroutine yet running.
func (f *FSM) Start() {
	f.tryOpen()
}

// tryOpen performs the actual (re)open and state transition. Must only
// ever run on the event-loop goroutine: on the initial Start call, or from
// Reconnect in response to ReconnectReady.
func (f *FSM) tryOpen() {
	if err := f.cb.Open(); err != nil {
		f.scheduleReconnect()
		return
	}
	f.setState(WaitingHandshake)
}

func (f *FSM) scheduleReconnect() {
	f.setState(Disconnected)
	if f.timer != nil {
		f.timer.Stop()
	}
	f.timer = f.afterFn(reconnectInterval, f.signalReconnectReady)
}

// ReconnectReady is the channel the event loop selects on. A receive means
// the reconnect timer elapsed and Reconnect should run.
func (f *FSM) ReconnectReady() <-chan struct{} {
	return f.reconnectReady
}

// signalReconnectReady runs on the timer goroutine. It does nothing but
// post a non-blocking notification; the actual reopen happens in
// Reconnect, back on the event-loop goroutine.
func (f *FSM) signalReconnectReady() {
	select {
	case f.reconnectReady <- struct{}{}:
	default:
	}
}

// Reconnect retries opening the port after the reconnect timer elapses.
// Must be called from the event-loop goroutine in response to
// ReconnectReady(), never from the timer goroutine.
func (f *FSM) Reconnect() {
	f.tryOpen()
}

// HandleFrame reacts to a decoded frame's connection-control commands
// (Handshake, Ping, Disconnect). It reports whether it consumed the frame;
// when true, the dispatcher must not also route it to an ordinary handler.
func (f *FSM) HandleFrame(cmd byte, payload []byte) bool {
	switch cmd {
	case wire.CmdHandshake:
		if f.state == WaitingHandshake && string(payload) == wire.HandshakeMagic {
			f.setState(Connected)
			f.cb.Send(wire.CmdHandshakeReply, []byte(wire.HandshakeMagic))
		}
		return true
	case wire.CmdPing:
		if f.state == Connected {
			f.cb.Send(wire.CmdPing, nil)
		}
		return true
	case wire.CmdDisconnect:
		f.setState(WaitingHandshake)
		return true
	default:
		return false
	}
}

// PortError reacts to an I/O-level port failure: close, and arm
// reconnection. Never fatal to the process.
func (f *FSM) PortError(error) {
	f.cb.Close()
	f.scheduleReconnect()
}

// Disconnect is the user-requested disconnect. It sends CmdDisconnect and
// transitions unconditionally to WaitingHandshake without waiting for any
// acknowledgement: a subsequent frame from the device can re-establish the
// session without reopening the port.
func (f *FSM) Disconnect() {
	f.cb.Send(wire.CmdDisconnect, nil)
	f.setState(WaitingHandshake)
}

func (f *FSM) setState(s State) {
	if s == f.state {
		return
	}
	f.state = s
	if f.cb.OnStateChange != nil {
		f.cb.OnStateChange(s)
	}
}
