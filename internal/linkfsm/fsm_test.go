package linkfsm

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdavidguerrero/pushclone-linkd/internal/wire"
)

type fakeSend struct {
	cmd     byte
	payload []byte
}

func fakeAfterFn(captured *func()) func(time.Duration, func()) *time.Timer {
	return func(d time.Duration, f func()) *time.Timer {
		*captured = f
		return time.NewTimer(time.Hour)
	}
}

// fireReconnect simulates the reconnect timer goroutine elapsing (invoking
// the captured callback, which only signals ReconnectReady) and then the
// event loop draining ReconnectReady() and calling Reconnect(), exactly as
// cmd/pushclone-linkd's event loop does in production.
func fireReconnect(t *testing.T, f *FSM, fired func()) {
	t.Helper()
	require.NotNil(t, fired)
	fired()
	select {
	case <-f.ReconnectReady():
	default:
		t.Fatal("expected the timer callback to signal ReconnectReady")
	}
	f.Reconnect()
}

func TestStartOpensAndWaitsForHandshake(t *testing.T) {
	var states []State
	f := New(Callbacks{
		Open:          func() error { return nil },
		Close:         func() {},
		Send:          func(byte, []byte) {},
		OnStateChange: func(s State) { states = append(states, s) },
	})
	f.Start()
	assert.Equal(t, WaitingHandshake, f.State())
	assert.Equal(t, []State{WaitingHandshake}, states)
}

func TestFailedOpenSchedulesReconnect(t *testing.T) {
	var reconnect func()
	opens := 0
	f := New(Callbacks{
		Open: func() error {
			opens++
			return errors.New("no such device")
		},
		Close: func() {},
		Send:  func(byte, []byte) {},
	})
	f.afterFn = fakeAfterFn(&reconnect)

	f.Start()
	assert.Equal(t, Disconnected, f.State())
	assert.Equal(t, 1, opens)

	fireReconnect(t, f, reconnect)
	assert.Equal(t, 2, opens, "the reconnect timer should retry the open")
}

func TestHandshakeMagicTransitionsToConnectedAndEchoes(t *testing.T) {
	var sent fakeSend
	f := New(Callbacks{
		Open:  func() error { return nil },
		Close: func() {},
		Send: func(cmd byte, payload []byte) {
			sent = fakeSend{cmd, payload}
		},
	})
	f.Start()

	consumed := f.HandleFrame(wire.CmdHandshake, []byte(wire.HandshakeMagic))
	assert.True(t, consumed)
	assert.True(t, f.Connected())
	assert.Equal(t, wire.CmdHandshakeReply, sent.cmd)
	assert.Equal(t, wire.HandshakeMagic, string(sent.payload))
}

func TestWrongHandshakePayloadDoesNotConnect(t *testing.T) {
	f := New(Callbacks{
		Open:  func() error { return nil },
		Close: func() {},
		Send:  func(byte, []byte) {},
	})
	f.Start()

	f.HandleFrame(wire.CmdHandshake, []byte("WRONG"))
	assert.False(t, f.Connected())
	assert.Equal(t, WaitingHandshake, f.State())
}

func TestPingOnlyAnsweredWhileConnected(t *testing.T) {
	var sendCount int
	f := New(Callbacks{
		Open:  func() error { return nil },
		Close: func() {},
		Send:  func(byte, []byte) { sendCount++ },
	})
	f.Start()

	f.HandleFrame(wire.CmdPing, nil)
	assert.Equal(t, 0, sendCount, "ping before handshake must not be answered")

	f.HandleFrame(wire.CmdHandshake, []byte(wire.HandshakeMagic))
	require.Equal(t, 1, sendCount)

	f.HandleFrame(wire.CmdPing, nil)
	assert.Equal(t, 2, sendCount)
}

func TestDeviceDisconnectReturnsToWaitingHandshake(t *testing.T) {
	f := New(Callbacks{
		Open:  func() error { return nil },
		Close: func() {},
		Send:  func(byte, []byte) {},
	})
	f.Start()
	f.HandleFrame(wire.CmdHandshake, []byte(wire.HandshakeMagic))
	require.True(t, f.Connected())

	f.HandleFrame(wire.CmdDisconnect, nil)
	assert.Equal(t, WaitingHandshake, f.State())
}

func TestUserDisconnectSendsAndTransitionsUnconditionally(t *testing.T) {
	var sent fakeSend
	f := New(Callbacks{
		Open:  func() error { return nil },
		Close: func() {},
		Send: func(cmd byte, payload []byte) {
			sent = fakeSend{cmd, payload}
		},
	})
	f.Start()
	f.HandleFrame(wire.CmdHandshake, []byte(wire.HandshakeMagic))

	f.Disconnect()
	assert.Equal(t, WaitingHandshake, f.State())
	assert.Equal(t, wire.CmdDisconnect, sent.cmd)
}

func TestPortErrorClosesAndSchedulesReconnect(t *testing.T) {
	var closed bool
	var reconnect func()
	opens := 0
	f := New(Callbacks{
		Open: func() error {
			opens++
			return nil
		},
		Close: func() { closed = true },
		Send:  func(byte, []byte) {},
	})
	f.afterFn = fakeAfterFn(&reconnect)
	f.Start()
	f.HandleFrame(wire.CmdHandshake, []byte(wire.HandshakeMagic))

	f.PortError(errors.New("read: device disconnected"))
	assert.True(t, closed)
	assert.Equal(t, Disconnected, f.State())

	fireReconnect(t, f, reconnect)
	assert.Equal(t, 2, opens)
	assert.Equal(t, WaitingHandshake, f.State())
}

func TestUnrelatedCommandIsNotConsumed(t *testing.T) {
	f := New(Callbacks{
		Open:  func() error { return nil },
		Close: func() {},
		Send:  func(byte, []byte) {},
	})
	f.Start()
	assert.False(t, f.HandleFrame(wire.CmdTransportPlay, []byte{0x01}))
}

func TestSignalReconnectReadyIsNonBlockingAndDoesNotTouchState(t *testing.T) {
	f := New(Callbacks{
		Open:  func() error { return nil },
		Close: func() {},
		Send:  func(byte, []byte) {},
	})

	done := make(chan struct{})
	go func() {
		f.signalReconnectReady()
		f.signalReconnectReady() // second call must not block on the full buffer
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("signalReconnectReady must never block the timer goroutine")
	}

	select {
	case <-f.ReconnectReady():
	default:
		t.Fatal("expected a pending reconnect-ready signal")
	}
}
