package port

import (
	"os"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestPair returns a Port wrapping one end of a pty pair, and the other
// end for the test to drive as if it were the microcontroller.
func openTestPair(t *testing.T) (*Port, *os.File) {
	t.Helper()
	ptmx, tty, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { tty.Close() })
	return FromReadWriteCloser(ptmx), tty
}

// readSome reads up to n bytes from f within timeout, from a background
// goroutine so a stuck Read can't hang the test.
func readSome(t *testing.T, f *os.File, n int, timeout time.Duration) []byte {
	t.Helper()
	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, n)
		got, err := f.Read(buf)
		if err != nil {
			done <- nil
			return
		}
		done <- buf[:got]
	}()
	select {
	case b := <-done:
		return b
	case <-time.After(timeout):
		t.Fatal("timed out waiting to read")
		return nil
	}
}

func TestPortWriteReadRoundTrip(t *testing.T) {
	p, tty := openTestPair(t)
	defer p.Close()

	_, err := tty.Write([]byte{0xAA, 0x03, 0x00, 0xA9})
	require.NoError(t, err)

	var got []byte
	require.Eventually(t, func() bool {
		got = append(got, p.PollRead()...)
		return len(got) >= 4
	}, time.Second, time.Millisecond)

	assert.Equal(t, []byte{0xAA, 0x03, 0x00, 0xA9}, got)
}

func TestPortWriteFlushesToOtherEnd(t *testing.T) {
	p, tty := openTestPair(t)
	defer p.Close()

	n, err := p.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	got := readSome(t, tty, 5, time.Second)
	assert.Equal(t, "hello", string(got))
}

func TestPortClosesOnReadError(t *testing.T) {
	p, tty := openTestPair(t)

	require.NoError(t, tty.Close())

	select {
	case err := <-p.Errors():
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("expected an error after the peer closed")
	}

	_, err := p.Write([]byte{0x00})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPortPollReadNonBlockingWhenEmpty(t *testing.T) {
	p, _ := openTestPair(t)
	defer p.Close()

	assert.Nil(t, p.PollRead())
}
