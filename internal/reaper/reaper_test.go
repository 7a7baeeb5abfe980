package reaper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTracker struct {
	cleared []int
}

func (f *fakeTracker) Clear(relIndex int) { f.cleared = append(f.cleared, relIndex) }

func fakeAfterFn(captured *func()) func(time.Duration, func()) *time.Timer {
	return func(d time.Duration, f func()) *time.Timer {
		*captured = f
		return time.NewTimer(time.Hour)
	}
}

// fireReaper simulates the timer goroutine elapsing (invoking the captured
// callback, which only signals Ready) and then the event loop draining
// Ready() and calling Fire(), exactly as cmd/pushclone-linkd's event loop
// does in production.
func fireReaper(t *testing.T, r *TrackBatchReaper, fired func()) {
	t.Helper()
	require.NotNil(t, fired)
	fired()
	select {
	case <-r.Ready():
	default:
		t.Fatal("expected the timer callback to signal Ready")
	}
	r.Fire()
}

func TestReaperClearsEverythingBeyondContiguousRun(t *testing.T) {
	tr := &fakeTracker{}
	r := New(tr)
	var fired func()
	r.afterFn = fakeAfterFn(&fired)

	r.Observe(0)
	r.Observe(1)
	r.Observe(2)

	fireReaper(t, r, fired)
	assert.ElementsMatch(t, []int{3, 4, 5, 6, 7}, tr.cleared)
}

func TestReaperDoesNothingWithoutSeeingIndexZero(t *testing.T) {
	tr := &fakeTracker{}
	r := New(tr)
	var fired func()
	r.afterFn = fakeAfterFn(&fired)

	r.Observe(3)
	r.Observe(4)
	fireReaper(t, r, fired)

	assert.Empty(t, tr.cleared, "a burst that never reports index 0 must not prune")
}

func TestReaperFullBurstClearsNothing(t *testing.T) {
	tr := &fakeTracker{}
	r := New(tr)
	var fired func()
	r.afterFn = fakeAfterFn(&fired)

	for i := 0; i < 8; i++ {
		r.Observe(i)
	}
	fireReaper(t, r, fired)

	assert.Empty(t, tr.cleared)
}

func TestReaperResetsStateAfterFiring(t *testing.T) {
	tr := &fakeTracker{}
	r := New(tr)
	var fired func()
	r.afterFn = fakeAfterFn(&fired)

	r.Observe(0)
	fireReaper(t, r, fired)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7}, tr.cleared)

	tr.cleared = nil
	r.Observe(5) // no index 0 this time
	fireReaper(t, r, fired)
	assert.Empty(t, tr.cleared)
}

func TestReaperSignalReadyIsNonBlockingAndDoesNotTouchSharedState(t *testing.T) {
	tr := &fakeTracker{}
	r := New(tr)

	done := make(chan struct{})
	go func() {
		r.signalReady()
		r.signalReady() // second call must not block even though the buffer is full
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("signalReady must never block the timer goroutine")
	}

	select {
	case <-r.Ready():
	default:
		t.Fatal("expected a pending ready signal")
	}
}
