// Package reaper implements the time-bounded cleanup of stale track
// entries after a batch TrackName refresh: the device streams tracks
// 0..N at connection time or on ring moves, and we detect end-of-burst by
// absence of further TrackName frames for 100ms, then prune any windowed
// track entries the new burst didn't cover.
package reaper

import (
	"time"

	"github.com/jdavidguerrero/pushclone-linkd/internal/ring"
)

// silence is how long the reaper waits after the last TrackName frame
// before deciding a batch has ended.
const silence = 100 * time.Millisecond

// Tracker clears the window-relative track entries that a batch didn't
// re-cover.
type Tracker interface {
	Clear(relIndex int)
}

// TrackBatchReaper watches TrackName updates (already projected into
// window-relative indices) for a contiguous run starting at 0, and prunes
// whatever the ring didn't cover once a burst goes quiet.
//
// present/armed are read and written only from the single-threaded event
// loop: the silence timer's callback runs on its own goroutine (per
// time.AfterFunc) and must never touch them directly. It only signals
// readiness over the ready channel; the event loop drains Ready() and
// calls Fire() itself, keeping every mutation of present/armed and every
// Tracker.Clear/bus.Notify call on the one cooperative loop goroutine.
type TrackBatchReaper struct {
	tracker Tracker
	present [ring.Width]bool
	armed   bool
	timer   *time.Timer
	afterFn func(time.Duration, func()) *time.Timer
	ready   chan struct{}
}

// New returns a reaper that prunes stale windowed track entries on tracker.
func New(tracker Tracker) *TrackBatchReaper {
	return &TrackBatchReaper{
		tracker: tracker,
		afterFn: time.AfterFunc,
		ready:   make(chan struct{}, 1),
	}
}

// Observe records a TrackName update at window-relative index i and
// (re)arms the 100ms silence timer. Index 0 arms the "batch seen" flag;
// without ever seeing index 0, the timer fires but no pruning happens.
// Must be called from the event-loop goroutine.
func (r *TrackBatchReaper) Observe(relIndex int) {
	if relIndex < 0 || relIndex >= ring.Width {
		return
	}
	r.present[relIndex] = true
	if relIndex == 0 {
		r.armed = true
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = r.afterFn(silence, r.signalReady)
}

// Ready is the channel the event loop selects on. A receive means the
// silence window has elapsed since the last TrackName and Fire should run.
func (r *TrackBatchReaper) Ready() <-chan struct{} {
	return r.ready
}

// signalReady runs on the timer goroutine. It does nothing but post a
// non-blocking notification; all state mutation happens in Fire, back on
// the event-loop goroutine.
func (r *TrackBatchReaper) signalReady() {
	select {
	case r.ready <- struct{}{}:
	default:
	}
}

// Fire computes the longest contiguous run of present entries starting at
// 0 and clears everything beyond it, then resets for the next burst. Must
// be called from the event-loop goroutine in response to Ready().
func (r *TrackBatchReaper) Fire() {
	if !r.armed {
		r.present = [ring.Width]bool{}
		return
	}

	lastContiguous := -1
	for i := 0; i < ring.Width; i++ {
		if !r.present[i] {
			break
		}
		lastContiguous = i
	}

	for i := lastContiguous + 1; i < ring.Width; i++ {
		r.tracker.Clear(i)
	}

	r.present = [ring.Width]bool{}
	r.armed = false
	r.timer = nil
}
