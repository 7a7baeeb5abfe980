package shadow

import (
	"fmt"
	"time"

	"github.com/jdavidguerrero/pushclone-linkd/internal/bus"
	"github.com/jdavidguerrero/pushclone-linkd/internal/wire"
)

const sceneCount = 4

// sceneTriggerFlash is how long a scene's triggered flag stays set before
// auto-clearing, a host-side addition so a trigger reads as a momentary
// flash instead of a sticky flag.
const sceneTriggerFlash = 200 * time.Millisecond

// DefaultSceneColor is the color shown before a device ever names a scene.
var DefaultSceneColor = wire.RGB{R: 0x1a, G: 0x1a, B: 0x1a}

// SceneInfo mirrors one of the device's 4 scenes.
type SceneInfo struct {
	Index     int
	Name      string
	Color     wire.RGB
	Triggered bool
}

// SceneList is the fixed 4-entry shadow of the scene list.
//
// entries and timers are read and written only from the single-threaded
// event loop. The auto-clear timer's callback runs on its own goroutine
// (per time.AfterFunc) and must never touch them directly: it only signals
// readiness over the ready channel, identifying which scene fired. The
// event loop drains Ready() and calls Fire(i) itself, keeping every
// mutation of entries/timers and every bus.Notify call on the one
// cooperative loop goroutine.
type SceneList struct {
	entries [sceneCount]SceneInfo
	timers  [sceneCount]*time.Timer
	bus     *bus.Bus
	afterFn func(time.Duration, func()) *time.Timer
	ready   chan int
}

// NewSceneList returns a SceneList reset to its default state.
func NewSceneList(b *bus.Bus) *SceneList {
	s := &SceneList{bus: b, afterFn: time.AfterFunc, ready: make(chan int, sceneCount)}
	s.reset()
	return s
}

func (s *SceneList) reset() {
	for i := range s.entries {
		s.entries[i] = SceneInfo{Index: i, Name: defaultSceneName(i), Color: DefaultSceneColor}
	}
}

func defaultSceneName(i int) string {
	return fmt.Sprintf("Scene %d", i+1)
}

// Entry returns a copy of the scene at index i.
func (s *SceneList) Entry(i int) SceneInfo {
	if i < 0 || i >= sceneCount {
		return SceneInfo{}
	}
	return s.entries[i]
}

// SetName updates a scene's name, notifying on real change.
func (s *SceneList) SetName(i int, name string) {
	e := &s.entries[i]
	if e.Name == name {
		return
	}
	e.Name = name
	s.bus.Notify(bus.Change{Model: "scenes", Row: i, Fields: []string{"name"}})
}

// SetColor updates a scene's color, notifying on real change.
func (s *SceneList) SetColor(i int, color wire.RGB) {
	e := &s.entries[i]
	if e.Color == color {
		return
	}
	e.Color = color
	s.bus.Notify(bus.Change{Model: "scenes", Row: i, Fields: []string{"color"}})
}

// SetTriggered updates a scene's triggered flag. A transition into true
// arms a single-shot auto-clear timer; a retrigger while already true
// resets that timer rather than stacking a second one; an explicit
// transition to false cancels any pending timer. Must be called from the
// event-loop goroutine.
func (s *SceneList) SetTriggered(i int, triggered bool) {
	e := &s.entries[i]
	wasTriggered := e.Triggered
	if triggered {
		if s.timers[i] != nil {
			s.timers[i].Stop()
		}
		s.timers[i] = s.afterFn(sceneTriggerFlash, func() { s.signalReady(i) })
	} else if s.timers[i] != nil {
		s.timers[i].Stop()
		s.timers[i] = nil
	}
	if wasTriggered == triggered {
		return
	}
	e.Triggered = triggered
	s.bus.Notify(bus.Change{Model: "scenes", Row: i, Fields: []string{"triggered"}})
}

// Ready is the channel the event loop selects on. A received index means
// that scene's auto-clear flash timer elapsed and Fire(i) should run.
func (s *SceneList) Ready() <-chan int {
	return s.ready
}

// signalReady runs on the timer goroutine. It does nothing but post a
// non-blocking notification identifying which scene fired; all state
// mutation happens in Fire, back on the event-loop goroutine.
func (s *SceneList) signalReady(i int) {
	select {
	case s.ready <- i:
	default:
	}
}

// Fire clears scene i's triggered flag if the auto-clear timer that fired
// is still the live one. Must be called from the event-loop goroutine in
// response to Ready().
func (s *SceneList) Fire(i int) {
	e := &s.entries[i]
	s.timers[i] = nil
	if !e.Triggered {
		return
	}
	e.Triggered = false
	s.bus.Notify(bus.Change{Model: "scenes", Row: i, Fields: []string{"triggered"}})
}
