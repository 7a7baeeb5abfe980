package shadow

import (
	"github.com/jdavidguerrero/pushclone-linkd/internal/bus"
	"github.com/jdavidguerrero/pushclone-linkd/internal/ring"
	"github.com/jdavidguerrero/pushclone-linkd/internal/wire"
)

// DefaultTrackColor is the color an unnamed (empty) track shows.
var DefaultTrackColor = wire.RGB{R: 0x2a, G: 0x2a, B: 0x2a}

// TrackInfo mirrors one entry of the visible (windowed) track list.
// Active is derived: it is true iff Name is non-empty.
type TrackInfo struct {
	Index  int
	Name   string
	Color  wire.RGB
	Active bool
}

// TrackList is the windowed, 8-entry shadow of the track list. It is
// indexed relatively, through the ring: position i here reflects whatever
// absolute track is currently at ring offset + i.
type TrackList struct {
	entries [ring.Width]TrackInfo
	bus     *bus.Bus
}

// NewTrackList returns a TrackList reset to its default (empty) state.
func NewTrackList(b *bus.Bus) *TrackList {
	t := &TrackList{bus: b}
	t.reset()
	return t
}

func (t *TrackList) reset() {
	for i := range t.entries {
		t.entries[i] = TrackInfo{Index: i, Color: DefaultTrackColor}
	}
}

// Entry returns a copy of the windowed track at relative index i.
func (t *TrackList) Entry(i int) TrackInfo {
	if i < 0 || i >= ring.Width {
		return TrackInfo{}
	}
	return t.entries[i]
}

// SetName updates the windowed track's name (and its derived Active flag),
// notifying on real change.
func (t *TrackList) SetName(relIndex int, name string) {
	e := &t.entries[relIndex]
	active := name != ""
	if e.Name == name && e.Active == active {
		return
	}
	var changed []string
	if e.Name != name {
		changed = append(changed, "name")
	}
	if e.Active != active {
		changed = append(changed, "active")
	}
	e.Name = name
	e.Active = active
	t.bus.Notify(bus.Change{Model: "tracks", Row: relIndex, Fields: changed})
}

// SetColor updates the windowed track's color, notifying on real change.
func (t *TrackList) SetColor(relIndex int, color wire.RGB) {
	e := &t.entries[relIndex]
	if e.Color == color {
		return
	}
	e.Color = color
	t.bus.Notify(bus.Change{Model: "tracks", Row: relIndex, Fields: []string{"color"}})
}

// Clear resets a single windowed entry to its default empty state, used by
// the batch reaper to prune stale entries. Notifies only if the entry
// wasn't already empty.
func (t *TrackList) Clear(relIndex int) {
	e := &t.entries[relIndex]
	empty := TrackInfo{Index: relIndex, Color: DefaultTrackColor}
	if *e == empty {
		return
	}
	*e = empty
	t.bus.Notify(bus.Change{Model: "tracks", Row: relIndex, Fields: []string{"name", "color", "active"}})
}

// Reset restores every windowed entry to empty and emits a single bulk
// notification. Used when the ring moves.
func (t *TrackList) Reset() {
	t.reset()
	t.bus.NotifyBulk("tracks")
}
