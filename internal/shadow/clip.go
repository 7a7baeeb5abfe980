// Package shadow holds the five observable models the link layer mirrors
// from the device: the clip grid, the track list, the scene list, the
// mixer, and transport state. Each model exposes point mutators that
// compare against the current value and emit a bus.Change only when a
// field actually changed.
package shadow

import (
	"github.com/jdavidguerrero/pushclone-linkd/internal/bus"
	"github.com/jdavidguerrero/pushclone-linkd/internal/ring"
	"github.com/jdavidguerrero/pushclone-linkd/internal/wire"
)

// DefaultClipColor is the color an empty clip cell shows.
var DefaultClipColor = wire.RGB{R: 0x28, G: 0x28, B: 0x28}

// ClipCell mirrors one cell of the device's 8×4 clip grid.
type ClipCell struct {
	Track int
	Scene int
	Name  string
	State byte
	Color wire.RGB
}

// ClipGrid is the fixed 32-entry shadow of the visible clip grid, addressed
// as scene*ring.Width + track.
type ClipGrid struct {
	cells [ring.Width * ring.Height]ClipCell
	bus   *bus.Bus
}

// NewClipGrid returns a ClipGrid reset to its default state.
func NewClipGrid(b *bus.Bus) *ClipGrid {
	g := &ClipGrid{bus: b}
	g.reset()
	return g
}

func index(track, scene int) int {
	return scene*ring.Width + track
}

func (g *ClipGrid) reset() {
	for s := 0; s < ring.Height; s++ {
		for t := 0; t < ring.Width; t++ {
			g.cells[index(t, s)] = ClipCell{Track: t, Scene: s, Color: DefaultClipColor}
		}
	}
}

// Cell returns a copy of the cell at (track, scene). Caller must ensure the
// coordinates are in window range; out-of-range coordinates return the
// zero value.
func (g *ClipGrid) Cell(track, scene int) ClipCell {
	if track < 0 || track >= ring.Width || scene < 0 || scene >= ring.Height {
		return ClipCell{}
	}
	return g.cells[index(track, scene)]
}

// SetName updates a cell's name, notifying on real change.
func (g *ClipGrid) SetName(track, scene int, name string) {
	c := &g.cells[index(track, scene)]
	if c.Name == name {
		return
	}
	c.Name = name
	g.bus.Notify(bus.Change{Model: "clips", Row: index(track, scene), Fields: []string{"name"}})
}

// SetColor updates a cell's color, notifying on real change.
func (g *ClipGrid) SetColor(track, scene int, color wire.RGB) {
	c := &g.cells[index(track, scene)]
	if c.Color == color {
		return
	}
	c.Color = color
	g.bus.Notify(bus.Change{Model: "clips", Row: index(track, scene), Fields: []string{"color"}})
}

// SetState updates a cell's state byte and, optionally, its color in the
// same call (ClipState frames may carry a trailing color). Each changed
// field is reported.
func (g *ClipGrid) SetState(track, scene int, state byte, color *wire.RGB) {
	c := &g.cells[index(track, scene)]
	var changed []string
	if c.State != state {
		c.State = state
		changed = append(changed, "state")
	}
	if color != nil && c.Color != *color {
		c.Color = *color
		changed = append(changed, "color")
	}
	if len(changed) > 0 {
		g.bus.Notify(bus.Change{Model: "clips", Row: index(track, scene), Fields: changed})
	}
}

// Reset restores every cell to its default state and emits a single bulk
// notification. Used when the ring moves (see ring.Projection.Moved).
func (g *ClipGrid) Reset() {
	g.reset()
	g.bus.NotifyBulk("clips")
}
