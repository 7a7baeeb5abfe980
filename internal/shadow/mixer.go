package shadow

import (
	"fmt"
	"math"
	"time"

	"github.com/jdavidguerrero/pushclone-linkd/internal/bus"
	"github.com/jdavidguerrero/pushclone-linkd/internal/wire"
)

const sendCount = 4

// meterDecayTau is the exponential decay time constant for mixer meters
// between device updates: a host-side ballistic, so a meter falls toward
// silence between reports rather than holding the last reported level.
const meterDecayTau = 150 * time.Millisecond

// meterFloor is the level below which a decaying meter snaps to exactly 0,
// avoiding an asymptote that never quite reaches silence.
const meterFloor = 0.001

// MixerTrack mirrors one absolutely-indexed channel strip. Tag, VolumeLabel
// and PanLabel are derived fields, recomputed whenever Volume/Pan/Name
// change.
type MixerTrack struct {
	Index   int
	Name    string
	Tag     string
	Color   wire.RGB
	Volume  float64
	Pan     float64
	Send    [sendCount]float64
	Muted   bool
	Solo    bool
	Armed   bool
	Active  bool
	MeterL  float64
	MeterR  float64

	VolumeLabel string
	PanLabel    string
}

// Mixer is the absolutely-indexed shadow of the whole project's mixer. It
// is never reset by ring motion: the mixer represents the whole project,
// the windowed TrackList represents only the visible 8×4 ring.
type Mixer struct {
	tracks   []MixerTrack
	selected int
	mode     byte
	bus      *bus.Bus
}

func defaultMixerTrack(i int) MixerTrack {
	t := MixerTrack{
		Index:  i,
		Name:   fmt.Sprintf("Track %d", i+1),
		Tag:    fmt.Sprintf("T%d", i+1),
		Pan:    0.5,
		Active: true,
	}
	t.VolumeLabel = volumeLabel(t.Volume)
	t.PanLabel = panLabel(t.Pan)
	return t
}

// NewMixer returns a Mixer with size channels, each at its default state.
func NewMixer(b *bus.Bus, size int) *Mixer {
	m := &Mixer{bus: b}
	m.Resize(size)
	return m
}

// Resize grows or shrinks the mixer. Growth appends default-initialized
// channels; shrinkage truncates. Always emits a bulk notification since the
// row count itself changed.
func (m *Mixer) Resize(size int) {
	if size < 0 {
		size = 0
	}
	switch {
	case size > len(m.tracks):
		for i := len(m.tracks); i < size; i++ {
			m.tracks = append(m.tracks, defaultMixerTrack(i))
		}
	case size < len(m.tracks):
		m.tracks = m.tracks[:size]
		if m.selected >= size && size > 0 {
			m.selected = size - 1
		}
	}
	m.bus.NotifyBulk("mixer")
}

// Size returns the current channel count.
func (m *Mixer) Size() int {
	return len(m.tracks)
}

// Track returns a copy of channel i, or the zero value if out of range.
func (m *Mixer) Track(i int) MixerTrack {
	if i < 0 || i >= len(m.tracks) {
		return MixerTrack{}
	}
	return m.tracks[i]
}

func (m *Mixer) ensure(i int) *MixerTrack {
	if i < 0 || i >= len(m.tracks) {
		return nil
	}
	return &m.tracks[i]
}

// SetVolume updates a channel's volume and recomputes its label.
func (m *Mixer) SetVolume(i int, v float64) {
	t := m.ensure(i)
	if t == nil {
		return
	}
	v = clamp01(v)
	if t.Volume == v {
		return
	}
	t.Volume = v
	t.VolumeLabel = volumeLabel(v)
	m.bus.Notify(bus.Change{Model: "mixer", Row: i, Fields: []string{"volume", "volumeLabel"}})
}

// SetPan updates a channel's pan and recomputes its label.
func (m *Mixer) SetPan(i int, v float64) {
	t := m.ensure(i)
	if t == nil {
		return
	}
	v = clamp01(v)
	if t.Pan == v {
		return
	}
	t.Pan = v
	t.PanLabel = panLabel(v)
	m.bus.Notify(bus.Change{Model: "mixer", Row: i, Fields: []string{"pan", "panLabel"}})
}

// SetSend updates one of a channel's four aux sends.
func (m *Mixer) SetSend(i, sendIdx int, v float64) {
	t := m.ensure(i)
	if t == nil || sendIdx < 0 || sendIdx >= sendCount {
		return
	}
	v = clamp01(v)
	if t.Send[sendIdx] == v {
		return
	}
	t.Send[sendIdx] = v
	m.bus.Notify(bus.Change{Model: "mixer", Row: i, Fields: []string{fmt.Sprintf("send%c", 'A'+sendIdx)}})
}

// SetMute, SetSolo, and SetArm update their respective boolean flags.
func (m *Mixer) SetMute(i int, v bool) {
	m.setBool(i, v, "muted", func(t *MixerTrack) *bool { return &t.Muted })
}

func (m *Mixer) SetSolo(i int, v bool) {
	m.setBool(i, v, "solo", func(t *MixerTrack) *bool { return &t.Solo })
}

func (m *Mixer) SetArm(i int, v bool) {
	m.setBool(i, v, "armed", func(t *MixerTrack) *bool { return &t.Armed })
}

func (m *Mixer) setBool(i int, v bool, field string, sel func(*MixerTrack) *bool) {
	t := m.ensure(i)
	if t == nil {
		return
	}
	p := sel(t)
	if *p == v {
		return
	}
	*p = v
	m.bus.Notify(bus.Change{Model: "mixer", Row: i, Fields: []string{field}})
}

// SetName updates a channel's name and its derived tag, unconditionally (the
// mixer is always absolutely indexed, never windowed).
func (m *Mixer) SetName(i int, name string) {
	t := m.ensure(i)
	if t == nil {
		return
	}
	tag := deriveTag(name)
	if t.Name == name && t.Tag == tag {
		return
	}
	t.Name = name
	t.Tag = tag
	m.bus.Notify(bus.Change{Model: "mixer", Row: i, Fields: []string{"name", "tag"}})
}

// SetColor updates a channel's color.
func (m *Mixer) SetColor(i int, c wire.RGB) {
	t := m.ensure(i)
	if t == nil {
		return
	}
	if t.Color == c {
		return
	}
	t.Color = c
	m.bus.Notify(bus.Change{Model: "mixer", Row: i, Fields: []string{"color"}})
}

// SetMode updates the mixer's display mode (volume/pan/sends...), a
// TNC-style "SetHardware" style opaque byte the device interprets.
func (m *Mixer) SetMode(mode byte) {
	if m.mode == mode {
		return
	}
	m.mode = mode
	m.bus.Notify(bus.Change{Model: "mixer", Row: -1, Fields: []string{"mode"}})
}

// Selected returns the currently selected channel index.
func (m *Mixer) Selected() int {
	return m.selected
}

// SetSelected clamps idx into [0, size-1] and updates the selection.
func (m *Mixer) SetSelected(idx int) {
	if len(m.tracks) == 0 {
		return
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= len(m.tracks) {
		idx = len(m.tracks) - 1
	}
	if idx == m.selected {
		return
	}
	m.selected = idx
	m.bus.Notify(bus.Change{Model: "mixer", Row: -1, Fields: []string{"selected"}})
}

// SetMeters updates a channel's peak meters directly from a device report.
func (m *Mixer) SetMeters(i int, left, right float64) {
	t := m.ensure(i)
	if t == nil {
		return
	}
	left, right = clamp01(left), clamp01(right)
	if t.MeterL == left && t.MeterR == right {
		return
	}
	t.MeterL, t.MeterR = left, right
	m.bus.Notify(bus.Change{Model: "mixer", Row: i, Fields: []string{"meterL", "meterR"}})
}

// DecayMeters applies exponential decay toward zero to every channel's
// meters, called on a fixed UI-rate tick rather than from the wire: the
// device only reports meter peaks, it doesn't stream a release curve.
func (m *Mixer) DecayMeters(dt time.Duration) {
	factor := math.Exp(-float64(dt) / float64(meterDecayTau))
	for i := range m.tracks {
		t := &m.tracks[i]
		l, r := t.MeterL*factor, t.MeterR*factor
		if l < meterFloor {
			l = 0
		}
		if r < meterFloor {
			r = 0
		}
		if l == t.MeterL && r == t.MeterR {
			continue
		}
		t.MeterL, t.MeterR = l, r
		m.bus.Notify(bus.Change{Model: "mixer", Row: i, Fields: []string{"meterL", "meterR"}})
	}
}

func deriveTag(name string) string {
	r := []rune(name)
	if len(r) > 4 {
		r = r[:4]
	}
	tag := string(r)
	upper := make([]rune, 0, len(tag))
	for _, c := range tag {
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper = append(upper, c)
	}
	return string(upper)
}

// volumeLabel derives a human display string for a [0,1] volume fader.
func volumeLabel(v float64) string {
	if v < 0.001 {
		return "-∞"
	}
	db := 20 * math.Log10(v)
	if db < -60 {
		return "-∞"
	}
	if db > -0.5 {
		return "0.0 dB"
	}
	return fmt.Sprintf("%.1f dB", db)
}

// panLabel derives a human display string for a [0,1] pan position, where
// 0.5 is center.
func panLabel(v float64) string {
	if v >= 0.48 && v <= 0.52 {
		return "C"
	}
	steps := int(math.Round((v - 0.5) * 50))
	if steps < 0 {
		return fmt.Sprintf("L%d", -steps)
	}
	return fmt.Sprintf("R%d", steps)
}
