// Package ring implements the Session Ring projection: the device streams
// absolute track/scene coordinates, and the host keeps a fixed 8×4 shadow
// window onto them. This package centralizes the dual-coordinate-system
// translation so the dispatcher doesn't have to reason about absolute vs.
// relative coordinates per command.
package ring

// Width and Height are the host's fixed shadow window dimensions,
// regardless of what the device reports in a RingPosition frame.
const (
	Width  = 8
	Height = 4
)

// Offset is the device-reported ring position.
type Offset struct {
	TrackOffset uint16
	SceneOffset uint16
	DeviceWidth uint8
	DeviceHeight uint8

	// Overview is set while the device is showing its zoomed-out
	// overview grid rather than the 8×4 window. While true, clip shadow
	// mutation (ClipName, ClipState, GridUpdate*, PadUpdate*) is suppressed
	// even though frames keep dispatching normally (so malformed-frame
	// warnings still fire). Track shadow updates are not suppressed.
	Overview bool
}

// Projection holds the current ring offset and projects absolute
// coordinates into the shadow window.
type Projection struct {
	Offset Offset
}

// Project maps an absolute (track, scene) pair into window-relative
// coordinates. ok is false when the coordinate falls outside the current
// 8×4 window, in which case relT/relS are meaningless and the caller must
// drop the update.
func (p *Projection) Project(absTrack, absScene int) (relTrack, relScene int, ok bool) {
	relTrack = absTrack - int(p.Offset.TrackOffset)
	relScene = absScene - int(p.Offset.SceneOffset)
	if relTrack < 0 || relTrack >= Width || relScene < 0 || relScene >= Height {
		return 0, 0, false
	}
	return relTrack, relScene, true
}

// ProjectTrack maps a single absolute track index into the window, for
// commands that only carry a track dimension (TrackName, TrackColor).
func (p *Projection) ProjectTrack(absTrack int) (relTrack int, ok bool) {
	relTrack = absTrack - int(p.Offset.TrackOffset)
	if relTrack < 0 || relTrack >= Width {
		return 0, false
	}
	return relTrack, true
}

// Moved reports whether new would require the Clip/Track shadows to be
// cleared: true whenever the track or scene offset differs from the
// current one. Width/Height/Overview changes alone do not trigger a clear.
func (p *Projection) Moved(new Offset) bool {
	return new.TrackOffset != p.Offset.TrackOffset || new.SceneOffset != p.Offset.SceneOffset
}
