package dispatch

import (
	"github.com/jdavidguerrero/pushclone-linkd/internal/ring"
	"github.com/jdavidguerrero/pushclone-linkd/internal/wire"
)

// handleClipName: (absTrack, absScene, length-prefixed utf8). Projected
// through the ring; dropped if outside the window or while the device is
// showing its overview grid.
func handleClipName(d *Dispatcher, payload []byte) {
	absTrack, absScene := int(payload[0]), int(payload[1])
	relT, relS, ok := d.Ring.Project(absTrack, absScene)
	if !ok || d.Ring.Offset.Overview {
		return
	}
	name := wire.ReadLengthPrefixedUTF8(payload, 2)
	d.Clips.SetName(relT, relS, name)
}

// handleGridUpdate7bit: a packed block of N consecutive cells (3 bytes
// each), already window-relative, row-major starting at (0,0). Bypasses
// ring projection entirely.
func handleGridUpdate7bit(d *Dispatcher, payload []byte) {
	if d.Ring.Offset.Overview {
		return
	}
	n := len(payload) / 3
	applyGridColors(d, n, func(i int) wire.RGB {
		off := i * 3
		return wire.ColorFrom7([3]byte{payload[off], payload[off+1], payload[off+2]})
	})
}

// handleGridUpdate14bit: same as handleGridUpdate7bit but 6 bytes/cell.
func handleGridUpdate14bit(d *Dispatcher, payload []byte) {
	if d.Ring.Offset.Overview {
		return
	}
	n := len(payload) / 6
	applyGridColors(d, n, func(i int) wire.RGB {
		off := i * 6
		return wire.ColorFrom14([6]byte{
			payload[off], payload[off+1], payload[off+2],
			payload[off+3], payload[off+4], payload[off+5],
		})
	})
}

func applyGridColors(d *Dispatcher, n int, colorAt func(i int) wire.RGB) {
	max := ring.Width * ring.Height
	if n > max {
		n = max
	}
	for i := 0; i < n; i++ {
		track := i % ring.Width
		scene := i / ring.Width
		d.Clips.SetColor(track, scene, colorAt(i))
	}
}

// handlePadUpdate14bit is dual-format: if the payload is at least 8 bytes
// and the first two bytes look like plausible window-relative coordinates
// (track<8, scene<4), it's interpreted as (track, scene, color14×6) in
// absolute coordinates and projected. Otherwise it's (padIndex, color14×6)
// with track = padIndex%8, scene = padIndex/8 — already window-relative,
// bypassing projection.
func handlePadUpdate14bit(d *Dispatcher, payload []byte) {
	if d.Ring.Offset.Overview {
		return
	}
	if len(payload) >= 8 && payload[0] < 8 && payload[1] < 4 {
		absTrack, absScene := int(payload[0]), int(payload[1])
		relT, relS, ok := d.Ring.Project(absTrack, absScene)
		if !ok {
			return
		}
		d.Clips.SetColor(relT, relS, color14At(payload, 2))
		return
	}
	padIndex := int(payload[0])
	track := padIndex % ring.Width
	scene := padIndex / ring.Width
	if scene >= ring.Height {
		return
	}
	d.Clips.SetColor(track, scene, color14At(payload, 1))
}

func color14At(payload []byte, off int) wire.RGB {
	return wire.ColorFrom14([6]byte{
		payload[off], payload[off+1], payload[off+2],
		payload[off+3], payload[off+4], payload[off+5],
	})
}

// handlePadUpdate7bit: (absTrack, absScene, r7, g7, b7). Absolute
// coordinates, projected through the ring.
func handlePadUpdate7bit(d *Dispatcher, payload []byte) {
	if d.Ring.Offset.Overview {
		return
	}
	absTrack, absScene := int(payload[0]), int(payload[1])
	relT, relS, ok := d.Ring.Project(absTrack, absScene)
	if !ok {
		return
	}
	d.Clips.SetColor(relT, relS, wire.ColorFrom7([3]byte{payload[2], payload[3], payload[4]}))
}

// handleClipState: (absTrack, absScene, state[, color14×6]). Absolute
// coordinates, projected through the ring.
func handleClipState(d *Dispatcher, payload []byte) {
	if d.Ring.Offset.Overview {
		return
	}
	absTrack, absScene := int(payload[0]), int(payload[1])
	relT, relS, ok := d.Ring.Project(absTrack, absScene)
	if !ok {
		return
	}
	state := payload[2]
	var color *wire.RGB
	if len(payload) >= 9 {
		c := color14At(payload, 3)
		color = &c
	}
	d.Clips.SetState(relT, relS, state, color)
}

// handleTrackName: (absTrack, length-prefixed utf8). Updates the windowed
// TrackInfo (if the track is visible) and unconditionally the MixerTrack
// at absTrack, since the mixer is always absolutely indexed. Feeds the
// batch reaper with the windowed index so a connection-time track burst
// gets pruned correctly.
func handleTrackName(d *Dispatcher, payload []byte) {
	absTrack := int(payload[0])
	name := wire.ReadLengthPrefixedUTF8(payload, 1)

	d.Mixer.SetName(absTrack, name)

	if relTrack, ok := d.Ring.ProjectTrack(absTrack); ok {
		d.Tracks.SetName(relTrack, name)
		d.Reaper.Observe(relTrack)
	}
}

// handleTrackColor: (absTrack, color7or14). 14-bit form if payload is at
// least 7 bytes (1 index + 6 color), else 7-bit (1 index + 3 color).
// Updates the absolutely-indexed MixerTrack unconditionally, and the
// windowed TrackInfo if the track is visible, mirroring handleTrackName's
// dual-update split between the whole-project mixer and the ring window.
func handleTrackColor(d *Dispatcher, payload []byte) {
	absTrack := int(payload[0])
	var color wire.RGB
	if len(payload) >= 7 {
		color = color14At(payload, 1)
	} else {
		color = wire.ColorFrom7([3]byte{payload[1], payload[2], payload[3]})
	}

	d.Mixer.SetColor(absTrack, color)

	if relTrack, ok := d.Ring.ProjectTrack(absTrack); ok {
		d.Tracks.SetColor(relTrack, color)
	}
}

// handleSceneName / handleSceneColor / handleSceneTriggered: absolute
// scene index, direct update (scenes are never windowed).
func handleSceneName(d *Dispatcher, payload []byte) {
	scene := int(payload[0])
	if scene < 0 || scene >= 4 {
		return
	}
	d.Scenes.SetName(scene, wire.ReadLengthPrefixedUTF8(payload, 1))
}

func handleSceneColor(d *Dispatcher, payload []byte) {
	scene := int(payload[0])
	if scene < 0 || scene >= 4 {
		return
	}
	rest := payload[1:]
	var color wire.RGB
	if len(rest) >= 6 {
		color = color14At(payload, 1)
	} else if len(rest) >= 3 {
		color = wire.ColorFrom7([3]byte{payload[1], payload[2], payload[3]})
	} else {
		return
	}
	d.Scenes.SetColor(scene, color)
}

func handleSceneTriggered(d *Dispatcher, payload []byte) {
	scene := int(payload[0])
	if scene < 0 || scene >= 4 {
		return
	}
	d.Scenes.SetTriggered(scene, payload[1] != 0)
}

// handleTransportPlay / Record / Loop: (u8 bool). Emit change only on a
// real transition (handled inside shadow.Transport).
func handleTransportPlay(d *Dispatcher, payload []byte)   { d.Transport.SetPlaying(payload[0] != 0) }
func handleTransportRecord(d *Dispatcher, payload []byte) { d.Transport.SetRecording(payload[0] != 0) }
func handleTransportLoop(d *Dispatcher, payload []byte)   { d.Transport.SetLoop(payload[0] != 0) }
func handleShiftState(d *Dispatcher, payload []byte)      { d.Transport.SetShiftPressed(payload[0] != 0) }

// handleTransportTempo: (msb, lsb) → decode_u14/10.0 BPM. The legacy
// 8-bit-decode path from the original firmware is intentionally not
// implemented; see the BPM encoding inconsistency design note.
func handleTransportTempo(d *Dispatcher, payload []byte) {
	bpm := float64(wire.DecodeU14(payload[0], payload[1])) / 10.0
	d.Transport.SetTempo(bpm)
}

// handleTransportPosition: utf8 string, e.g. "1.1.1", stored verbatim.
func handleTransportPosition(d *Dispatcher, payload []byte) {
	d.Transport.SetPosition(string(payload))
}

// handleTransportState: bit 0 = playing, bit 1 = recording, bit 2 = loop,
// applied atomically.
func handleTransportState(d *Dispatcher, payload []byte) {
	d.Transport.ApplyStateFlags(payload[0])
}

// handleRingPosition: (trackOffMsb, trackOffLsb, sceneOffMsb, sceneOffLsb,
// width, height, overview). On an offset change, Clip and Track shadows
// are cleared before the new offset takes effect, so any updates in the
// same batch apply at the new, already-cleared positions.
func handleRingPosition(d *Dispatcher, payload []byte) {
	next := ring.Offset{
		TrackOffset:  wire.DecodeU14(payload[0], payload[1]),
		SceneOffset:  wire.DecodeU14(payload[2], payload[3]),
		DeviceWidth:  payload[4],
		DeviceHeight: payload[5],
		Overview:     payload[6] != 0,
	}
	if d.Ring.Moved(next) {
		d.Clips.Reset()
		d.Tracks.Reset()
	}
	d.Ring.Offset = next
	d.Bus.NotifyBulk("ring")
}

// handleMixerVolume / handleMixerPan: (track, msb, lsb), absolute index.
func handleMixerVolume(d *Dispatcher, payload []byte) {
	d.Mixer.SetVolume(int(payload[0]), wire.NormalizeVolume14(payload[1], payload[2]))
}

func handleMixerPan(d *Dispatcher, payload []byte) {
	d.Mixer.SetPan(int(payload[0]), wire.NormalizeVolume14(payload[1], payload[2]))
}

func handleMixerMute(d *Dispatcher, payload []byte) { d.Mixer.SetMute(int(payload[0]), payload[1] != 0) }
func handleMixerSolo(d *Dispatcher, payload []byte) { d.Mixer.SetSolo(int(payload[0]), payload[1] != 0) }
func handleMixerArm(d *Dispatcher, payload []byte)  { d.Mixer.SetArm(int(payload[0]), payload[1] != 0) }

// handleMixerSend: (track, sendIdx(0..3), msb, lsb). Unknown send indices
// are a Domain error: dropped silently, no mutation.
func handleMixerSend(d *Dispatcher, payload []byte) {
	sendIdx := int(payload[1])
	if sendIdx < 0 || sendIdx > 3 {
		return
	}
	d.Mixer.SetSend(int(payload[0]), sendIdx, wire.NormalizeVolume14(payload[2], payload[3]))
}

func handleMixerMode(d *Dispatcher, payload []byte) { d.Mixer.SetMode(payload[0]) }

// handleMixerMeter: (track, meterLMsb, meterLLsb, meterRMsb, meterRLsb),
// absolute index. A live peak report for one channel; DecayMeters runs it
// down toward silence on the UI-rate tick between reports, since the
// device only ever reports peaks, never a release curve.
func handleMixerMeter(d *Dispatcher, payload []byte) {
	left := wire.NormalizeVolume14(payload[1], payload[2])
	right := wire.NormalizeVolume14(payload[3], payload[4])
	d.Mixer.SetMeters(int(payload[0]), left, right)
}

// handleSelectedTrack: (u7) → MixerTrack selection, clamped to [0, size-1].
func handleSelectedTrack(d *Dispatcher, payload []byte) {
	d.Mixer.SetSelected(int(payload[0] & 0x7F))
}
