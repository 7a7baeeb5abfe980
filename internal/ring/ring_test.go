package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestProjectInsideWindow(t *testing.T) {
	p := &Projection{Offset: Offset{TrackOffset: 4, SceneOffset: 2}}
	relT, relS, ok := p.Project(4, 2)
	assert.True(t, ok)
	assert.Equal(t, 0, relT)
	assert.Equal(t, 0, relS)

	relT, relS, ok = p.Project(11, 5)
	assert.True(t, ok)
	assert.Equal(t, 7, relT)
	assert.Equal(t, 3, relS)
}

func TestProjectOutsideWindow(t *testing.T) {
	p := &Projection{Offset: Offset{TrackOffset: 4, SceneOffset: 2}}

	_, _, ok := p.Project(3, 2)
	assert.False(t, ok, "one below the track window")

	_, _, ok = p.Project(12, 2)
	assert.False(t, ok, "one past the track window")

	_, _, ok = p.Project(4, 6)
	assert.False(t, ok, "past the scene window")
}

func TestProjectTrackIndependentOfScene(t *testing.T) {
	p := &Projection{Offset: Offset{TrackOffset: 2}}
	relTrack, ok := p.ProjectTrack(2)
	assert.True(t, ok)
	assert.Equal(t, 0, relTrack)

	_, ok = p.ProjectTrack(1)
	assert.False(t, ok)
}

func TestMovedOnlyOnTrackOrSceneOffsetChange(t *testing.T) {
	p := &Projection{Offset: Offset{TrackOffset: 4, SceneOffset: 2, DeviceWidth: 8, DeviceHeight: 4}}

	assert.False(t, p.Moved(Offset{TrackOffset: 4, SceneOffset: 2, DeviceWidth: 8, DeviceHeight: 4, Overview: true}),
		"overview-only change must not count as movement")
	assert.True(t, p.Moved(Offset{TrackOffset: 5, SceneOffset: 2}))
	assert.True(t, p.Moved(Offset{TrackOffset: 4, SceneOffset: 3}))
}

func TestProjectedCoordinatesAlwaysFitTheFixedWindowWhenOK(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		offset := Offset{
			TrackOffset: uint16(rapid.IntRange(0, 1000).Draw(t, "trackOffset")),
			SceneOffset: uint16(rapid.IntRange(0, 1000).Draw(t, "sceneOffset")),
		}
		absTrack := rapid.IntRange(0, 2000).Draw(t, "absTrack")
		absScene := rapid.IntRange(0, 2000).Draw(t, "absScene")

		p := &Projection{Offset: offset}
		relT, relS, ok := p.Project(absTrack, absScene)
		if !ok {
			return
		}
		assert.GreaterOrEqual(t, relT, 0)
		assert.Less(t, relT, Width)
		assert.GreaterOrEqual(t, relS, 0)
		assert.Less(t, relS, Height)
	})
}
