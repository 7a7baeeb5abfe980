// Package dispatch maps the frame command byte to a typed handler,
// validating minimum payload lengths and routing absolute vs. relative
// coordinates through the ring projection before touching shadow state.
// Every handler is idempotent and mutates no state on validation failure.
package dispatch

import (
	"github.com/jdavidguerrero/pushclone-linkd/internal/bus"
	"github.com/jdavidguerrero/pushclone-linkd/internal/linkfsm"
	"github.com/jdavidguerrero/pushclone-linkd/internal/reaper"
	"github.com/jdavidguerrero/pushclone-linkd/internal/ring"
	"github.com/jdavidguerrero/pushclone-linkd/internal/shadow"
	"github.com/jdavidguerrero/pushclone-linkd/internal/wire"
)

// Logger is the subset of *log.Logger (github.com/charmbracelet/log) the
// dispatcher needs, so tests can supply a stub without pulling in a real
// logger.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// nopLogger discards everything; used when Dispatcher.Log is nil.
type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// Sender writes an encoded frame out to the device. Used for the rare
// handler that must reply (currently none outside the FSM itself, but kept
// so handlers never need direct port access).
type Sender func(cmd byte, payload []byte)

// Dispatcher wires the ring projection, all five shadow models, the batch
// reaper, and the connection FSM into one command-byte-keyed entry point.
type Dispatcher struct {
	Ring      *ring.Projection
	Clips     *shadow.ClipGrid
	Tracks    *shadow.TrackList
	Scenes    *shadow.SceneList
	Mixer     *shadow.Mixer
	Transport *shadow.Transport
	Reaper    *reaper.TrackBatchReaper
	Bus       *bus.Bus
	FSM       *linkfsm.FSM
	Log       Logger
}

// New wires a Dispatcher out of freshly constructed models sharing b, plus
// the FSM the caller already built. It builds the batch reaper itself, over
// the new track list.
func New(b *bus.Bus, fsm *linkfsm.FSM, log Logger) *Dispatcher {
	if log == nil {
		log = nopLogger{}
	}
	clips := shadow.NewClipGrid(b)
	tracks := shadow.NewTrackList(b)
	d := &Dispatcher{
		Ring:      &ring.Projection{},
		Clips:     clips,
		Tracks:    tracks,
		Scenes:    shadow.NewSceneList(b),
		Mixer:     shadow.NewMixer(b, 8),
		Transport: shadow.NewTransport(b),
		Bus:       b,
		FSM:       fsm,
		Log:       log,
	}
	d.Reaper = reaper.New(tracks)
	return d
}

// Dispatch routes one decoded frame. Connection-control frames (handshake,
// ping, disconnect) go to the FSM first; everything else goes to the
// command table. Unknown commands are logged and discarded.
func (d *Dispatcher) Dispatch(cmd byte, payload []byte) {
	if d.FSM != nil && d.FSM.HandleFrame(cmd, payload) {
		return
	}

	h, ok := handlerTable[cmd]
	if !ok {
		d.Log.Warnf("dispatch: unknown command, discarding cmd=0x%02x len=%d", cmd, len(payload))
		return
	}
	if len(payload) < h.minLen {
		d.Log.Warnf("dispatch: short payload, dropping cmd=0x%02x len=%d want>=%d", cmd, len(payload), h.minLen)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.Log.Errorf("dispatch: handler panic, dropping cmd=0x%02x len=%d: %v", cmd, len(payload), r)
		}
	}()
	h.fn(d, payload)
}

type handlerEntry struct {
	minLen int
	fn     func(d *Dispatcher, payload []byte)
}

var handlerTable map[byte]handlerEntry

func init() {
	handlerTable = map[byte]handlerEntry{
		wire.CmdClipName:          {2, handleClipName},
		wire.CmdGridUpdate7bit:    {0, handleGridUpdate7bit},
		wire.CmdGridUpdate14bit:   {0, handleGridUpdate14bit},
		wire.CmdPadUpdate14bit:    {7, handlePadUpdate14bit},
		wire.CmdPadUpdate7bit:     {5, handlePadUpdate7bit},
		wire.CmdClipState:         {3, handleClipState},
		wire.CmdTrackName:         {1, handleTrackName},
		wire.CmdTrackColor:        {4, handleTrackColor},
		wire.CmdSceneState:        {2, handleSceneTriggered},
		wire.CmdSceneName:         {2, handleSceneName},
		wire.CmdSceneColor:        {2, handleSceneColor},
		wire.CmdSceneTriggered:    {2, handleSceneTriggered},
		wire.CmdTransportPlay:     {1, handleTransportPlay},
		wire.CmdTransportRecord:   {1, handleTransportRecord},
		wire.CmdTransportLoop:     {1, handleTransportLoop},
		wire.CmdTransportTempo:    {2, handleTransportTempo},
		wire.CmdTransportPosition: {0, handleTransportPosition},
		wire.CmdTransportState:    {1, handleTransportState},
		wire.CmdRingPosition:      {7, handleRingPosition},
		wire.CmdMixerVolume:       {3, handleMixerVolume},
		wire.CmdMixerPan:          {3, handleMixerPan},
		wire.CmdMixerMute:         {2, handleMixerMute},
		wire.CmdMixerSolo:         {2, handleMixerSolo},
		wire.CmdMixerArm:          {2, handleMixerArm},
		wire.CmdMixerSend:         {4, handleMixerSend},
		wire.CmdMixerMode:         {1, handleMixerMode},
		wire.CmdMixerMeter:        {5, handleMixerMeter},
		wire.CmdSelectedTrack:     {1, handleSelectedTrack},
		wire.CmdShiftState:        {1, handleShiftState},
	}
}
