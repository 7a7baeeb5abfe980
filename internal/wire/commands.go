// Package wire implements the binary frame codec for the link between the
// host and the control-surface microcontroller: the SYNC/cmd/len/payload/
// checksum frame layout, the 7-bit and 14-bit MIDI-safe numeric and color
// encodings, and the byte-stream framer that resynchronizes on corruption.
//
// The wire format and the command table are described in §6 of the
// controller's protocol notes; this file holds the command-byte constants.
package wire

// Sync is the single framing byte. Every multi-byte value on the wire is
// kept out of 0..127 range-checked fields specifically so this byte can
// never appear ambiguously inside a payload.
const Sync byte = 0xAA

// Command bytes recognized by the dispatcher. Only commands the host acts
// on are named; anything else is logged and discarded.
const (
	CmdHandshake      byte = 0x00
	CmdHandshakeReply byte = 0x01
	CmdDisconnect     byte = 0x02
	CmdPing           byte = 0x03

	CmdClipState byte = 0x10
	CmdClipName  byte = 0x14

	CmdSceneState     byte = 0x1A
	CmdSceneName      byte = 0x1B
	CmdSceneColor     byte = 0x1C
	CmdSceneTriggered byte = 0x1D

	CmdMixerVolume byte = 0x21
	CmdMixerPan    byte = 0x22
	CmdMixerMute   byte = 0x23
	CmdMixerSolo   byte = 0x24
	CmdMixerArm    byte = 0x25
	CmdMixerSend   byte = 0x26
	CmdTrackName   byte = 0x27
	CmdTrackColor  byte = 0x28

	// CmdSelectedTrack has no assigned byte in the original device
	// firmware notes. It is placed directly after CmdTrackColor, in the
	// same "mixer/track, absolute indexing" command block.
	CmdSelectedTrack byte = 0x29

	CmdTransportPlay     byte = 0x40
	CmdTransportRecord   byte = 0x41
	CmdTransportLoop     byte = 0x42
	CmdTransportTempo    byte = 0x43
	CmdTransportPosition byte = 0x45
	CmdTransportState    byte = 0x49

	CmdGridUpdate7bit byte = 0x60

	CmdPadUpdate7bit byte = 0x84
	CmdShiftState    byte = 0x88
	CmdMixerMode     byte = 0x98

	// CmdMixerMeter also has no assigned byte upstream. Placed directly
	// after CmdMixerMode, in the same "mixer-wide, absolute" command
	// block: it carries a live meter report for one channel, the wire
	// counterpart of the original device firmware's setTrackMeter.
	CmdMixerMeter byte = 0x99

	// CmdRingPosition also has no assigned byte upstream. Placed directly
	// before CmdGridUpdate14bit, in the "bulk/grid" 0xA* command block.
	CmdRingPosition    byte = 0xA5
	CmdGridUpdate14bit byte = 0xA6
	CmdPadUpdate14bit  byte = 0xA7
)

// HandshakeMagic is the identity string exchanged during connection setup.
// Compared byte-exactly; no partial or case-insensitive match is accepted.
const HandshakeMagic = "PUSHCLONE_GUI"
