package wire

import "bytes"

// compactThreshold and compactMinSize gate the receive buffer's prefix
// reclaim: below compactMinSize bytes it isn't worth copying, and above it
// we only compact once the unread tail has shrunk under 1/4 of capacity.
// Grounded on the equivalent CompactBuffer helper used for a similar
// length-prefixed serial framing elsewhere in the retrieval pack; pure
// efficiency, it changes nothing about which frames are produced.
const (
	compactMinSize   = 1024
	compactThreshold = 4
)

// Framer turns a byte stream into a stream of Frames. It owns an
// append-only receive buffer and resynchronizes on corruption: a checksum
// mismatch drops only the leading SYNC byte and restarts scanning, so a
// false-positive SYNC byte found in noise doesn't swallow a subsequent real
// frame.
type Framer struct {
	buf  bytes.Buffer
	Warn func(msg string, args ...any)
}

// NewFramer returns a Framer with an optional warning sink. warn may be nil.
func NewFramer(warn func(msg string, args ...any)) *Framer {
	if warn == nil {
		warn = func(string, ...any) {}
	}
	return &Framer{Warn: warn}
}

// Feed appends newly read bytes and extracts every complete, validated
// frame now available, in wire order. Partial frames remain buffered for a
// subsequent Feed call; splitting a single frame's bytes across arbitrary
// Feed boundaries yields the same frame sequence as a single Feed.
func (f *Framer) Feed(data []byte) []Frame {
	f.buf.Write(data)
	var frames []Frame
	for {
		fr, ok := f.extractOne()
		if !ok {
			break
		}
		frames = append(frames, fr)
	}
	f.compact()
	return frames
}

// extractOne attempts to pull exactly one frame out of the buffer,
// following the five-step scan/wait/extract/verify/resync algorithm. A
// checksum mismatch only drops the leading byte and resumes scanning
// in-place, so it loops rather than returning; it only returns false once
// the buffer is exhausted or a genuine partial frame remains (waiting on
// more bytes from a future Feed call).
func (f *Framer) extractOne() (Frame, bool) {
	for {
		raw := f.buf.Bytes()

		// Step 1: scan for the next SYNC byte, dropping everything before it.
		idx := bytes.IndexByte(raw, Sync)
		if idx < 0 {
			f.buf.Reset()
			return Frame{}, false
		}
		if idx > 0 {
			f.buf.Next(idx)
			raw = f.buf.Bytes()
		}

		// Step 2: need at least SYNC + cmd + len before we can read a header.
		if len(raw) < 3 {
			return Frame{}, false
		}

		cmd := raw[1]
		length := int(raw[2])
		total := 3 + length + 1

		// Step 3: wait for the rest of the frame to arrive.
		if len(raw) < total {
			return Frame{}, false
		}

		payload := append([]byte(nil), raw[3:3+length]...)
		got := raw[3+length]
		want := Checksum(cmd, payload)

		if got != want {
			// Step 4: false-positive SYNC. Drop only the leading byte and
			// keep scanning from the next position, in case a real frame
			// follows later in the already-buffered bytes.
			f.buf.Next(1)
			f.Warn("wire: checksum mismatch, resyncing", "cmd", cmd, "len", length)
			continue
		}

		// Step 5: valid frame. Consume it and hand it to the caller.
		f.buf.Next(total)
		return Frame{Cmd: cmd, Payload: payload}, true
	}
}

// compact reclaims the buffer's consumed prefix capacity once it has grown
// large relative to what's left unread, so a long-lived Framer doesn't
// retain megabytes of already-processed bytes.
func (f *Framer) compact() {
	b := f.buf.Bytes()
	if len(b) < compactMinSize {
		return
	}
	if f.buf.Cap()/compactThreshold <= len(b) {
		return
	}
	clone := append([]byte(nil), b...)
	f.buf.Reset()
	f.buf.Write(clone)
}
