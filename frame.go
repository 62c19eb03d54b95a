// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package synergy

import (
	"fmt"
	"iter"
)

// frameHeaderSize is the size of the big-endian body length prefix.
const frameHeaderSize = 4

// frameReader reassembles length-prefixed frames from a byte stream.
//
// Bytes are read into a fixed-capacity buffer through Free and Commit;
// offset counts the bytes currently buffered and never exceeds the
// capacity. A frame whose declared
// body length cannot fit in the buffer switches the reader into discard
// mode: the next discard bytes of the stream are dropped before framing
// resumes at the frame that follows.
type frameReader struct {
	buf     []byte
	offset  int
	discard int64
}

func newFrameReader(capacity int) *frameReader {
	return &frameReader{buf: make([]byte, capacity)}
}

// Capacity returns the fixed size of the receive buffer.
func (r *frameReader) Capacity() int {
	return len(r.buf)
}

// Discarding reports how many bytes of an oversized frame are still to be dropped.
func (r *frameReader) Discarding() int64 {
	return r.discard
}

// Free returns the writable tail of the buffer. While discarding, the slice
// is limited to the bytes still owed to the discarded frame so that a read
// never consumes the start of the next frame into the drain.
func (r *frameReader) Free() []byte {
	free := r.buf[r.offset:]
	if r.discard > 0 && int64(len(free)) > r.discard {
		free = free[:r.discard]
	}
	return free
}

// Commit accounts for n bytes written into the slice returned by Free.
func (r *frameReader) Commit(n int) {
	if n <= 0 {
		return
	}
	if r.discard > 0 {
		d := n
		if int64(d) > r.discard {
			d = int(r.discard)
		}
		r.discard -= int64(d)
		copy(r.buf[r.offset:], r.buf[r.offset+d:r.offset+n])
		n -= d
	}
	r.offset += n
}

// Reset drops all buffered data and any pending discard.
func (r *frameReader) Reset() {
	r.offset = 0
	r.discard = 0
}

func (r *frameReader) bodyLength() uint32 {
	return getUint32(r.buf)
}

func (r *frameReader) frameTooLarge() bool {
	return int64(r.bodyLength())+frameHeaderSize > int64(len(r.buf))
}

// oversize drops the buffered part of an oversized frame, records how many
// body bytes remain on the wire and describes the frame.
func (r *frameReader) oversize() error {
	length := r.bodyLength()
	tag := "????"
	if r.offset >= frameHeaderSize+4 {
		tag = printableTag(r.buf[frameHeaderSize : frameHeaderSize+4])
	}
	r.discard = int64(length) - int64(r.offset-frameHeaderSize)
	r.offset = 0
	return &OversizedFrameError{Tag: tag, Length: length, Capacity: len(r.buf)}
}

// Frames yields every complete frame body currently buffered, in arrival
// order. The yielded slice aliases the receive buffer and is only valid
// until the yield function returns. An oversized frame yields a nil body
// with an ErrDesync error, after which the reader is in discard mode and
// iteration stops.
func (r *frameReader) Frames() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for r.discard == 0 && r.offset >= frameHeaderSize {
			if r.frameTooLarge() {
				yield(nil, r.oversize())
				return
			}

			end := frameHeaderSize + int(r.bodyLength())
			if end > r.offset {
				return
			}

			cont := yield(r.buf[frameHeaderSize:end], nil)
			if r.offset < end {
				// reset by the consumer
				return
			}

			copy(r.buf, r.buf[end:r.offset])
			r.offset -= end

			if !cont {
				return
			}
		}
	}
}

// OversizedFrameError describes a frame whose body could not fit in the
// receive buffer. It unwraps to an ErrDesync SynergyError.
type OversizedFrameError struct {
	Tag      string
	Length   uint32
	Capacity int
}

func (e *OversizedFrameError) Error() string {
	return e.Unwrap().Error()
}

func (e *OversizedFrameError) Unwrap() error {
	return desyncError("frameReader.Frames",
		fmt.Sprintf("oversized frame '%s' (length %d, buffer %d)", e.Tag, e.Length, e.Capacity), nil)
}

// printableTag renders a 4-byte tag for logs, replacing non-printable bytes.
func printableTag(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		if c < 0x20 || c > 0x7e {
			c = '?'
		}
		out[i] = c
	}
	return string(out)
}
