// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package synergy

import (
	"fmt"
)

// ClipboardFormat identifies the data type of one clipboard entry.
type ClipboardFormat uint32

// Clipboard formats defined by the protocol.
const (
	ClipboardText   ClipboardFormat = 0
	ClipboardBitmap ClipboardFormat = 1
	ClipboardHTML   ClipboardFormat = 2
)

// String returns the format name.
func (f ClipboardFormat) String() string {
	switch f {
	case ClipboardText:
		return "text"
	case ClipboardBitmap:
		return "bitmap"
	case ClipboardHTML:
		return "html"
	default:
		return fmt.Sprintf("format(%d)", uint32(f))
	}
}

// ClipboardData is one format entry of a clipboard message. Data aliases the
// receive buffer while the message is being dispatched.
type ClipboardData struct {
	Format ClipboardFormat
	Data   []byte
}

// ClipboardMessage carries the server's clipboard contents.
type ClipboardMessage struct {
	Index    uint8
	Sequence uint32
	Formats  []ClipboardData
}

func (*ClipboardMessage) Tag() string { return tagClipboard }

// clipboardHeaderSize is the fixed part of a single-format DCLP message
// after the tag: index, sequence, rest size, format count, format id and
// data length.
const clipboardHeaderSize = 1 + 4 + 4 + 4 + 4 + 4

// clipboardOverhead is everything in an outgoing single-format clipboard
// message except the data itself.
const clipboardOverhead = frameHeaderSize + 4 + clipboardHeaderSize

// maxClipboardText returns the largest text that fits a reply buffer of the
// given capacity.
func maxClipboardText(replyCapacity int) int {
	if replyCapacity <= clipboardOverhead {
		return 0
	}
	return replyCapacity - clipboardOverhead
}

// DCLP index:u8 seq:u32 size:u32 { count:u32 { format:u32 len:u32 data } }
//
// size covers everything after it. Format entries are read only from that
// region, so a lying entry length can never reach past the declared size.
func decodeClipboard(payload []byte) (Message, error) {
	r := newPayloadReader("decodeClipboard", payload)
	msg := &ClipboardMessage{Index: r.uint8(), Sequence: r.uint32()}
	size := r.uint32()
	if r.err != nil {
		return nil, r.err
	}
	if int64(size) > int64(r.remaining()) {
		return nil, protocolError("decodeClipboard",
			fmt.Sprintf("declared size %d exceeds payload (%d bytes)", size, r.remaining()), nil)
	}

	body := newPayloadReader("decodeClipboard", r.bytes(int(size)))
	count := body.uint32()
	if body.err != nil {
		return nil, body.err
	}
	// every entry needs at least its 8-byte header
	if int64(count)*8 > int64(body.remaining()) {
		return nil, protocolError("decodeClipboard",
			fmt.Sprintf("format count %d exceeds declared size %d", count, size), nil)
	}

	msg.Formats = make([]ClipboardData, 0, count)
	for i := uint32(0); i < count; i++ {
		format := ClipboardFormat(body.uint32())
		length := body.uint32()
		if body.err != nil {
			return nil, body.err
		}
		if int64(length) > int64(body.remaining()) {
			return nil, protocolError("decodeClipboard",
				fmt.Sprintf("format %d length %d exceeds declared size", i, length), nil)
		}
		msg.Formats = append(msg.Formats, ClipboardData{Format: format, Data: body.bytes(int(length))})
	}
	return msg, nil
}

// encodeClipboard writes a single text-format DCLP message. Text that does
// not fit the buffer is cut at the limit; the returned count is the number
// of bytes actually encoded.
func encodeClipboard(b *replyBuffer, index uint8, sequence uint32, text string) (int, error) {
	if limit := maxClipboardText(b.Capacity()); len(text) > limit {
		text = text[:limit]
	}
	n := uint32(len(text)) // #nosec G115 - bounded by the reply buffer capacity

	b.Reset()
	steps := []func() error{
		func() error { return b.AppendString(tagClipboard) },
		func() error { return b.AppendUint8(index) },
		func() error { return b.AppendUint32(sequence) },
		func() error { return b.AppendUint32(4 + 4 + 4 + n) },
		func() error { return b.AppendUint32(1) },
		func() error { return b.AppendUint32(uint32(ClipboardText)) },
		func() error { return b.AppendUint32(n) },
		func() error { return b.AppendString(text) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return 0, err
		}
	}
	return len(text), nil
}
