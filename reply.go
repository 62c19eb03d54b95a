// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package synergy

import (
	"fmt"
)

// replyBuffer assembles one outgoing message. The first four bytes are
// reserved for the body length, which is filled in by Finish. Appends past
// the fixed capacity fail with ErrCapacity and leave the buffer unchanged.
type replyBuffer struct {
	buf []byte
	cur int
}

func newReplyBuffer(capacity int) *replyBuffer {
	return &replyBuffer{buf: make([]byte, capacity), cur: frameHeaderSize}
}

// Capacity returns the total size of the buffer including the length prefix.
func (b *replyBuffer) Capacity() int {
	return len(b.buf)
}

// Len returns the number of bytes written so far including the length prefix.
func (b *replyBuffer) Len() int {
	return b.cur
}

// Reset discards the pending body.
func (b *replyBuffer) Reset() {
	b.cur = frameHeaderSize
}

func (b *replyBuffer) reserve(op string, n int) ([]byte, error) {
	if n > len(b.buf)-b.cur {
		return nil, capacityError(op,
			fmt.Sprintf("reply needs %d more bytes, %d available", n, len(b.buf)-b.cur), nil)
	}
	out := b.buf[b.cur : b.cur+n]
	b.cur += n
	return out, nil
}

func (b *replyBuffer) AppendBytes(p []byte) error {
	dst, err := b.reserve("replyBuffer.AppendBytes", len(p))
	if err != nil {
		return err
	}
	copy(dst, p)
	return nil
}

func (b *replyBuffer) AppendString(s string) error {
	dst, err := b.reserve("replyBuffer.AppendString", len(s))
	if err != nil {
		return err
	}
	copy(dst, s)
	return nil
}

func (b *replyBuffer) AppendUint8(v uint8) error {
	dst, err := b.reserve("replyBuffer.AppendUint8", 1)
	if err != nil {
		return err
	}
	dst[0] = v
	return nil
}

func (b *replyBuffer) AppendUint16(v uint16) error {
	dst, err := b.reserve("replyBuffer.AppendUint16", 2)
	if err != nil {
		return err
	}
	putUint16(dst, v)
	return nil
}

func (b *replyBuffer) AppendUint32(v uint32) error {
	dst, err := b.reserve("replyBuffer.AppendUint32", 4)
	if err != nil {
		return err
	}
	putUint32(dst, v)
	return nil
}

// Finish writes the body length into the reserved prefix and returns the
// complete message. The slice is valid until the next Reset or append.
func (b *replyBuffer) Finish() []byte {
	putUint32(b.buf, uint32(b.cur-frameHeaderSize)) // #nosec G115 - cur is bounded by capacity
	return b.buf[:b.cur]
}

// Reply encoders. Each one leaves the buffer holding exactly one message and
// resets it first, so a failed encode never leaks into the next reply.

func encodeHelloBack(b *replyBuffer, major, minor uint16, name string) error {
	b.Reset()
	if err := b.AppendString(tagHello); err != nil {
		return err
	}
	if err := b.AppendUint16(major); err != nil {
		return err
	}
	if err := b.AppendUint16(minor); err != nil {
		return err
	}
	if err := b.AppendUint32(uint32(len(name))); err != nil { // #nosec G115 - name length validated at configuration time
		return err
	}
	return b.AppendString(name)
}

func encodeInfo(b *replyBuffer, width, height uint16) error {
	b.Reset()
	if err := b.AppendString(tagInfo); err != nil {
		return err
	}
	// x, y, width, height, warp size, mouse x, mouse y
	fields := [...]uint16{0, 0, width, height, 0, 0, 0}
	for _, v := range fields {
		if err := b.AppendUint16(v); err != nil {
			return err
		}
	}
	return nil
}

// encodeTag writes a message that consists of the bare tag (CNOP, CALV).
func encodeTag(b *replyBuffer, tag string) error {
	b.Reset()
	return b.AppendString(tag)
}
