// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package synergy

import "encoding/binary"

// All multi-byte integers on the Synergy wire are big-endian. These helpers
// never modify their input and panic only if b is shorter than the value,
// so callers check lengths first.

func getUint16(b []byte) uint16 {
	return binary.BigEndian.Uint16(b)
}

func getInt16(b []byte) int16 {
	return int16(binary.BigEndian.Uint16(b))
}

func getUint32(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}

func putUint16(b []byte, v uint16) {
	binary.BigEndian.PutUint16(b, v)
}

func putUint32(b []byte, v uint32) {
	binary.BigEndian.PutUint32(b, v)
}

// payloadReader walks a message payload with bounds checks. The first
// out-of-range read latches err and every later read returns zero.
type payloadReader struct {
	b   []byte
	pos int
	op  string
	err error
}

func newPayloadReader(op string, b []byte) *payloadReader {
	return &payloadReader{b: b, op: op}
}

func (r *payloadReader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || len(r.b)-r.pos < n {
		r.err = protocolError(r.op, "payload too short", nil)
		return false
	}
	return true
}

func (r *payloadReader) uint8() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.b[r.pos]
	r.pos++
	return v
}

func (r *payloadReader) int8() int8 {
	return int8(r.uint8())
}

func (r *payloadReader) uint16() uint16 {
	if !r.need(2) {
		return 0
	}
	v := getUint16(r.b[r.pos:])
	r.pos += 2
	return v
}

func (r *payloadReader) int16() int16 {
	if !r.need(2) {
		return 0
	}
	v := getInt16(r.b[r.pos:])
	r.pos += 2
	return v
}

func (r *payloadReader) uint32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := getUint32(r.b[r.pos:])
	r.pos += 4
	return v
}

// bytes returns the next n bytes without copying.
func (r *payloadReader) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	v := r.b[r.pos : r.pos+n]
	r.pos += n
	return v
}

func (r *payloadReader) remaining() int {
	return len(r.b) - r.pos
}
