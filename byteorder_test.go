// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package synergy

import (
	"bytes"
	"testing"
)

func TestByteOrder_BigEndian(t *testing.T) {
	b := []byte{0x12, 0x34, 0x56, 0x78}

	if got := getUint16(b); got != 0x1234 {
		t.Errorf("getUint16 = %#x, want 0x1234", got)
	}
	if got := getUint32(b); got != 0x12345678 {
		t.Errorf("getUint32 = %#x, want 0x12345678", got)
	}
	if got := getInt16([]byte{0xff, 0xfe}); got != -2 {
		t.Errorf("getInt16 = %d, want -2", got)
	}

	out := make([]byte, 6)
	putUint16(out, 0xabcd)
	putUint32(out[2:], 0x01020304)
	if !bytes.Equal(out, []byte{0xab, 0xcd, 0x01, 0x02, 0x03, 0x04}) {
		t.Errorf("put helpers wrote % x", out)
	}
}

func TestByteOrder_PayloadReader(t *testing.T) {
	r := newPayloadReader("test", []byte{0x07, 0xff, 0x80, 0x00, 0x00, 0x2a, 0x00, 0x2a, 'h', 'i'})

	if v := r.uint8(); v != 7 {
		t.Errorf("uint8 = %d", v)
	}
	if v := r.int16(); v != -128 {
		t.Errorf("int16 = %d, want -128", v)
	}
	if v := r.uint32(); v != 42<<8 {
		t.Errorf("uint32 = %d", v)
	}
	if v := r.int8(); v != 0x2a {
		t.Errorf("int8 = %d", v)
	}
	if r.remaining() != 2 {
		t.Errorf("remaining = %d, want 2", r.remaining())
	}
	if v := r.bytes(2); string(v) != "hi" {
		t.Errorf("bytes = %q", v)
	}
	if r.err != nil {
		t.Fatalf("unexpected error: %v", r.err)
	}
}

func TestByteOrder_PayloadReaderShort(t *testing.T) {
	r := newPayloadReader("decodeMouseMove", []byte{0x00, 0x01, 0x02})

	if v := r.int16(); v != 1 {
		t.Errorf("int16 = %d, want 1", v)
	}
	if v := r.int16(); v != 0 {
		t.Errorf("short read should return zero, got %d", v)
	}
	if !IsSynergyError(r.err, ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", r.err)
	}

	// the error latches
	first := r.err
	if v := r.uint8(); v != 0 {
		t.Errorf("read after error = %d, want 0", v)
	}
	if r.err != first {
		t.Error("error should not be replaced by later reads")
	}

	if b := newPayloadReader("test", nil).bytes(-1); b != nil {
		t.Errorf("negative length should fail, got %v", b)
	}
}
