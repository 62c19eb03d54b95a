// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package synergy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReply_FinishWritesLength(t *testing.T) {
	b := newReplyBuffer(32)
	require.NoError(t, b.AppendString("DMMV"))
	require.NoError(t, b.AppendUint16(0x0102))
	require.NoError(t, b.AppendUint8(0x03))
	require.NoError(t, b.AppendUint32(0x04050607))
	require.NoError(t, b.AppendBytes([]byte{0x08}))

	msg := b.Finish()
	assert.Equal(t, []byte{0, 0, 0, 12, 'D', 'M', 'M', 'V', 1, 2, 3, 4, 5, 6, 7, 8}, msg)
	assert.Equal(t, 16, b.Len())

	b.Reset()
	assert.Equal(t, frameHeaderSize, b.Len())
	assert.Equal(t, []byte{0, 0, 0, 0}, b.Finish())
}

func TestReply_CapacityIsEnforced(t *testing.T) {
	b := newReplyBuffer(10)
	require.NoError(t, b.AppendString("CNOP"))

	err := b.AppendUint32(1)
	require.Error(t, err)
	assert.True(t, IsSynergyError(err, ErrCapacity))
	assert.Equal(t, 8, b.Len(), "failed append must not move the cursor")

	require.NoError(t, b.AppendUint16(1))
	assert.Error(t, b.AppendUint8(1))
	assert.Equal(t, 10, b.Len())
}

func TestReply_HelloBack(t *testing.T) {
	b := newReplyBuffer(64)
	require.NoError(t, encodeHelloBack(b, 1, 4, "Test"))

	expected := concat(
		[]byte{0, 0, 0, 19},
		[]byte("Synergy"),
		[]byte{0, 1, 0, 4},
		[]byte{0, 0, 0, 4},
		[]byte("Test"),
	)
	assert.Equal(t, expected, b.Finish())
}

func TestReply_Info(t *testing.T) {
	b := newReplyBuffer(64)
	require.NoError(t, encodeInfo(b, 1920, 1080))

	expected := concat(
		[]byte{0, 0, 0, 18},
		[]byte("DINF"),
		[]byte{0, 0, 0, 0, 0x07, 0x80, 0x04, 0x38, 0, 0, 0, 0, 0, 0},
	)
	assert.Equal(t, expected, b.Finish())
}

func TestReply_EncodeResetsPendingBody(t *testing.T) {
	b := newReplyBuffer(32)
	require.NoError(t, b.AppendString("junk"))

	require.NoError(t, encodeTag(b, tagKeepAlive))
	assert.Equal(t, frame([]byte("CALV")), b.Finish())
}
