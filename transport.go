// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package synergy

// Transport is the byte-stream capability the client runs on. Every
// blocking operation of the client goes through it.
//
// Failures are reported as false so that the client can recover by state
// transition; implementations log their own error details.
type Transport interface {
	// Connect establishes a connection, closing any previous one first.
	Connect() bool

	// Receive reads up to len(buf) bytes. ok=false is a hard failure; a
	// successful zero-length read means no data is available yet.
	Receive(buf []byte) (n int, ok bool)

	// Send writes the whole of buf.
	Send(buf []byte) bool

	// Now returns a millisecond clock. It may wrap; only differences are used.
	Now() uint32

	// Sleep blocks for the given number of milliseconds.
	Sleep(ms uint32)
}
