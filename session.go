// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package synergy

// State is the lifecycle state of a session.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	// StateConnected means the transport is up but the hello exchange has
	// not completed.
	StateConnected
	StateHandshakeComplete
	// StateCaptured is StateHandshakeComplete while the cursor is on this screen.
	StateCaptured
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateHandshakeComplete:
		return "handshake-complete"
	case StateCaptured:
		return "captured"
	default:
		return "unknown"
	}
}

// MouseButtons is the pressed state of the three standard mouse buttons.
type MouseButtons struct {
	Left   bool
	Middle bool
	Right  bool
}

// Point is a signed screen coordinate or delta.
type Point struct {
	X, Y int32
}

// JoystickState is the last reported state of one joystick.
type JoystickState struct {
	Buttons uint16
	Sticks  [4]int8
}

// Session is the protocol state of one logical connection. Everything
// except the configured identity returns to its zero value on disconnect.
type Session struct {
	Connected         bool
	HandshakeComplete bool
	Captured          bool

	ClientName   string
	ClientWidth  int
	ClientHeight int

	// MousePos is the last absolute position sent by the server.
	MousePos Point
	// MousePosPrevious only advances when the move callback accepts a delta.
	MousePosPrevious Point
	MouseButtons     MouseButtons
	// Wheel accumulates every wheel delta received.
	Wheel Point

	// SequenceNumber comes from the last screen-enter and is echoed in
	// outgoing clipboard messages.
	SequenceNumber uint32

	// LastMessageTime is the transport clock value of the last receive
	// that produced data.
	LastMessageTime uint32

	Joysticks [NumJoysticks]JoystickState
}

// State derives the lifecycle state from the session flags.
func (s *Session) State() State {
	switch {
	case !s.Connected:
		return StateDisconnected
	case !s.HandshakeComplete:
		return StateConnected
	case s.Captured:
		return StateCaptured
	default:
		return StateHandshakeComplete
	}
}

// reset returns the session to its disconnected state, keeping the client
// identity.
func (s *Session) reset() {
	*s = Session{
		ClientName:   s.ClientName,
		ClientWidth:  s.ClientWidth,
		ClientHeight: s.ClientHeight,
	}
}

// setButton maps a wire button number onto the button snapshot.
// The wire value is 1-based; after subtracting one, 2 is right, 1 is
// middle and anything else is left.
func (b *MouseButtons) setButton(wire uint8, pressed bool) {
	switch int(wire) - 1 {
	case 2:
		b.Right = pressed
	case 1:
		b.Middle = pressed
	default:
		b.Left = pressed
	}
}
