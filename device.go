// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package synergy

// DeviceSink receives normalized input events from the client. It is the
// boundary to whatever injects input into the host system.
//
// Session state is updated before each callback runs, so a callback that
// inspects Client.Session sees the event already applied. Callbacks run on
// the goroutine that calls Update.
type DeviceSink interface {
	// OnConnected is called after the transport connects, with the
	// configured screen size. Virtual devices are usually created here.
	OnConnected(width, height int)

	// OnDisconnected is called when a connected session is torn down.
	// Resources created in OnConnected should be released.
	OnDisconnected()

	// OnScreenActive reports the cursor entering (true) or leaving (false)
	// this screen.
	OnScreenActive(active bool)

	// OnMouseMove receives the movement since the last accepted move.
	// Returning false leaves the baseline where it was so the motion is
	// included in the next delta.
	OnMouseMove(dx, dy int32) bool

	OnMouseDown(buttons MouseButtons)
	OnMouseUp(buttons MouseButtons)

	// OnMouseWheel receives the accumulated wheel totals.
	OnMouseWheel(x, y int32)

	OnKeyboard(key, modifiers uint16, down, repeat bool)

	OnJoystick(index int, state JoystickState)

	// OnClipboard is called once per format of a server clipboard message.
	// data is only valid for the duration of the call.
	OnClipboard(format ClipboardFormat, data []byte)
}

// NopDeviceSink implements DeviceSink with no-op methods. Embed it to handle
// only the events you care about.
type NopDeviceSink struct{}

// OnConnected ignores the connection.
func (NopDeviceSink) OnConnected(width, height int) {}

// OnDisconnected ignores the disconnection.
func (NopDeviceSink) OnDisconnected() {}

// OnScreenActive ignores screen enter and leave.
func (NopDeviceSink) OnScreenActive(active bool) {}

// OnMouseMove accepts every move so the baseline always advances.
func (NopDeviceSink) OnMouseMove(dx, dy int32) bool { return true }

// OnMouseDown discards button presses.
func (NopDeviceSink) OnMouseDown(buttons MouseButtons) {}

// OnMouseUp discards button releases.
func (NopDeviceSink) OnMouseUp(buttons MouseButtons) {}

// OnMouseWheel discards wheel totals.
func (NopDeviceSink) OnMouseWheel(x, y int32) {}

// OnKeyboard discards key events.
func (NopDeviceSink) OnKeyboard(key, modifiers uint16, down, repeat bool) {}

// OnJoystick discards joystick updates.
func (NopDeviceSink) OnJoystick(index int, state JoystickState) {}

// OnClipboard discards clipboard data.
func (NopDeviceSink) OnClipboard(format ClipboardFormat, data []byte) {}
