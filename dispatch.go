// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package synergy

import (
	"fmt"
	"time"
)

// dispatch decodes one frame body, applies it to the session, notifies the
// device sink and sends the reply the server expects. Every message except
// the hello is answered with a CNOP, including unknown and malformed ones.
func (c *Client) dispatch(body []byte) error {
	start := time.Now()

	msg, decodeErr := decodeMessage(body)
	label := metricLabel(msg, decodeErr)
	c.metrics.MessageReceived(label)
	defer func() {
		c.metrics.DispatchDuration(label, time.Since(start))
	}()

	if hello, ok := msg.(*HelloMessage); ok {
		return c.handleHello(hello, decodeErr)
	}

	if decodeErr != nil {
		c.logger.Warn("Malformed message ignored",
			Field{Key: "tag", Value: msg.Tag()},
			Field{Key: "size", Value: len(body)},
			Field{Key: "error", Value: decodeErr})
	} else if err := c.handleMessage(msg); err != nil {
		return err
	}

	if !c.session.Connected {
		return decodeErr
	}
	if err := c.replyWith(tagNoop, func(b *replyBuffer) error { return encodeTag(b, tagNoop) }); err != nil {
		return err
	}
	return decodeErr
}

// unknownLabel is the metrics label shared by unrecognized and malformed
// frames, which keeps the label set fixed whatever the server sends.
const unknownLabel = "unknown"

func metricLabel(msg Message, decodeErr error) string {
	if _, ok := msg.(*UnknownMessage); ok || decodeErr != nil {
		return unknownLabel
	}
	return msg.Tag()
}

func (c *Client) handleHello(msg *HelloMessage, decodeErr error) error {
	if decodeErr != nil {
		c.logger.Error("Malformed hello from server", Field{Key: "error", Value: decodeErr})
		c.disconnect("hello", true)
		return decodeErr
	}

	if msg.Major != ProtocolMajor {
		c.logger.Warn("Server protocol version differs",
			Field{Key: "server_version", Value: fmt.Sprintf("%d.%d", msg.Major, msg.Minor)},
			Field{Key: "client_version", Value: fmt.Sprintf("%d.%d", ProtocolMajor, ProtocolMinor)})
	}

	err := c.replyWith(tagHello, func(b *replyBuffer) error {
		return encodeHelloBack(b, ProtocolMajor, ProtocolMinor, c.session.ClientName)
	})
	if err != nil {
		if c.session.Connected {
			c.disconnect("hello", true)
		}
		return err
	}

	c.session.HandshakeComplete = true
	c.session.LastMessageTime = c.transport.Now()
	c.metrics.StateChanged(StateHandshakeComplete)
	c.logger.Info("Connected as client",
		Field{Key: "server_version", Value: fmt.Sprintf("%d.%d", msg.Major, msg.Minor)})
	return nil
}

// handleMessage applies one decoded message. Session state is updated before
// the sink is called.
func (c *Client) handleMessage(msg Message) error {
	s := &c.session

	switch m := msg.(type) {
	case *QueryInfoMessage:
		return c.replyWith(tagInfo, func(b *replyBuffer) error {
			return encodeInfo(b, uint16(s.ClientWidth), uint16(s.ClientHeight)) // #nosec G115 - validated screen size
		})

	case *InfoAckMessage, *ResetOptionsMessage, *SetOptionsMessage:
		// acknowledgements and options need no action

	case *KeepAliveMessage:
		return c.replyWith(tagKeepAlive, func(b *replyBuffer) error { return encodeTag(b, tagKeepAlive) })

	case *EnterMessage:
		pos := Point{X: int32(m.X), Y: int32(m.Y)}
		s.MousePos = pos
		s.MousePosPrevious = pos
		s.SequenceNumber = m.Sequence
		s.Captured = true
		c.metrics.StateChanged(StateCaptured)
		c.logger.Debug("Screen entered",
			Field{Key: "x", Value: m.X},
			Field{Key: "y", Value: m.Y},
			Field{Key: "sequence", Value: m.Sequence})
		c.sink.OnScreenActive(true)

	case *LeaveMessage:
		s.Captured = false
		c.metrics.StateChanged(StateHandshakeComplete)
		c.logger.Debug("Screen left")
		c.sink.OnScreenActive(false)

	case *MouseMoveMessage:
		s.MousePos = Point{X: int32(m.X), Y: int32(m.Y)}
		dx := s.MousePos.X - s.MousePosPrevious.X
		dy := s.MousePos.Y - s.MousePosPrevious.Y
		if c.sink.OnMouseMove(dx, dy) {
			s.MousePosPrevious = s.MousePos
		}

	case *MouseButtonMessage:
		s.MouseButtons.setButton(m.Button, m.Down)
		if m.Down {
			c.sink.OnMouseDown(s.MouseButtons)
		} else {
			c.sink.OnMouseUp(s.MouseButtons)
		}

	case *MouseWheelMessage:
		s.Wheel.X += int32(m.X)
		s.Wheel.Y += int32(m.Y)
		c.sink.OnMouseWheel(s.Wheel.X, s.Wheel.Y)

	case *KeyMessage:
		c.sink.OnKeyboard(m.Button, m.Modifiers, m.Down, m.Repeat)

	case *JoystickButtonsMessage:
		if int(m.Index) >= NumJoysticks {
			c.logger.Debug("Joystick index out of range", Field{Key: "index", Value: m.Index})
			return nil
		}
		s.Joysticks[m.Index].Buttons = m.Buttons
		c.sink.OnJoystick(int(m.Index), s.Joysticks[m.Index])

	case *JoystickSticksMessage:
		if int(m.Index) >= NumJoysticks {
			c.logger.Debug("Joystick index out of range", Field{Key: "index", Value: m.Index})
			return nil
		}
		s.Joysticks[m.Index].Sticks = m.Sticks
		c.sink.OnJoystick(int(m.Index), s.Joysticks[m.Index])

	case *ClipboardMessage:
		c.handleClipboard(m)

	case *UnknownMessage:
		c.logger.Warn("Unrecognized message", Field{Key: "tag", Value: m.RawTag})

	default:
		c.logger.Warn("Unhandled message type", Field{Key: "type", Value: fmt.Sprintf("%T", msg)})
	}
	return nil
}

func (c *Client) handleClipboard(m *ClipboardMessage) {
	c.logger.Debug("Clipboard received",
		Field{Key: "index", Value: m.Index},
		Field{Key: "sequence", Value: m.Sequence},
		Field{Key: "formats", Value: len(m.Formats)})

	for _, f := range m.Formats {
		if f.Format == ClipboardText {
			c.clipboard = append(c.clipboard[:0], f.Data...)
		}
		c.sink.OnClipboard(f.Format, f.Data)
	}
}
