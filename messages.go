// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package synergy

import (
	"fmt"
	"time"
)

// Protocol constants.
const (
	ProtocolMajor uint16 = 1
	ProtocolMinor uint16 = 4

	// DefaultPort is the TCP port Synergy servers listen on.
	DefaultPort = 24800

	// ServerKeepAlivePeriod is how often servers send CALV to a client.
	ServerKeepAlivePeriod = 3 * time.Second

	// NumJoysticks is the number of joysticks tracked per session.
	NumJoysticks = 4
)

// Message tags. The hello message has no 4-byte tag; its body starts with
// the 7-byte protocol name instead.
const (
	tagHello         = "Synergy"
	tagQueryInfo     = "QINF"
	tagInfo          = "DINF"
	tagInfoAck       = "CIAK"
	tagResetOptions  = "CROP"
	tagEnter         = "CINN"
	tagLeave         = "COUT"
	tagMouseDown     = "DMDN"
	tagMouseUp       = "DMUP"
	tagMouseMove     = "DMMV"
	tagMouseWheel    = "DMWM"
	tagKeyDown       = "DKDN"
	tagKeyRepeat     = "DKRP"
	tagKeyUp         = "DKUP"
	tagGameButtons   = "DGBT"
	tagGameSticks    = "DGST"
	tagSetOptions    = "DSOP"
	tagKeepAlive     = "CALV"
	tagClipboard     = "DCLP"
	tagNoop          = "CNOP"
)

// Message is a decoded server message. Values that reference payload bytes
// alias the receive buffer and must not be retained past the dispatch.
type Message interface {
	Tag() string
}

// HelloMessage is the server greeting that opens the handshake.
type HelloMessage struct {
	Major uint16
	Minor uint16
}

func (*HelloMessage) Tag() string { return tagHello }

// QueryInfoMessage asks the client for its screen geometry.
type QueryInfoMessage struct{}

func (*QueryInfoMessage) Tag() string { return tagQueryInfo }

// InfoAckMessage acknowledges a DINF reply. It needs no action.
type InfoAckMessage struct{}

func (*InfoAckMessage) Tag() string { return tagInfoAck }

// ResetOptionsMessage asks the client to drop options set by DSOP.
type ResetOptionsMessage struct{}

func (*ResetOptionsMessage) Tag() string { return tagResetOptions }

// EnterMessage is sent when the cursor enters this client's screen.
type EnterMessage struct {
	X, Y      int16
	Sequence  uint32
	Modifiers uint16
}

func (*EnterMessage) Tag() string { return tagEnter }

// LeaveMessage is sent when the cursor leaves this client's screen.
type LeaveMessage struct{}

func (*LeaveMessage) Tag() string { return tagLeave }

// MouseButtonMessage carries a button press (DMDN) or release (DMUP).
type MouseButtonMessage struct {
	Down   bool
	Button uint8
}

func (m *MouseButtonMessage) Tag() string {
	if m.Down {
		return tagMouseDown
	}
	return tagMouseUp
}

// MouseMoveMessage carries an absolute cursor position.
type MouseMoveMessage struct {
	X, Y int16
}

func (*MouseMoveMessage) Tag() string { return tagMouseMove }

// MouseWheelMessage carries one wheel step. Protocol 1.0 servers send only
// the vertical delta.
type MouseWheelMessage struct {
	X, Y int16
}

func (*MouseWheelMessage) Tag() string { return tagMouseWheel }

// KeyMessage carries a key down, repeat or up event. Count is only set for
// repeats.
type KeyMessage struct {
	ID        uint16
	Modifiers uint16
	Count     uint16
	Button    uint16
	Down      bool
	Repeat    bool
}

func (m *KeyMessage) Tag() string {
	switch {
	case m.Repeat:
		return tagKeyRepeat
	case m.Down:
		return tagKeyDown
	default:
		return tagKeyUp
	}
}

// JoystickButtonsMessage carries the button bitmask of one joystick.
type JoystickButtonsMessage struct {
	Index   uint8
	Buttons uint16
}

func (*JoystickButtonsMessage) Tag() string { return tagGameButtons }

// JoystickSticksMessage carries the four stick axes of one joystick.
type JoystickSticksMessage struct {
	Index  uint8
	Sticks [4]int8
}

func (*JoystickSticksMessage) Tag() string { return tagGameSticks }

// SetOptionsMessage carries option/value pairs. They are accepted and ignored.
type SetOptionsMessage struct {
	Options []uint32
}

func (*SetOptionsMessage) Tag() string { return tagSetOptions }

// KeepAliveMessage is the server heartbeat.
type KeepAliveMessage struct{}

func (*KeepAliveMessage) Tag() string { return tagKeepAlive }

// UnknownMessage is any message whose tag is not recognized.
type UnknownMessage struct {
	RawTag string
}

func (m *UnknownMessage) Tag() string { return m.RawTag }

type decodeFunc func(payload []byte) (Message, error)

// decoders maps a 4-byte tag to the function that parses the payload that
// follows it.
var decoders = map[string]decodeFunc{
	tagQueryInfo:    decodeEmpty(func() Message { return &QueryInfoMessage{} }),
	tagInfoAck:      decodeEmpty(func() Message { return &InfoAckMessage{} }),
	tagResetOptions: decodeEmpty(func() Message { return &ResetOptionsMessage{} }),
	tagLeave:        decodeEmpty(func() Message { return &LeaveMessage{} }),
	tagKeepAlive:    decodeEmpty(func() Message { return &KeepAliveMessage{} }),
	tagEnter:        decodeEnter,
	tagMouseDown:    decodeMouseButton(true),
	tagMouseUp:      decodeMouseButton(false),
	tagMouseMove:    decodeMouseMove,
	tagMouseWheel:   decodeMouseWheel,
	tagKeyDown:      decodeKey(true, false),
	tagKeyRepeat:    decodeKey(true, true),
	tagKeyUp:        decodeKey(false, false),
	tagGameButtons:  decodeJoystickButtons,
	tagGameSticks:   decodeJoystickSticks,
	tagSetOptions:   decodeSetOptions,
	tagClipboard:    decodeClipboard,
}

// isHello reports whether a frame body is the handshake greeting.
func isHello(body []byte) bool {
	return len(body) >= len(tagHello) && string(body[:len(tagHello)]) == tagHello
}

// decodeMessage parses one frame body. Unrecognized tags decode to
// UnknownMessage without error; a recognized tag with a short payload
// returns ErrProtocol together with the UnknownMessage for its tag.
func decodeMessage(body []byte) (Message, error) {
	if isHello(body) {
		return decodeHello(body[len(tagHello):])
	}
	if len(body) < 4 {
		return &UnknownMessage{RawTag: printableTag(body)},
			protocolError("decodeMessage", fmt.Sprintf("frame too short for a tag (%d bytes)", len(body)), nil)
	}

	tag := string(body[:4])
	decode, ok := decoders[tag]
	if !ok {
		return &UnknownMessage{RawTag: printableTag(body[:4])}, nil
	}

	msg, err := decode(body[4:])
	if err != nil {
		return &UnknownMessage{RawTag: tag}, WrapError("decodeMessage", ErrProtocol,
			fmt.Sprintf("malformed '%s' message", tag), err)
	}
	return msg, nil
}

func decodeEmpty(ctor func() Message) decodeFunc {
	return func([]byte) (Message, error) {
		return ctor(), nil
	}
}

// "Synergy" major:u16 minor:u16
func decodeHello(payload []byte) (Message, error) {
	r := newPayloadReader("decodeHello", payload)
	msg := &HelloMessage{Major: r.uint16(), Minor: r.uint16()}
	return msg, r.err
}

// CINN x:i16 y:i16 seq:u32 [mask:u16]
func decodeEnter(payload []byte) (Message, error) {
	r := newPayloadReader("decodeEnter", payload)
	msg := &EnterMessage{X: r.int16(), Y: r.int16(), Sequence: r.uint32()}
	if r.err != nil {
		return nil, r.err
	}
	if r.remaining() >= 2 {
		msg.Modifiers = r.uint16()
	}
	return msg, nil
}

// DMDN/DMUP button:u8
func decodeMouseButton(down bool) decodeFunc {
	return func(payload []byte) (Message, error) {
		r := newPayloadReader("decodeMouseButton", payload)
		msg := &MouseButtonMessage{Down: down, Button: r.uint8()}
		return msg, r.err
	}
}

// DMMV x:i16 y:i16
func decodeMouseMove(payload []byte) (Message, error) {
	r := newPayloadReader("decodeMouseMove", payload)
	msg := &MouseMoveMessage{X: r.int16(), Y: r.int16()}
	return msg, r.err
}

// DMWM x:i16 y:i16, or DMWM y:i16 from 1.0 servers
func decodeMouseWheel(payload []byte) (Message, error) {
	r := newPayloadReader("decodeMouseWheel", payload)
	if len(payload) < 4 {
		msg := &MouseWheelMessage{Y: r.int16()}
		return msg, r.err
	}
	msg := &MouseWheelMessage{X: r.int16(), Y: r.int16()}
	return msg, r.err
}

// DKDN/DKUP id:u16 mask:u16 button:u16
// DKRP      id:u16 mask:u16 count:u16 button:u16
//
// 1.0 servers omit the button; the key id stands in for it.
func decodeKey(down, repeat bool) decodeFunc {
	return func(payload []byte) (Message, error) {
		r := newPayloadReader("decodeKey", payload)
		msg := &KeyMessage{Down: down, Repeat: repeat}
		msg.ID = r.uint16()
		msg.Modifiers = r.uint16()
		if repeat {
			msg.Count = r.uint16()
		}
		if r.err == nil && r.remaining() < 2 {
			msg.Button = msg.ID
			return msg, nil
		}
		msg.Button = r.uint16()
		return msg, r.err
	}
}

// DGBT index:u8 buttons:u16
func decodeJoystickButtons(payload []byte) (Message, error) {
	r := newPayloadReader("decodeJoystickButtons", payload)
	msg := &JoystickButtonsMessage{Index: r.uint8(), Buttons: r.uint16()}
	return msg, r.err
}

// DGST index:u8 x1:i8 y1:i8 x2:i8 y2:i8
func decodeJoystickSticks(payload []byte) (Message, error) {
	r := newPayloadReader("decodeJoystickSticks", payload)
	msg := &JoystickSticksMessage{Index: r.uint8()}
	for i := range msg.Sticks {
		msg.Sticks[i] = r.int8()
	}
	return msg, r.err
}

// DSOP count:u32 values:u32*count
func decodeSetOptions(payload []byte) (Message, error) {
	r := newPayloadReader("decodeSetOptions", payload)
	msg := &SetOptionsMessage{}
	if len(payload) == 0 {
		return msg, nil
	}
	count := r.uint32()
	if r.err != nil {
		return nil, r.err
	}
	if int64(count)*4 > int64(r.remaining()) {
		return nil, protocolError("decodeSetOptions",
			fmt.Sprintf("option count %d exceeds payload", count), nil)
	}
	msg.Options = make([]uint32, count)
	for i := range msg.Options {
		msg.Options[i] = r.uint32()
	}
	return msg, r.err
}
