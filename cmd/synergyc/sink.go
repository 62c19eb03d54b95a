// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package main

import (
	"github.com/tenthirtyam/go-synergy"
)

// logSink reports input events through a logger instead of injecting them.
type logSink struct {
	logger synergy.Logger
}

func (s *logSink) OnConnected(width, height int) {
	s.logger.Info("Screen connected",
		synergy.Field{Key: "width", Value: width},
		synergy.Field{Key: "height", Value: height})
}

func (s *logSink) OnDisconnected() {
	s.logger.Info("Screen disconnected")
}

func (s *logSink) OnScreenActive(active bool) {
	s.logger.Info("Screen active", synergy.Field{Key: "active", Value: active})
}

func (s *logSink) OnMouseMove(dx, dy int32) bool {
	s.logger.Debug("Mouse move",
		synergy.Field{Key: "dx", Value: dx},
		synergy.Field{Key: "dy", Value: dy})
	return true
}

func (s *logSink) OnMouseDown(buttons synergy.MouseButtons) {
	s.logger.Debug("Mouse down", buttonFields(buttons)...)
}

func (s *logSink) OnMouseUp(buttons synergy.MouseButtons) {
	s.logger.Debug("Mouse up", buttonFields(buttons)...)
}

func (s *logSink) OnMouseWheel(x, y int32) {
	s.logger.Debug("Mouse wheel",
		synergy.Field{Key: "x", Value: x},
		synergy.Field{Key: "y", Value: y})
}

func (s *logSink) OnKeyboard(key, modifiers uint16, down, repeat bool) {
	s.logger.Debug("Key",
		synergy.Field{Key: "key", Value: key},
		synergy.Field{Key: "modifiers", Value: modifiers},
		synergy.Field{Key: "down", Value: down},
		synergy.Field{Key: "repeat", Value: repeat})
}

func (s *logSink) OnJoystick(index int, state synergy.JoystickState) {
	s.logger.Debug("Joystick",
		synergy.Field{Key: "index", Value: index},
		synergy.Field{Key: "buttons", Value: state.Buttons},
		synergy.Field{Key: "sticks", Value: state.Sticks})
}

func (s *logSink) OnClipboard(format synergy.ClipboardFormat, data []byte) {
	s.logger.Info("Clipboard",
		synergy.Field{Key: "format", Value: format.String()},
		synergy.Field{Key: "size", Value: len(data)})
}

func buttonFields(b synergy.MouseButtons) []synergy.Field {
	return []synergy.Field{
		{Key: "left", Value: b.Left},
		{Key: "middle", Value: b.Middle},
		{Key: "right", Value: b.Right},
	}
}
