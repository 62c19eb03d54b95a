// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package synergy

import "time"

// MetricsCollector receives observability events from the client engine.
// Implementations must be cheap; they are called inline on the update path.
type MetricsCollector interface {
	// MessageReceived is called once per dispatched frame with its tag, or
	// "unknown" for unrecognized and malformed frames.
	MessageReceived(tag string)
	// ReplySent is called after a reply was handed to the transport.
	ReplySent(tag string)
	// BytesReceived reports the size of every successful receive.
	BytesReceived(n int)
	// StateChanged is called on every session state transition.
	StateChanged(state State)
	// Disconnected is called when the session is torn down.
	Disconnected(reason string)
	// OversizedFrame is called when a frame had to be drained and discarded.
	OversizedFrame(length uint32)
	// DispatchDuration reports the time spent handling one message.
	DispatchDuration(tag string, d time.Duration)
}

// NoOpMetrics is a MetricsCollector implementation that discards all metrics.
type NoOpMetrics struct{}

// MessageReceived discards the message count.
func (m *NoOpMetrics) MessageReceived(string) {}

// ReplySent discards the reply count.
func (m *NoOpMetrics) ReplySent(string) {}

// BytesReceived discards the byte count.
func (m *NoOpMetrics) BytesReceived(int) {}

// StateChanged discards the state transition.
func (m *NoOpMetrics) StateChanged(State) {}

// Disconnected discards the teardown reason.
func (m *NoOpMetrics) Disconnected(string) {}

// OversizedFrame discards the oversized frame report.
func (m *NoOpMetrics) OversizedFrame(uint32) {}

// DispatchDuration discards the handling time.
func (m *NoOpMetrics) DispatchDuration(string, time.Duration) {}
