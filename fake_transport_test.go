// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package synergy

import (
	"fmt"
	"sync"
	"testing"
)

// fakeTransport is a scripted Transport with a simulated clock that only
// advances when the client sleeps.
type fakeTransport struct {
	mu sync.Mutex

	connectResults []bool
	connects       int

	reads       [][]byte
	failReceive bool

	failSend bool
	sent     [][]byte

	now    uint32
	sleeps []uint32

	closed int
}

func (f *fakeTransport) Connect() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	if len(f.connectResults) == 0 {
		return true
	}
	ok := f.connectResults[0]
	f.connectResults = f.connectResults[1:]
	return ok
}

func (f *fakeTransport) Receive(buf []byte) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReceive {
		return 0, false
	}
	if len(f.reads) == 0 {
		return 0, true
	}
	n := copy(buf, f.reads[0])
	if n < len(f.reads[0]) {
		f.reads[0] = f.reads[0][n:]
	} else {
		f.reads = f.reads[1:]
	}
	return n, true
}

func (f *fakeTransport) Send(buf []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSend {
		return false
	}
	f.sent = append(f.sent, append([]byte(nil), buf...))
	return true
}

func (f *fakeTransport) Now() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeTransport) Sleep(ms uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sleeps = append(f.sleeps, ms)
	f.now += ms
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

// queue schedules one read per argument.
func (f *fakeTransport) queue(reads ...[]byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads = append(f.reads, reads...)
}

// takeSent returns and clears the messages sent so far.
func (f *fakeTransport) takeSent() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	sent := f.sent
	f.sent = nil
	return sent
}

// sentTags returns the tag of each message, "Synergy" for a hello reply.
func sentTags(sent [][]byte) []string {
	tags := make([]string, 0, len(sent))
	for _, msg := range sent {
		body := msg[frameHeaderSize:]
		if isHello(body) {
			tags = append(tags, tagHello)
			continue
		}
		tags = append(tags, string(body[:4]))
	}
	return tags
}

type mouseMove struct{ dx, dy int32 }

type keyEvent struct {
	key, modifiers uint16
	down, repeat   bool
}

type clipboardEvent struct {
	format ClipboardFormat
	data   string
}

// recordingSink records every callback. moveResults scripts the return
// values of OnMouseMove; once exhausted every move is accepted.
type recordingSink struct {
	mu sync.Mutex

	connected    []string
	disconnects  int
	active       []bool
	moves        []mouseMove
	moveResults  []bool
	downs        []MouseButtons
	ups          []MouseButtons
	wheels       []Point
	keys         []keyEvent
	joysticks    map[int]JoystickState
	clipboards   []clipboardEvent
	sessionCheck func()
}

func (s *recordingSink) OnConnected(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = append(s.connected, fmt.Sprintf("%dx%d", width, height))
}

func (s *recordingSink) OnDisconnected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnects++
}

func (s *recordingSink) OnScreenActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = append(s.active, active)
}

func (s *recordingSink) OnMouseMove(dx, dy int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moves = append(s.moves, mouseMove{dx, dy})
	if s.sessionCheck != nil {
		s.sessionCheck()
	}
	if len(s.moveResults) == 0 {
		return true
	}
	ok := s.moveResults[0]
	s.moveResults = s.moveResults[1:]
	return ok
}

func (s *recordingSink) OnMouseDown(buttons MouseButtons) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downs = append(s.downs, buttons)
}

func (s *recordingSink) OnMouseUp(buttons MouseButtons) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ups = append(s.ups, buttons)
}

func (s *recordingSink) OnMouseWheel(x, y int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wheels = append(s.wheels, Point{X: x, Y: y})
}

func (s *recordingSink) OnKeyboard(key, modifiers uint16, down, repeat bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, keyEvent{key, modifiers, down, repeat})
}

func (s *recordingSink) OnJoystick(index int, state JoystickState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.joysticks == nil {
		s.joysticks = make(map[int]JoystickState)
	}
	s.joysticks[index] = state
}

func (s *recordingSink) OnClipboard(format ClipboardFormat, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clipboards = append(s.clipboards, clipboardEvent{format, string(data)})
}

// helloFrame is the server greeting for protocol 1.6.
func helloFrame() []byte {
	return frame([]byte("Synergy\x00\x01\x00\x06"))
}

// newTestClient returns a client over a fake transport with a recording sink.
func newTestClient(t *testing.T, options ...Option) (*Client, *fakeTransport, *recordingSink) {
	t.Helper()

	ft := &fakeTransport{now: 10000}
	sink := &recordingSink{}
	options = append([]Option{
		WithClientName("Test"),
		WithScreenSize(1920, 1080),
		WithDeviceSink(sink),
	}, options...)

	c, err := New(ft, options...)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return c, ft, sink
}

// handshake connects and completes the hello exchange, then clears the
// recorded replies.
func handshake(t *testing.T, c *Client, ft *fakeTransport) {
	t.Helper()

	if err := c.Update(); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	ft.queue(helloFrame())
	if err := c.Update(); err != nil {
		t.Fatalf("handshake failed: %v", err)
	}
	if !c.Session().HandshakeComplete {
		t.Fatal("handshake did not complete")
	}
	ft.takeSent()
}

// deliver queues the frames as a single read and runs one update.
func deliver(t *testing.T, c *Client, ft *fakeTransport, bodies ...string) error {
	t.Helper()

	var stream []byte
	for _, body := range bodies {
		stream = append(stream, frame([]byte(body))...)
	}
	ft.queue(stream)
	return c.Update()
}
