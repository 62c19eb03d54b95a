// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package synergy

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitFor polls cond until it holds or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestNetTransport_DefaultPort(t *testing.T) {
	assert.Equal(t, "10.0.0.2:24800", NewNetTransport("10.0.0.2").Addr())
	assert.Equal(t, "10.0.0.2:25000", NewNetTransport("10.0.0.2:25000").Addr())
	assert.Equal(t, "[::1]:24800", NewNetTransport("::1").Addr())
}

func TestNetTransport_NotConnected(t *testing.T) {
	tr := NewNetTransport("127.0.0.1:1")
	defer tr.Close()

	n, ok := tr.Receive(make([]byte, 16))
	assert.False(t, ok)
	assert.Zero(t, n)
	assert.False(t, tr.Send([]byte("x")))
}

func TestNetTransport_ConnectRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	tr := NewNetTransport(addr, WithDialTimeout(time.Second))
	defer tr.Close()
	assert.False(t, tr.Connect())
}

func TestNetTransport_ReceiveTimeoutIsEmptyRead(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	tr := NewNetTransport(ln.Addr().String(), WithPollTimeout(10*time.Millisecond))
	defer tr.Close()
	require.True(t, tr.Connect())

	server := <-accepted
	defer server.Close()

	buf := make([]byte, 16)
	n, ok := tr.Receive(buf)
	assert.True(t, ok, "a poll timeout is not a failure")
	assert.Zero(t, n)

	_, err = server.Write([]byte("CALV"))
	require.NoError(t, err)
	require.True(t, waitFor(t, time.Second, func() bool {
		n, ok = tr.Receive(buf)
		return n > 0 || !ok
	}))
	assert.True(t, ok)
	assert.Equal(t, "CALV", string(buf[:n]))

	require.True(t, tr.Send([]byte("CNOP")))
	got := make([]byte, 4)
	require.NoError(t, server.SetReadDeadline(time.Now().Add(time.Second)))
	_, err = server.Read(got)
	require.NoError(t, err)
	assert.Equal(t, "CNOP", string(got))

	// a closed peer is a hard failure
	server.Close()
	assert.True(t, waitFor(t, time.Second, func() bool {
		_, ok := tr.Receive(buf)
		return !ok
	}))
}

func TestNetTransport_CloseInterruptsSleep(t *testing.T) {
	tr := NewNetTransport("127.0.0.1:1")

	done := make(chan struct{})
	go func() {
		tr.Sleep(60_000)
		close(done)
	}()

	require.NoError(t, tr.Close())
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Sleep was not interrupted by Close")
	}

	assert.NoError(t, tr.Close(), "Close is idempotent")
	assert.False(t, tr.Connect(), "Connect after Close must fail")
}

func TestNetTransport_ClockAdvances(t *testing.T) {
	tr := NewNetTransport("127.0.0.1:1")
	defer tr.Close()

	start := tr.Now()
	time.Sleep(20 * time.Millisecond)
	assert.GreaterOrEqual(t, tr.Now()-start, uint32(15))
}

func TestNetTransport_ClientSession(t *testing.T) {
	server := NewMockSynergyServer(
		[]byte("QINF"),
		[]byte("CINN\x00\x0a\x00\x14\x00\x00\x00\x01"),
		[]byte("DMMV\x00\x0f\x00\x19"),
		[]byte("CALV"),
	)
	require.NoError(t, server.Start())
	defer server.Stop()

	tr := NewNetTransport(server.Addr())
	sink := &recordingSink{}
	c, err := New(tr,
		WithClientName("integration"),
		WithScreenSize(1280, 720),
		WithDeviceSink(sink),
	)
	require.NoError(t, err)

	runner := NewRunner(c)
	runner.Start()

	var tags []string
	timeout := time.After(5 * time.Second)
	for len(tags) < 7 {
		select {
		case body := <-server.Replies:
			if isHello(body) {
				tags = append(tags, tagHello)
				assert.Equal(t, "integration", string(body[len(body)-len("integration"):]))
				continue
			}
			tags = append(tags, string(body[:4]))
		case <-timeout:
			t.Fatalf("timed out, replies so far: %v", tags)
		}
	}

	require.NoError(t, runner.Stop())

	assert.Equal(t, []string{tagHello, "DINF", "CNOP", "CNOP", "CNOP", "CALV", "CNOP"}, tags)
	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, []string{"1280x720"}, sink.connected)
	assert.Equal(t, []mouseMove{{5, 5}}, sink.moves)
	assert.Equal(t, 1, sink.disconnects)
}

// movedSink records when each pointer move reached the sink.
type movedSink struct {
	NopDeviceSink
	moved chan time.Time
}

func (s *movedSink) OnMouseMove(dx, dy int32) bool {
	s.moved <- time.Now()
	return true
}

func TestNetTransport_DefaultsDeliverInputPromptly(t *testing.T) {
	server := NewMockSynergyServer(
		[]byte("DMMV\x00\x0f\x00\x19"),
		[]byte("DMMV\x00\x10\x00\x1a"),
		[]byte("DMMV\x00\x11\x00\x1b"),
	)
	server.Interval = 700 * time.Millisecond
	require.NoError(t, server.Start())
	defer server.Stop()

	sink := &movedSink{moved: make(chan time.Time, 8)}
	c, err := New(NewNetTransport(server.Addr()), WithDeviceSink(sink))
	require.NoError(t, err)

	runner := NewRunner(c)
	runner.Start()

	var arrivals []time.Time
	for len(arrivals) < 3 {
		select {
		case at := <-sink.moved:
			arrivals = append(arrivals, at)
		case <-time.After(5 * time.Second):
			t.Fatalf("only %d moves arrived", len(arrivals))
		}
	}
	require.NoError(t, runner.Stop())

	sent := server.SentAt()
	require.Len(t, sent, 3)
	for i := range arrivals {
		assert.Less(t, arrivals[i].Sub(sent[i]), 100*time.Millisecond, "move %d", i)
	}
}

func TestNetTransport_KeepAliveHoldsSession(t *testing.T) {
	keepalives := make([][]byte, 6)
	for i := range keepalives {
		keepalives[i] = []byte("CALV")
	}
	server := NewMockSynergyServer(keepalives...)
	server.Interval = 300 * time.Millisecond
	require.NoError(t, server.Start())
	defer server.Stop()

	// the idle timeout is shorter than the keepalive period; only a read
	// that comes back empty may trigger it
	tr := NewNetTransport(server.Addr(), WithPollTimeout(time.Second))
	c, err := New(tr, WithIdleTimeout(200*time.Millisecond), WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)

	runner := NewRunner(c)
	runner.Start()
	defer runner.Stop()

	echoed := 0
	timeout := time.After(5 * time.Second)
	for echoed < len(keepalives) {
		select {
		case body := <-server.Replies:
			if string(body) == "CALV" {
				echoed++
			}
		case <-timeout:
			t.Fatalf("only %d keepalives answered", echoed)
		}
	}
	assert.Equal(t, 1, server.Connections(), "session was rebuilt while the server kept talking")

	// once the server falls silent the idle timeout reconnects
	assert.True(t, waitFor(t, 5*time.Second, func() bool {
		return server.Connections() >= 2
	}))
}
