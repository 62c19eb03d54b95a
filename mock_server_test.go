// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package synergy

import (
	"encoding/binary"
	"io"
	"net"
	"sync"
	"time"
)

// MockSynergyServer is a minimal Synergy server for testing. It greets every
// connection, waits for the hello reply and then plays Script, pausing
// Interval before each message. Every message the client sends is forwarded
// to Replies.
type MockSynergyServer struct {
	listener net.Listener
	addr     string
	wg       sync.WaitGroup
	stop     chan struct{}

	// Configuration
	Major    uint16
	Minor    uint16
	Script   [][]byte
	Interval time.Duration

	// Replies receives the body of every client message.
	Replies chan []byte

	mu          sync.Mutex
	connections int
	sentAt      []time.Time
}

// NewMockSynergyServer creates a new mock server speaking protocol 1.6.
func NewMockSynergyServer(script ...[]byte) *MockSynergyServer {
	return &MockSynergyServer{
		Major:   1,
		Minor:   6,
		Script:  script,
		Replies: make(chan []byte, 256),
		stop:    make(chan struct{}),
	}
}

// Start starts the mock server on a random available port.
func (m *MockSynergyServer) Start() error {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}

	m.listener = listener
	m.addr = listener.Addr().String()

	m.wg.Add(1)
	go m.serve()

	return nil
}

// Stop stops the mock server.
func (m *MockSynergyServer) Stop() {
	close(m.stop)
	if m.listener != nil {
		m.listener.Close()
	}
	m.wg.Wait()
}

// Addr returns the server address.
func (m *MockSynergyServer) Addr() string {
	return m.addr
}

// SentAt returns when each script message was written, across connections.
func (m *MockSynergyServer) SentAt() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Time(nil), m.sentAt...)
}

// Connections returns the number of accepted connections.
func (m *MockSynergyServer) Connections() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connections
}

func (m *MockSynergyServer) serve() {
	defer m.wg.Done()

	for {
		conn, err := m.listener.Accept()
		if err != nil {
			select {
			case <-m.stop:
				return
			default:
				continue
			}
		}

		m.mu.Lock()
		m.connections++
		m.mu.Unlock()

		m.wg.Add(1)
		go m.handleConnection(conn)
	}
}

func (m *MockSynergyServer) handleConnection(conn net.Conn) {
	defer m.wg.Done()
	defer conn.Close()

	go func() {
		<-m.stop
		conn.Close()
	}()

	if err := conn.SetDeadline(time.Now().Add(10 * time.Second)); err != nil {
		return
	}

	hello := make([]byte, 0, 11)
	hello = append(hello, "Synergy"...)
	hello = binary.BigEndian.AppendUint16(hello, m.Major)
	hello = binary.BigEndian.AppendUint16(hello, m.Minor)
	if err := writeFrame(conn, hello); err != nil {
		return
	}

	// the hello reply comes first
	body, err := readFrame(conn)
	if err != nil {
		return
	}
	m.forward(body)

	for _, msg := range m.Script {
		if m.Interval > 0 {
			select {
			case <-time.After(m.Interval):
			case <-m.stop:
				return
			}
		}
		if err := writeFrame(conn, msg); err != nil {
			return
		}
		m.mu.Lock()
		m.sentAt = append(m.sentAt, time.Now())
		m.mu.Unlock()
	}

	for {
		body, err := readFrame(conn)
		if err != nil {
			return
		}
		m.forward(body)
	}
}

func (m *MockSynergyServer) forward(body []byte) {
	select {
	case m.Replies <- body:
	case <-m.stop:
	}
}

func writeFrame(w io.Writer, body []byte) error {
	buf := binary.BigEndian.AppendUint32(nil, uint32(len(body)))
	_, err := w.Write(append(buf, body...))
	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	body := make([]byte, binary.BigEndian.Uint32(header[:]))
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}
