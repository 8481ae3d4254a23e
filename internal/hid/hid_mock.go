package hid

import (
	"errors"
	"sync"
)

// ErrMockClosed is returned by Read after the mock device closes.
var ErrMockClosed = errors.New("mock hid: device closed")

// MockDevice is a scriptable in-memory Device for tests. A Responder
// inspects each written report and returns zero or more input reports to
// queue; returning nothing simulates a device that never answers (a
// timeout). Read blocks until a report is queued or the device closes.
type MockDevice struct {
	// Responder is invoked for every successful Write with a copy of the
	// report bytes (report ID included).
	Responder func(report []byte) [][]byte

	mu       sync.Mutex
	writeErr error
	writes   [][]byte
	inbox    chan []byte
	quit     chan struct{}
	closed   bool
}

func NewMockDevice() *MockDevice {
	return &MockDevice{
		inbox: make(chan []byte, 32),
		quit:  make(chan struct{}),
	}
}

// SetWriteError makes every subsequent Write fail with err, simulating an
// unplugged device.
func (m *MockDevice) SetWriteError(err error) {
	m.mu.Lock()
	m.writeErr = err
	m.mu.Unlock()
}

func (m *MockDevice) Write(p []byte) (int, error) {
	m.mu.Lock()
	if m.writeErr != nil {
		err := m.writeErr
		m.mu.Unlock()
		return 0, err
	}
	report := append([]byte(nil), p...)
	m.writes = append(m.writes, report)
	responder := m.Responder
	m.mu.Unlock()

	if responder != nil {
		for _, resp := range responder(report) {
			m.Emit(resp)
		}
	}
	return len(p), nil
}

// Emit queues one input report for Read to return. The send happens outside
// the lock so a saturated inbox blocks only the emitter, never the other
// device methods.
func (m *MockDevice) Emit(report []byte) {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return
	}
	select {
	case m.inbox <- append([]byte(nil), report...):
	case <-m.quit:
	}
}

func (m *MockDevice) Read(p []byte) (int, error) {
	select {
	case report := <-m.inbox:
		return copy(p, report), nil
	case <-m.quit:
		return 0, ErrMockClosed
	}
}

func (m *MockDevice) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.quit)
	}
	return nil
}

// Writes returns a copy of every report written so far, in order.
func (m *MockDevice) Writes() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.writes))
	copy(out, m.writes)
	return out
}
